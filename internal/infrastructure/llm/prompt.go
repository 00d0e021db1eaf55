package llm

import (
	"strings"
	"unicode/utf8"
)

// ContentPlaceholder marks where the article text goes in a prompt template.
const ContentPlaceholder = "{{content}}"

const maxContentRunes = 60000

const defaultPromptTemplate = `You are an assistant that summarizes news articles.

Read the article text below and write one short, coherent and neutral paragraph that captures its main points: the context, the central issue, and the outcome or impact if any.

Use only information present in the text. Do not speculate or add outside knowledge. Do not copy long passages verbatim.

Write in the same language as the article. Keep the result under 1024 characters and return plain text only: no title, no bullet points, no special formatting.

Article text:

{{content}}`

// BuildPrompt renders template with the article content. An empty template
// uses the built-in summary instructions; a template without the placeholder
// gets the content appended.
func BuildPrompt(template, content string) string {
	template = strings.TrimSpace(template)
	if template == "" {
		template = defaultPromptTemplate
	}
	content = truncateRunes(strings.TrimSpace(content), maxContentRunes)

	if !strings.Contains(template, ContentPlaceholder) {
		return template + "\n\n" + content
	}
	return strings.ReplaceAll(template, ContentPlaceholder, content)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
