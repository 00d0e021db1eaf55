package scanner

import (
	"fmt"
	"sort"

	"NewsBrief/internal/domain"
)

// Layout knows one site's markup: where listing items live and which part of
// an article page is the body.
type Layout interface {
	Name() string
	ParseListing(markup, category string, order domain.ListingOrder) ([]domain.Article, error)
	ParseDetail(markup string) (string, error)
}

// Registry keeps a mapping from layout names to their implementations.
type Registry struct {
	layouts map[string]Layout
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{layouts: map[string]Layout{}}
}

// Register adds or replaces a layout implementation.
func (r *Registry) Register(layout Layout) {
	if r.layouts == nil {
		r.layouts = map[string]Layout{}
	}
	r.layouts[layout.Name()] = layout
}

// Resolve returns a layout by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Layout, error) {
	if layout, ok := r.layouts[name]; ok {
		return layout, nil
	}
	return nil, fmt.Errorf("layout %s is not registered (known: %v)", name, r.Names())
}

// Names lists registered layouts in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
