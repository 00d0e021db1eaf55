package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsBrief/internal/ports"
)

// CronScheduler fires a job on a standard five-field cron expression.
type CronScheduler struct {
	spec string

	mu     sync.Mutex
	cron   *cron.Cron
	halted chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string) *CronScheduler {
	return &CronScheduler{spec: spec}
}

// Start registers the job and begins firing it. Overlapping runs are skipped.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil || c.spec == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	runner := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := runner.AddFunc(c.spec, func() { job(time.Now()) }); err != nil {
		return fmt.Errorf("failed to add cron job %q: %w", c.spec, err)
	}
	runner.Start()

	halted := make(chan struct{})
	c.cron, c.halted = runner, halted

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop(context.Background())
		case <-halted:
		}
	}()

	return nil
}

// Stop halts the cron runner and waits for a running job to return.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner, halted := c.cron, c.halted
	c.cron, c.halted = nil, nil
	c.mu.Unlock()

	if runner == nil {
		return nil
	}
	close(halted)

	select {
	case <-runner.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
