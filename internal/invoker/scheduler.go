package invoker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ParseFrequency converts a rule's schedule descriptor into an interval.
// Accepted forms are the named descriptors hourly, daily, and weekly
// (case-insensitive) or any Go duration string.
func ParseFrequency(s string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hourly":
		return time.Hour, nil
	case "daily":
		return 24 * time.Hour, nil
	case "weekly":
		return 7 * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("frequency %q: not a named descriptor or duration", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("frequency %q: interval must be positive", s)
	}
	return d, nil
}

// Entry is one scheduled rule invocation.
type Entry struct {
	RuleID string
	Every  time.Duration
	Invoke func(ctx context.Context)
}

// Scheduler periodically invokes a set of entries, one ticker goroutine per
// entry. Entries invoke through the Adapter, so a failing rule ticks on;
// the scheduler itself only stops when its context is cancelled.
//
// The scheduler never runs the same entry concurrently with itself: a tick
// that arrives while the previous invocation is still running is absorbed
// by the ticker.
type Scheduler struct {
	entries []Entry
	logger  *slog.Logger
}

// NewScheduler creates a scheduler over the given entries.
func NewScheduler(entries []Entry, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{entries: entries, logger: logger}
}

// Run starts every entry's ticker and blocks until the context is
// cancelled. Entries fire first after one full interval, not immediately;
// hosts wanting an immediate pass invoke the adapter directly before
// starting the scheduler.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, entry := range s.entries {
		wg.Add(1)
		go func(e Entry) {
			defer wg.Done()
			s.logger.Info("rule scheduled", "rule", e.RuleID, "every", e.Every)

			ticker := time.NewTicker(e.Every)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					e.Invoke(ctx)
				}
			}
		}(entry)
	}
	wg.Wait()
}
