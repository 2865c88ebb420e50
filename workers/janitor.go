// Package workers hosts background maintenance for the daemon mode.
package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"getmyhouse/storage"
)

// Janitor prunes sessions whose last turn is older than the TTL.
// Session data is otherwise append-only, so expiry is the only
// destructive path.
type Janitor struct {
	store  storage.SessionStore
	ttl    time.Duration
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}
}

func NewJanitor(store storage.SessionStore, ttl time.Duration) *Janitor {
	return &Janitor{
		store:  store,
		ttl:    ttl,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

// Start schedules sweeps from a cron expression when given, falling
// back to a fixed interval. With neither, the janitor stays idle.
func (j *Janitor) Start(ctx context.Context, cronSpec string, interval time.Duration) error {
	if cronSpec != "" {
		log.Printf("Janitor: cron schedule %s", cronSpec)
		_, err := j.cron.AddFunc(cronSpec, func() {
			j.Sweep(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		j.cron.Start()
		return nil
	}

	if interval > 0 {
		log.Printf("Janitor: interval %s", interval)
		j.ticker = time.NewTicker(interval)
		go func() {
			for {
				select {
				case <-j.ticker.C:
					j.Sweep(ctx)
				case <-j.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
		return nil
	}

	log.Println("Janitor: no schedule configured, sessions never expire")
	return nil
}

// Sweep runs one expiry pass.
func (j *Janitor) Sweep(ctx context.Context) {
	if j.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-j.ttl)
	pruned, err := j.store.PruneExpired(ctx, cutoff)
	if err != nil {
		log.Printf("Janitor: prune failed: %v", err)
		return
	}
	if pruned > 0 {
		log.Printf("Janitor: pruned %d expired sessions", pruned)
	}
}

func (j *Janitor) Stop() {
	if j.cron != nil {
		j.cron.Stop()
	}
	if j.ticker != nil {
		j.ticker.Stop()
		close(j.stopCh)
	}
}
