package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention deletes archived transcripts older than a fixed age on a cron
// schedule (standard 5-field format).
type Retention struct {
	cron   *cron.Cron
	purger Purger
	maxAge time.Duration
	now    func() time.Time
}

func NewRetention(purger Purger, days int) *Retention {
	return &Retention{
		cron:   cron.New(),
		purger: purger,
		maxAge: time.Duration(days) * 24 * time.Hour,
		now:    time.Now,
	}
}

func (r *Retention) Schedule(spec string) error {
	if _, err := r.cron.AddFunc(spec, r.runOnce); err != nil {
		return fmt.Errorf("retention: schedule %q: %w", spec, err)
	}
	return nil
}

func (r *Retention) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if _, err := r.Purge(ctx); err != nil {
		log.Error().Err(err).Msg("transcript_purge_failed")
	}
}

// Purge removes everything older than the retention window now.
func (r *Retention) Purge(ctx context.Context) (int64, error) {
	if r.maxAge <= 0 {
		return 0, nil
	}
	// archived rows are stored in UTC
	cutoff := r.now().UTC().Add(-r.maxAge)
	n, err := r.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("transcript_purge")
	return n, nil
}

func (r *Retention) Start() { r.cron.Start() }

// Stop halts the scheduler and waits for a running purge to finish.
func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Retention) Entries() int { return len(r.cron.Entries()) }
