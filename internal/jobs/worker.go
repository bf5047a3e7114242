package jobs

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"
)

// SweepRunner is the expiration sweep the worker fires on its schedule.
type SweepRunner interface {
	Run(ctx context.Context) (int64, error)
}

type Worker struct {
	ID      string
	Repo    *Repo
	Sweeper SweepRunner

	// SweepEvery is how often the expiration sweep runs. The sweep is
	// idempotent, so overlapping or repeated runs are harmless.
	SweepEvery time.Duration
}

func (w *Worker) Run(ctx context.Context) {
	if w.SweepEvery <= 0 {
		w.SweepEvery = 24 * time.Hour
	}

	// catch up on anything that expired while the process was down
	w.sweep(ctx)

	claimTicker := time.NewTicker(5 * time.Second)
	defer claimTicker.Stop()
	sweepTicker := time.NewTicker(w.SweepEvery)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweepTicker.C:
			w.sweep(ctx)
		case <-claimTicker.C:
			job, err := w.Repo.Claim(w.ID)
			if err != nil {
				log.Printf("worker claim error: %v\n", err)
				continue
			}
			if job == nil {
				continue
			}
			w.handle(job)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	n, err := w.Sweeper.Run(ctx)
	if err != nil {
		// idempotent; the next scheduled run picks the rows up again
		log.Printf("sweep error: %v\n", err)
		return
	}
	if n > 0 {
		log.Printf("sweep deactivated %d expired listings\n", n)
	}
}

func (w *Worker) handle(job *Job) {
	switch job.Type {
	case TypeExpiryNotice:
		w.handleExpiryNotice(job)
	default:
		_ = w.Repo.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handleExpiryNotice(job *Job) {
	type payload struct {
		ListingID uint64 `json:"listing_id"`
		Title     string `json:"title"`
	}
	var p payload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		_ = w.Repo.MarkFailed(job.ID, "bad payload")
		return
	}

	// TODO(notifications): send the owner an email once an outbound
	// mail channel exists; today the notice only lands in the log.
	log.Printf("[EXPIRED] employer=%d listing=%d title=%q\n", job.UserID, p.ListingID, p.Title)
	if err := w.Repo.MarkDone(job.ID); err != nil {
		w.retry(job, "mark done failed")
	}
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(job.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	_ = w.Repo.RetryLater(job.ID, attempts, next, errMsg)
}
