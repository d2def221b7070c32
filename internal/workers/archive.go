package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pidro/internal/archive"
)

type ArchiveWorker struct {
	repository archive.Repository
	recordChan <-chan archive.Record
	interval   time.Duration
	maxPending int

	pending []archive.Record
}

type NewArchiveWorkerOptions struct {
	Repository archive.Repository
	RecordChan <-chan archive.Record
	// Interval between retries of saves that failed.
	Interval time.Duration
	// MaxPending caps the retry queue; the oldest record is dropped beyond it.
	MaxPending int
}

// NewArchiveWorker creates a new ArchiveWorker.
// The worker saves completed hands sent by the tables and periodically
// retries the ones the repository rejected.
func NewArchiveWorker(opts NewArchiveWorkerOptions) *ArchiveWorker {
	interval := opts.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	maxPending := opts.MaxPending
	if maxPending <= 0 {
		maxPending = 256
	}
	return &ArchiveWorker{
		repository: opts.Repository,
		recordChan: opts.RecordChan,
		interval:   interval,
		maxPending: maxPending,
	}
}

// Start runs until ctx is done or the record channel is closed.
func (w *ArchiveWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-w.recordChan:
			if !ok {
				return
			}
			w.save(ctx, rec)
		case <-ticker.C:
			w.retry(ctx)
		}
	}
}

// Pending returns the number of records waiting for a retry.
func (w *ArchiveWorker) Pending() int { return len(w.pending) }

func (w *ArchiveWorker) save(ctx context.Context, rec archive.Record) {
	if err := w.repository.SaveHand(ctx, rec); err != nil {
		log.Error().Err(err).Str("table", rec.TableID.String()).Int("hand", rec.Hand).Msg("failed to archive hand")
		w.pending = append(w.pending, rec)
		if len(w.pending) > w.maxPending {
			dropped := w.pending[0]
			w.pending = w.pending[1:]
			log.Warn().Str("table", dropped.TableID.String()).Int("hand", dropped.Hand).Msg("archive retry queue full; hand dropped")
		}
		return
	}
	log.Debug().Str("table", rec.TableID.String()).Int("hand", rec.Hand).Msg("hand archived")
}

func (w *ArchiveWorker) retry(ctx context.Context) {
	if len(w.pending) == 0 {
		return
	}
	queue := w.pending
	w.pending = nil
	for _, rec := range queue {
		w.save(ctx, rec)
	}
}
