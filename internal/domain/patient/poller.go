package patient

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Watcher re-fetches the record list while any record's call is still in
// progress, so the table reflects bot-driven status changes without a manual
// refresh. It idles once no calls are in flight and resumes on Kick.
type Watcher struct {
	repo     Repository
	interval time.Duration
	onChange func([]*Record)
	kick     chan struct{}
	log      zerolog.Logger

	// Scope, when set, prepares the context for each poll, typically by
	// binding a tenant-scoped database connection. The cleanup runs once
	// the poll's repository call returns.
	Scope func(context.Context) (context.Context, func(), error)
}

func NewWatcher(repo Repository, interval time.Duration, onChange func([]*Record), log zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		repo:     repo,
		interval: interval,
		onChange: onChange,
		kick:     make(chan struct{}, 1),
		log:      log.With().Str("component", "patient_watcher").Logger(),
	}
}

// Kick wakes an idle watcher. Call it after any write that could start a
// call, such as a create or a bulk import.
func (w *Watcher) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. Poll errors are logged and retried on
// the next tick rather than terminating the loop.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	active := true
	hadRecords := false
	for {
		if !active {
			select {
			case <-ctx.Done():
				return
			case <-w.kick:
				active = true
				continue
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-w.kick:
		case <-ticker.C:
		}

		records, err := w.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Warn().Err(err).Msg("poll failed")
			continue
		}
		if len(records) == 0 {
			// Report the drained list once so consumers reset, then idle.
			if hadRecords && w.onChange != nil {
				w.onChange(records)
			}
			hadRecords = false
			active = false
			continue
		}
		hadRecords = true
		if w.onChange != nil {
			w.onChange(records)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) ([]*Record, error) {
	if w.Scope != nil {
		scoped, cleanup, err := w.Scope(ctx)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		ctx = scoped
	}
	records, _, err := w.repo.List(ctx, ListFilter{CallStatus: CallStatusInProgress}, pollBatchSize, 0)
	return records, err
}

const pollBatchSize = 500
