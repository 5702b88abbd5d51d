package tender

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Orchestrator drives a compound search: decompose, execute sub-queries
// sequentially, deduplicate, narrate progress.
type Orchestrator struct {
	fetcher Fetcher
	pause   time.Duration
	logger  *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithDetailPause sets the politeness delay between detail lookups.
// Default: 500ms.
func WithDetailPause(d time.Duration) Option {
	return func(o *Orchestrator) { o.pause = d }
}

// NewOrchestrator creates an Orchestrator over the given fetcher.
func NewOrchestrator(f Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher: f,
		pause:   500 * time.Millisecond,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the compound search and returns the aggregate.
//
// It fails only for conditions that make the whole request meaningless
// (empty keyword) or unrunnable (the fetcher cannot be opened at all); both
// are also emitted as a terminal error event. A sub-query failing mid-run is
// narrated via a log event and the run continues, so callers still get a
// complete event with whatever the remaining sub-queries aggregated.
//
// Sub-queries execute strictly sequentially over one shared session: the
// site's navigation is session-stateful and parallel form submissions would
// corrupt it. The seen-ID set is only touched from this goroutine.
func (o *Orchestrator) Run(ctx context.Context, req SearchRequest, sink Sink) ([]Record, error) {
	if sink == nil {
		sink = Discard
	}

	terms, err := SplitKeyword(req.RawKeyword)
	if err != nil {
		sink.Emit(Event{Type: EventError, Message: "keyword is required"})
		return nil, err
	}

	o.logger.Info("orchestrator: run starting",
		"keyword", req.RawKeyword, "terms", len(terms),
		"start", req.StartDate, "end", req.EndDate)

	session, err := o.fetcher.Open(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrFetcherInit, err)
		sink.Emit(Event{Type: EventError, Message: err.Error()})
		return nil, err
	}
	defer session.Close()

	exec := NewExecutor(session, o.pause, o.logger)

	seen := make(map[string]struct{})
	aggregate := make([]Record, 0)

	for i, term := range terms {
		if ctx.Err() != nil {
			err := fmt.Errorf("tender: run aborted: %w", ctx.Err())
			sink.Emit(Event{Type: EventError, Message: err.Error()})
			return nil, err
		}

		sink.Emit(Event{Type: EventLog,
			Message: fmt.Sprintf("searching %q (%d/%d)", term, i+1, len(terms))})

		records, err := exec.Execute(ctx, SubQuery{
			Text:      term,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		})
		if err != nil {
			// Non-fatal: narrate and move on to the next term.
			o.logger.Warn("orchestrator: sub-query failed", "term", term, "error", err)
			sink.Emit(Event{Type: EventLog,
				Message: fmt.Sprintf("sub-query %q failed: %v, continuing", term, err)})
			continue
		}

		added := 0
		for _, r := range records {
			if r.TenderID == "" {
				// Cannot be deduplicated safely; never aggregated.
				continue
			}
			if _, dup := seen[r.TenderID]; dup {
				continue
			}
			seen[r.TenderID] = struct{}{}
			aggregate = append(aggregate, r)
			added++
		}

		sink.Emit(Event{Type: EventLog,
			Message: fmt.Sprintf("sub-query %q: %d records, %d new", term, len(records), added)})
	}

	o.logger.Info("orchestrator: run complete",
		"keyword", req.RawKeyword, "records", len(aggregate))
	sink.Emit(Event{Type: EventComplete, Results: aggregate})
	return aggregate, nil
}
