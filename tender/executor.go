package tender

import (
	"context"
	"log/slog"
	"time"
)

// Executor runs one sub-query against a live session: listing retrieval,
// then a detail lookup per candidate.
type Executor struct {
	session Session
	pause   time.Duration
	logger  *slog.Logger
}

// NewExecutor creates an Executor bound to one session. pause is the
// politeness delay between consecutive detail lookups; zero disables it.
func NewExecutor(session Session, pause time.Duration, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{session: session, pause: pause, logger: logger}
}

// Execute retrieves the listing for q and the detail record of every
// candidate. A listing failure is a *FetchError; an individual detail
// failure only skips that candidate, bounding the blast radius of transient
// per-record errors. Zero candidates is a valid empty result, not an error.
func (e *Executor) Execute(ctx context.Context, q SubQuery) ([]Record, error) {
	candidates, err := e.session.Listing(ctx, q)
	if err != nil {
		return nil, &FetchError{Op: "listing", Query: q.Text, Err: err}
	}

	e.logger.Debug("executor: listing retrieved", "query", q.Text, "candidates", len(candidates))

	records := make([]Record, 0, len(candidates))
	for i, c := range candidates {
		if i > 0 && e.pause > 0 {
			select {
			case <-ctx.Done():
				return records, &FetchError{Op: "detail", Query: q.Text, Err: ctx.Err()}
			case <-time.After(e.pause):
			}
		}

		fields, err := e.session.Detail(ctx, c)
		if err != nil {
			e.logger.Warn("executor: detail lookup failed, skipping candidate",
				"query", q.Text, "ref", c.Ref, "error", err)
			continue
		}
		records = append(records, Normalize(fields))
	}

	return records, nil
}
