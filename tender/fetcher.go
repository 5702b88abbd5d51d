package tender

import "context"

// Candidate is an opaque handle to one listing entry, produced by
// Session.Listing and consumed by Session.Detail. For the procurement site
// implementation Ref is the detail page URL, but the orchestration core
// never inspects it.
type Candidate struct {
	Ref string
}

// Fetcher opens a scraping session against the external data source.
// Open failing means the source is unreachable at all, which aborts the
// whole orchestrator run.
type Fetcher interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one live source session. Sub-queries within an orchestrator run
// share a single session and execute strictly sequentially against it: the
// site's navigation is stateful and does not tolerate parallel form
// submissions.
//
// Both operations are slow, fallible and I/O-bound. Listing never fails
// merely because zero entries matched; that is a valid empty result.
type Session interface {
	Listing(ctx context.Context, q SubQuery) ([]Candidate, error)
	Detail(ctx context.Context, c Candidate) (map[string]string, error)
	Close() error
}
