package tender

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery is returned when keyword decomposition yields no terms.
// User error: surfaced immediately, never retried.
var ErrInvalidQuery = errors.New("tender: empty or unparseable keyword")

// ErrFetcherInit is returned when the document fetcher cannot be opened at
// all. Unlike per-sub-query failures, this aborts the whole run.
var ErrFetcherInit = errors.New("tender: document fetcher initialisation failed")

// FetchError is a transient retrieval failure for one sub-query. The
// orchestrator absorbs it: the sub-query is narrated as failed and the run
// continues with the remaining terms.
type FetchError struct {
	Op    string // "listing" or "detail"
	Query string // sub-query text
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("tender: %s for %q: %v", e.Op, e.Query, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
