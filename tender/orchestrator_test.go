package tender

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeSession scripts listing/detail responses per sub-query text.
type fakeSession struct {
	listings map[string][]Candidate          // query text -> candidates
	details  map[string]map[string]string    // candidate ref -> raw fields
	listErr  map[string]error                // query text -> listing failure
	detErr   map[string]error                // candidate ref -> detail failure
	executed []string                        // sub-query texts, in order
	closed   bool
}

func (s *fakeSession) Listing(ctx context.Context, q SubQuery) ([]Candidate, error) {
	s.executed = append(s.executed, q.Text)
	if err := s.listErr[q.Text]; err != nil {
		return nil, err
	}
	return s.listings[q.Text], nil
}

func (s *fakeSession) Detail(ctx context.Context, c Candidate) (map[string]string, error) {
	if err := s.detErr[c.Ref]; err != nil {
		return nil, err
	}
	return s.details[c.Ref], nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeFetcher struct {
	session *fakeSession
	openErr error
	opens   int
}

func (f *fakeFetcher) Open(ctx context.Context) (Session, error) {
	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.session, nil
}

// recordingSink captures events in emission order.
type recordingSink struct {
	events []Event
}

func (s *recordingSink) Emit(e Event) { s.events = append(s.events, e) }

func rawFields(id string) map[string]string {
	return map[string]string{
		LabelAgencyName: "臺北市政府",
		LabelTenderID:   id,
		LabelTenderName: "標案 " + id,
		LabelBudget:     "1,000,000元",
		LabelCentralGov: "是",
		LabelLocation:   "臺北市",
		LabelContact:    "王小姐",
	}
}

func sessionWith(queries map[string][]string) *fakeSession {
	s := &fakeSession{
		listings: map[string][]Candidate{},
		details:  map[string]map[string]string{},
		listErr:  map[string]error{},
		detErr:   map[string]error{},
	}
	for q, ids := range queries {
		for _, id := range ids {
			ref := q + "/" + id
			s.listings[q] = append(s.listings[q], Candidate{Ref: ref})
			s.details[ref] = rawFields(id)
		}
	}
	return s
}

func newTestOrchestrator(f Fetcher) *Orchestrator {
	return NewOrchestrator(f, WithDetailPause(0))
}

func TestRunUnionDedup(t *testing.T) {
	// WHAT: "電腦 OR 軟體" with overlapping results yields [A,B,C] in
	// first-sighting order.
	// WHY: Client-side decomposition plus dedup is the only way to get
	// correct union semantics from a source without server-side OR.
	session := sessionWith(map[string][]string{
		"電腦": {"A", "B"},
		"軟體": {"B", "C"},
	})
	o := newTestOrchestrator(&fakeFetcher{session: session})

	got, err := o.Run(context.Background(), SearchRequest{RawKeyword: "電腦 OR 軟體"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantIDs := []string{"A", "B", "C"}
	if len(got) != len(wantIDs) {
		t.Fatalf("aggregate: got %d records, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].TenderID != id {
			t.Errorf("aggregate[%d]: got %q, want %q", i, got[i].TenderID, id)
		}
	}

	if want := []string{"電腦", "軟體"}; len(session.executed) != 2 ||
		session.executed[0] != want[0] || session.executed[1] != want[1] {
		t.Errorf("sub-query order: got %v, want %v", session.executed, want)
	}
	if !session.closed {
		t.Error("session should be closed after the run")
	}
}

func TestRunSubQueryCount(t *testing.T) {
	// WHAT: N OR-separated terms issue exactly N sub-query executions.
	session := sessionWith(map[string][]string{})
	o := newTestOrchestrator(&fakeFetcher{session: session})

	_, err := o.Run(context.Background(), SearchRequest{RawKeyword: "a OR b OR c OR d"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(session.executed) != 4 {
		t.Fatalf("executions: got %d, want 4", len(session.executed))
	}
}

func TestRunExcludesEmptyTenderID(t *testing.T) {
	// WHAT: Records with an empty tenderId never appear in the aggregate.
	// WHY: They cannot be deduplicated safely.
	session := sessionWith(map[string][]string{"工程": {"A"}})
	blank := rawFields("")
	session.listings["工程"] = append(session.listings["工程"], Candidate{Ref: "工程/blank"})
	session.details["工程/blank"] = blank

	o := newTestOrchestrator(&fakeFetcher{session: session})
	got, err := o.Run(context.Background(), SearchRequest{RawKeyword: "工程"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || got[0].TenderID != "A" {
		t.Fatalf("aggregate: got %+v, want single record A", got)
	}
}

func TestRunSubQueryFailureContinues(t *testing.T) {
	// WHAT: A sub-query's listing failure never terminates the run; the run
	// still completes with the surviving sub-queries' aggregate.
	session := sessionWith(map[string][]string{
		"電腦": {"A"},
		"軟體": {"C"},
	})
	session.listErr["電腦"] = errors.New("navigation timeout")

	o := newTestOrchestrator(&fakeFetcher{session: session})
	sink := &recordingSink{}

	got, err := o.Run(context.Background(), SearchRequest{RawKeyword: "電腦 OR 軟體"}, sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || got[0].TenderID != "C" {
		t.Fatalf("aggregate: got %+v, want single record C", got)
	}

	last := sink.events[len(sink.events)-1]
	if last.Type != EventComplete {
		t.Fatalf("terminal event: got %q, want complete", last.Type)
	}
}

func TestRunEventOrdering(t *testing.T) {
	// WHAT: Events arrive in emission order; exactly one terminal event,
	// and it is last.
	session := sessionWith(map[string][]string{"a": {"1"}, "b": {"2"}})
	o := newTestOrchestrator(&fakeFetcher{session: session})
	sink := &recordingSink{}

	if _, err := o.Run(context.Background(), SearchRequest{RawKeyword: "a OR b"}, sink); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.events) == 0 {
		t.Fatal("no events emitted")
	}
	terminals := 0
	for i, e := range sink.events {
		switch e.Type {
		case EventComplete, EventError:
			terminals++
			if i != len(sink.events)-1 {
				t.Errorf("terminal event at index %d, want last (%d)", i, len(sink.events)-1)
			}
		}
	}
	if terminals != 1 {
		t.Fatalf("terminal events: got %d, want 1", terminals)
	}
}

func TestRunEmptyKeyword(t *testing.T) {
	// WHAT: Empty keyword emits a terminal error event and attempts no
	// sub-query (the fetcher is never opened).
	fetcher := &fakeFetcher{session: sessionWith(nil)}
	o := newTestOrchestrator(fetcher)
	sink := &recordingSink{}

	_, err := o.Run(context.Background(), SearchRequest{RawKeyword: "   "}, sink)
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("Run: got %v, want ErrInvalidQuery", err)
	}
	if fetcher.opens != 0 {
		t.Errorf("fetcher opened %d times, want 0", fetcher.opens)
	}
	if len(sink.events) != 1 || sink.events[0].Type != EventError {
		t.Fatalf("events: got %+v, want single error event", sink.events)
	}
}

func TestRunFetcherInitFailure(t *testing.T) {
	// WHAT: The fetcher being unreachable at all aborts the run with a
	// terminal error event.
	o := newTestOrchestrator(&fakeFetcher{openErr: errors.New("chrome not found")})
	sink := &recordingSink{}

	_, err := o.Run(context.Background(), SearchRequest{RawKeyword: "工程"}, sink)
	if !errors.Is(err, ErrFetcherInit) {
		t.Fatalf("Run: got %v, want ErrFetcherInit", err)
	}
	last := sink.events[len(sink.events)-1]
	if last.Type != EventError {
		t.Fatalf("terminal event: got %q, want error", last.Type)
	}
}

func TestRunDuplicatesAcrossManyTerms(t *testing.T) {
	// WHAT: Later duplicate sightings never reorder or duplicate the
	// aggregate.
	queries := map[string][]string{}
	var keyword string
	for i := 0; i < 5; i++ {
		term := fmt.Sprintf("t%d", i)
		queries[term] = []string{"X", fmt.Sprintf("u%d", i)}
		if keyword != "" {
			keyword += " OR "
		}
		keyword += term
	}
	o := newTestOrchestrator(&fakeFetcher{session: sessionWith(queries)})

	got, err := o.Run(context.Background(), SearchRequest{RawKeyword: keyword}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	seen := map[string]int{}
	for _, r := range got {
		seen[r.TenderID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("tenderId %q appears %d times, want 1", id, n)
		}
	}
	if got[0].TenderID != "X" {
		t.Errorf("first record: got %q, want X (first sighting)", got[0].TenderID)
	}
}
