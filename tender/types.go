// Package tender implements the search orchestration core: compound-keyword
// decomposition, sequential sub-query execution against a document fetcher,
// cross-query deduplication, and progress event streaming.
//
// The site-specific scraping lives behind the Fetcher/Session interfaces
// (see internal/fetcher for the web.pcc.gov.tw implementation); this package
// only depends on their contract.
package tender

// Record is one tender listing.
//
// TenderID is the natural dedup key: unique per listing, non-empty when
// valid. A record with an empty TenderID cannot be deduplicated safely and
// is excluded from aggregation.
type Record struct {
	AgencyName          string `json:"agencyName"`
	TenderID            string `json:"tenderId"`
	TenderName          string `json:"tenderName"`
	Budget              string `json:"budget"`
	IsCentralGovernment bool   `json:"isCentralGovernment"`
	Location            string `json:"location"`
	Contact             string `json:"contact"`
}

// SearchRequest is one compound search. RawKeyword may contain the literal
// separator "OR" (case-insensitive, whitespace-delimited). StartDate and
// EndDate are opaque YYYY/MM/DD strings passed through to the fetcher
// unparsed; the procurement site owns their interpretation.
type SearchRequest struct {
	RawKeyword string `json:"keyword"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

// SubQuery is one decomposed unit of a compound search. Text is trimmed and
// non-empty; the date range is inherited from the parent request.
type SubQuery struct {
	Text      string
	StartDate string
	EndDate   string
}
