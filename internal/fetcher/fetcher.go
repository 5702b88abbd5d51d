// Package fetcher implements the document fetcher against the government
// e-procurement site: fill the basic tender search form, harvest the detail
// links from the result table, and extract labelled fields from each detail
// page.
//
// All DOM interaction goes through page.Eval: the site's form controls are
// plain server-rendered elements and driving them from JS keeps the
// navigation indistinguishable from a human-triggered submit.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/tenderwatch/internal/browser"
	"github.com/hazyhaar/tenderwatch/tender"
)

// searchURL is the basic tender search form.
const searchURL = "https://web.pcc.gov.tw/prkms/tender/common/basic/indexTenderBasic"

// detailLabels are the th labels extracted from a detail page, keyed exactly
// as tender.Normalize expects them.
var detailLabels = []string{
	tender.LabelAgencyName,
	tender.LabelTenderID,
	tender.LabelTenderName,
	tender.LabelBudget,
	tender.LabelCentralGov,
	tender.LabelLocation,
	tender.LabelContact,
}

// Config configures the fetcher.
type Config struct {
	// RemoteURL attaches to an external Chrome instead of launching one.
	RemoteURL string

	// Headful runs Chrome visibly, for debugging the form flow.
	Headful bool

	// NavTimeout bounds a single page navigation. Default: 60s.
	NavTimeout time.Duration

	// ListingWait is how long to wait for the result table after submitting
	// the form before concluding the query matched nothing. Default: 10s.
	ListingWait time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 60 * time.Second
	}
	if c.ListingWait <= 0 {
		c.ListingWait = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Fetcher opens one browser session per orchestrator run.
// It implements tender.Fetcher.
type Fetcher struct {
	cfg Config
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{cfg: cfg}
}

// Open launches a browser and returns a live session. A launch or connect
// failure here means the source is unreachable for the whole run.
func (f *Fetcher) Open(ctx context.Context) (tender.Session, error) {
	mgr := browser.NewManager(browser.Config{
		RemoteURL: f.cfg.RemoteURL,
		Headful:   f.cfg.Headful,
		Logger:    f.cfg.Logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	return &session{mgr: mgr, cfg: f.cfg, logger: f.cfg.Logger}, nil
}

// session is one live browser session. The orchestrator serialises all
// calls, so no locking is needed here.
type session struct {
	mgr    *browser.Manager
	cfg    Config
	logger *slog.Logger
}

// Listing submits the search form for q and returns the detail-page URLs of
// every matching entry. A missing result table after ListingWait means the
// query matched nothing, which is a valid empty result.
func (s *session) Listing(ctx context.Context, q tender.SubQuery) ([]tender.Candidate, error) {
	page, err := s.mgr.StealthPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(searchURL); err != nil {
		return nil, fmt.Errorf("fetcher: navigate search form: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		s.logger.Warn("fetcher: search form load timeout", "error", err)
	}

	if _, err := p.Eval(fillFormJS, q.Text, q.StartDate, q.EndDate); err != nil {
		return nil, fmt.Errorf("fetcher: fill search form: %w", err)
	}

	res, err := p.Eval(submitJS)
	if err != nil {
		return nil, fmt.Errorf("fetcher: submit search form: %w", err)
	}
	if !res.Value.Bool() {
		return nil, fmt.Errorf("fetcher: search button not found on %s", searchURL)
	}

	links := s.waitListing(navCtx, p)
	s.logger.Info("fetcher: listing retrieved", "query", q.Text, "candidates", len(links))

	candidates := make([]tender.Candidate, 0, len(links))
	for _, l := range links {
		candidates = append(candidates, tender.Candidate{Ref: l})
	}
	return candidates, nil
}

// waitListing polls for the result table until it appears or ListingWait
// elapses. Eval errors during the post-submit navigation are expected and
// just mean "poll again".
func (s *session) waitListing(ctx context.Context, p *rod.Page) []string {
	deadline := time.Now().Add(s.cfg.ListingWait)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		res, err := p.Eval(collectLinksJS)
		if err == nil && res.Value.Get("ready").Bool() {
			var links []string
			for _, v := range res.Value.Get("links").Arr() {
				if href := v.Str(); href != "" {
					links = append(links, href)
				}
			}
			return links
		}

		if time.Now().After(deadline) {
			s.logger.Debug("fetcher: no result table, treating as empty result")
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Detail loads one detail page and extracts the labelled fields.
func (s *session) Detail(ctx context.Context, c tender.Candidate) (map[string]string, error) {
	page, err := s.mgr.StealthPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(c.Ref); err != nil {
		return nil, fmt.Errorf("fetcher: navigate detail %s: %w", c.Ref, err)
	}
	if err := p.WaitLoad(); err != nil {
		s.logger.Warn("fetcher: detail load timeout", "ref", c.Ref, "error", err)
	}

	res, err := p.Eval(extractDetailJS, detailLabels)
	if err != nil {
		return nil, fmt.Errorf("fetcher: extract detail %s: %w", c.Ref, err)
	}

	fields := make(map[string]string, len(detailLabels))
	for label, v := range res.Value.Map() {
		fields[label] = v.Str()
	}
	return fields, nil
}

// Close shuts the browser down.
func (s *session) Close() error {
	return s.mgr.Close()
}

// fillFormJS selects the date-range mode and fills keyword and dates.
// Every element is optional: the site occasionally renders variants of the
// form, and a missing date field just falls back to the site default.
const fillFormJS = `(keyword, start, end) => {
	const radio = document.getElementById('level_23');
	if (radio) radio.click();
	const kw = document.getElementById('tenderName');
	if (kw) kw.value = keyword;
	const s = document.getElementById('tenderStartDate');
	if (s && start) s.value = start;
	const e = document.getElementById('tenderEndDate');
	if (e && end) e.value = end;
}`

// submitJS clicks the 查詢 control, located by text because the site gives
// it no stable id. Returns whether a control was found.
const submitJS = `() => {
	const els = document.querySelectorAll('div.bt_cen2, button, input[type="button"]');
	for (const el of els) {
		const text = (el.innerText || '') + (el.value || '');
		if (text.includes('查詢')) {
			el.click();
			return true;
		}
	}
	return false;
}`

// collectLinksJS reports whether the result table has rendered and, if so,
// the detail link of every row.
const collectLinksJS = `() => {
	const table = document.querySelector('table.tb_03c');
	if (!table) return { ready: false, links: [] };
	const links = [];
	for (const row of table.querySelectorAll('tbody tr')) {
		const a = row.querySelector('a[title="檢視標案詳細內容"]');
		if (a) links.push(a.href);
	}
	return { ready: true, links };
}`

// extractDetailJS maps each label to the text of the cell following the
// matching th, empty when the row is absent.
const extractDetailJS = `(labels) => {
	const out = {};
	const ths = Array.from(document.querySelectorAll('th'));
	for (const label of labels) {
		const th = ths.find(t => t.innerText.includes(label));
		out[label] = th && th.nextElementSibling ? th.nextElementSibling.innerText.trim() : '';
	}
	return out;
}`
