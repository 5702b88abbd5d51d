// Package export writes one CSV artifact per search run.
//
// The column set and order are fixed and match the site's own field naming,
// so the files drop straight into the spreadsheets the procurement team
// already uses. Files are UTF-8 with a BOM: without it Excel renders the
// Chinese headers as mojibake.
package export

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/tenderwatch/tender"
)

// Header is the fixed column set, in order.
var Header = []string{
	"機關名稱", "標案案號", "標案名稱", "預算金額", "中央政府計畫", "履約地點", "機關窗口",
}

// Exporter writes artifacts into a results directory.
type Exporter struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Exporter. The directory is created on demand.
func New(dir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{dir: dir, logger: logger, now: time.Now}
}

// Export writes the aggregate to a new CSV file and returns its filename
// (relative to the results directory). Field values are written verbatim;
// encoding/csv applies RFC 4180 quoting, so embedded quotes and separators
// survive a round-trip through any conforming reader.
func (e *Exporter) Export(keyword string, results []tender.Record) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("export: mkdir results dir: %w", err)
	}

	name := Filename(keyword, e.now())
	f, err := os.Create(filepath.Join(e.dir, name))
	if err != nil {
		return "", fmt.Errorf("export: create artifact: %w", err)
	}
	defer f.Close()

	// BOM first, for spreadsheet tools that sniff the encoding.
	if _, err := f.WriteString("\uFEFF"); err != nil {
		return "", fmt.Errorf("export: write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return "", fmt.Errorf("export: write header: %w", err)
	}
	for _, r := range results {
		central := "否"
		if r.IsCentralGovernment {
			central = "是"
		}
		row := []string{
			r.AgencyName, r.TenderID, r.TenderName, r.Budget, central, r.Location, r.Contact,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("export: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export: flush: %w", err)
	}

	e.logger.Info("export: artifact written", "file", name, "records", len(results))
	return name, nil
}

// Filename builds the artifact name for one run. The millisecond timestamp
// keeps names unique per run so no export overwrites a prior one.
func Filename(keyword string, at time.Time) string {
	ts := strings.ReplaceAll(at.UTC().Format("2006-01-02T15-04-05.000"), ".", "-")
	return fmt.Sprintf("tenders-%s-%sZ.csv", sanitize(keyword), ts)
}

// sanitize keeps keyword characters that are safe in a filename and maps
// the rest to underscores.
func sanitize(keyword string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		case r > 127: // keep CJK and other non-ASCII letters
			return r
		default:
			return '_'
		}
	}, keyword)
}
