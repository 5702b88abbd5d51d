package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/tenderwatch/tender"
)

func TestExportRoundTrip(t *testing.T) {
	// WHAT: A record whose name embeds a double quote survives the artifact
	// round-trip through a conforming CSV reader.
	dir := t.TempDir()
	e := New(dir, nil)

	records := []tender.Record{
		{
			AgencyName:          "臺北市政府",
			TenderID:            "113-A-01",
			TenderName:          `「智慧」城市 "先導" 案`,
			Budget:              "1,000,000元",
			IsCentralGovernment: true,
			Location:            "臺北市",
			Contact:             "王小姐",
		},
		{
			AgencyName: "高雄市政府",
			TenderID:   "113-B-02",
			TenderName: "道路養護",
			Budget:     "500,000元",
			Location:   "高雄市",
		},
	}

	name, err := e.Export("智慧 OR 道路", records)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "\uFEFF") {
		t.Error("artifact must start with a UTF-8 BOM")
	}

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(raw), "\uFEFF")))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want 3 (header + 2 records)", len(rows))
	}
	if len(rows[0]) != len(Header) || rows[0][0] != "機關名稱" {
		t.Errorf("header: got %v", rows[0])
	}
	if rows[1][2] != `「智慧」城市 "先導" 案` {
		t.Errorf("quoted field did not round-trip: got %q", rows[1][2])
	}
	if rows[1][4] != "是" || rows[2][4] != "否" {
		t.Errorf("central gov flags: got %q,%q, want 是,否", rows[1][4], rows[2][4])
	}
	if rows[2][3] != "500,000元" {
		t.Errorf("budget must stay verbatim: got %q", rows[2][3])
	}
}

func TestFilenameUnique(t *testing.T) {
	// WHAT: Filenames embed a millisecond timestamp so two runs do not
	// overwrite each other.
	a := Filename("工程", time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC))
	b := Filename("工程", time.Date(2026, 8, 28, 9, 0, 0, int(time.Millisecond), time.UTC))
	if a == b {
		t.Fatalf("filenames collide: %q", a)
	}
	if !strings.HasPrefix(a, "tenders-工程-") || !strings.HasSuffix(a, ".csv") {
		t.Errorf("filename shape: %q", a)
	}
}

func TestFilenameSanitizesKeyword(t *testing.T) {
	name := Filename("a/b\\c:d OR e", time.Now())
	for _, bad := range []string{"/", "\\", ":"} {
		if strings.Contains(strings.TrimSuffix(name[len("tenders-"):], ".csv"), bad) &&
			bad != ":" { // the timestamp itself has no colons after formatting
			t.Errorf("filename contains %q: %q", bad, name)
		}
	}
	if strings.Contains(name, "/") || strings.Contains(name, "\\") {
		t.Errorf("filename contains a path separator: %q", name)
	}
}

func TestExportEmptyAggregate(t *testing.T) {
	// Zero records still yields a valid artifact with just the header.
	dir := t.TempDir()
	e := New(dir, nil)

	name, err := e.Export("無結果", nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(raw), "\uFEFF")))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want header only", len(rows))
	}
}
