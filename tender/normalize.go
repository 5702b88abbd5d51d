package tender

import "strings"

// Field labels as they appear on the procurement site's detail pages.
// The fetcher returns raw field maps keyed by these labels; Normalize maps
// them onto Record.
const (
	LabelAgencyName = "機關名稱"
	LabelTenderID   = "標案案號"
	LabelTenderName = "標案名稱"
	LabelBudget     = "預算金額"
	LabelCentralGov = "本採購是否屬中央政府計畫型案件"
	LabelLocation   = "履約地點"
	LabelContact    = "聯絡人"
)

// Normalize converts a raw detail field map into a Record. Values are
// trimmed but otherwise kept verbatim; Budget stays the published currency
// text, never parsed to a number. The central-government field is the site's
// 是/否 answer, reduced to a boolean.
func Normalize(fields map[string]string) Record {
	return Record{
		AgencyName:          strings.TrimSpace(fields[LabelAgencyName]),
		TenderID:            strings.TrimSpace(fields[LabelTenderID]),
		TenderName:          strings.TrimSpace(fields[LabelTenderName]),
		Budget:              strings.TrimSpace(fields[LabelBudget]),
		IsCentralGovernment: strings.TrimSpace(fields[LabelCentralGov]) == "是",
		Location:            strings.TrimSpace(fields[LabelLocation]),
		Contact:             strings.TrimSpace(fields[LabelContact]),
	}
}
