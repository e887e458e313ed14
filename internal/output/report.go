package output

import (
	"strconv"

	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/spreadsheet"
)

const issueSheet = "Incidencias"

// IssueHeader is the column order of the issue listing.
var IssueHeader = []string{"Tipo", "Archivo", "Página", "Línea", "Detalle"}

// IssueRecord renders one issue. Unknown locations are left empty.
func IssueRecord(is domain.Issue) []string {
	return []string{
		string(is.Kind),
		is.Document,
		position(is.Page),
		position(is.Line),
		is.Detail,
	}
}

// WriteIssues writes every issue of the report to path, in the order the
// run raised them.
func WriteIssues(path string, report *domain.Report) error {
	records := make([][]string, 0, len(report.Issues))
	for _, is := range report.Issues {
		records = append(records, IssueRecord(is))
	}
	return spreadsheet.Write(path, issueSheet, IssueHeader, records)
}

func position(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
