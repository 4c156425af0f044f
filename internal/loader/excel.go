package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/campuslens/campuslens/internal/models"
)

// columnAliases maps header cell spellings to record fields. Matching is
// case-insensitive after trimming.
var columnAliases = map[string]string{
	"college":        "college",
	"college name":   "college",
	"institution":    "college",
	"scholarship":    "name",
	"name":           "name",
	"award":          "name",
	"amount":         "amount",
	"award amount":   "amount",
	"deadline":       "deadline",
	"due date":       "deadline",
	"eligibility":    "eligibility",
	"requirements":   "eligibility",
	"student type":   "student_type",
	"applicant type": "student_type",
	"type":           "category",
	"category":       "category",
	"url":            "url",
	"link":           "url",
	"website":        "url",
	"notes":          "notes",
	"details":        "notes",
}

// LoadScholarshipWorkbook imports scholarships from a spreadsheet. Every
// sheet is read; the first row of each sheet is the header, and rows missing
// a scholarship name are skipped. Returns the number of records imported.
func (l *Loader) LoadScholarshipWorkbook(ctx context.Context, path string) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	count := 0
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return count, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		if len(rows) < 2 {
			continue
		}

		columns := mapColumns(rows[0])
		if _, ok := columns["name"]; !ok {
			l.logger.Warn("sheet has no scholarship name column, skipping",
				zap.String("sheet", sheet))
			continue
		}

		for _, row := range rows[1:] {
			rec := rowToScholarship(columns, row)
			if rec.Name == "" {
				continue
			}
			if err := l.storeScholarship(ctx, rec); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for i, cell := range header {
		field, ok := columnAliases[strings.ToLower(strings.TrimSpace(cell))]
		if !ok {
			continue
		}
		if _, seen := columns[field]; !seen {
			columns[field] = i
		}
	}
	return columns
}

func rowToScholarship(columns map[string]int, row []string) *models.ScholarshipRecord {
	cell := func(field string) string {
		i, ok := columns[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := &models.ScholarshipRecord{
		CollegeName: cell("college"),
		Name:        cell("name"),
		Amount:      cell("amount"),
		Deadline:    cell("deadline"),
		Category:    cell("category"),
		SourceURL:   cell("url"),
		RawText:     cell("notes"),
		StudentType: models.StudentType(strings.ToLower(cell("student_type"))),
	}
	if elig := cell("eligibility"); elig != "" {
		for _, part := range strings.Split(elig, ";") {
			if p := strings.TrimSpace(part); p != "" {
				rec.Eligibility = append(rec.Eligibility, p)
			}
		}
	}
	switch rec.StudentType {
	case models.StudentTypeFirstYear, models.StudentTypeTransfer, models.StudentTypeBoth:
	default:
		rec.StudentType = models.StudentTypeBoth
	}
	return rec
}
