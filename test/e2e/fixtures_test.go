// Package e2e exercises the full pipeline: data loading, resolution, prompt
// composition, streaming, and response rendering against a scripted model.
package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/campuslens/campuslens/internal/llm"
)

const catalogYAML = `institutions:
  - key: yale
    label: Yale University
    aliases: [Yale]
    city: New Haven
    state: CT
  - key: brown
    label: Brown University
    aliases: [Brown]
    city: Providence
    state: RI
`

const institutionsJSON = `[
  {
    "key": "yale",
    "name": "Yale University",
    "general": {"city": "New Haven", "state": "CT", "control": "private"},
    "admissions": {"total_applied": 50000, "total_admitted": 2275, "total_enrolled": 1550},
    "costs": {"tuition_out_of_state": 64700}
  },
  {
    "key": "brown",
    "name": "Brown University",
    "general": {"city": "Providence", "state": "RI", "control": "private"},
    "admissions": {"total_applied": 48000, "total_admitted": 2500},
    "costs": {"tuition_out_of_state": 65000}
  }
]`

func writeCatalog(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(catalogYAML), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeInstitutions(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "institutions.json")
	if err := os.WriteFile(path, []byte(institutionsJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeScholarshipWorkbook(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "scholarships.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"College", "Scholarship", "Amount", "Deadline", "Eligibility", "Student Type", "URL"},
		{"Yale University", "Merit Award", "$10,000", "January 15", "3.8 GPA; strong essays", "first-year", "https://yale.edu/aid"},
		{"Yale University", "Need Grant", "Full need", "Rolling", "", "both", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	return path
}

// scriptedModel replays fixed fragments and records what it was asked.
type scriptedModel struct {
	fragments []string
	history   []llm.Turn
	message   string
}

func (m *scriptedModel) StreamChat(ctx context.Context, history []llm.Turn, message string) (<-chan string, <-chan error) {
	m.history = history
	m.message = message
	contentChan := make(chan string)
	errChan := make(chan error, 1)
	go func() {
		defer close(contentChan)
		for _, frag := range m.fragments {
			select {
			case contentChan <- frag:
			case <-ctx.Done():
				return
			}
		}
	}()
	return contentChan, errChan
}
