package cli

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/campuslens/campuslens/internal/render"
)

func TestReadStream(t *testing.T) {
	input := strings.Join([]string{
		"data: {\"content\":\"Yale \"}",
		"",
		"data: {\"content\":\"admits few.\"}",
		"",
		"data: {\"done\":true}",
		"",
	}, "\n")

	var got strings.Builder
	err := ReadStream(strings.NewReader(input), func(s string) {
		got.WriteString(s)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "Yale admits few." {
		t.Errorf("content = %q", got.String())
	}
}

func TestReadStreamError(t *testing.T) {
	input := "data: {\"content\":\"partial\"}\n\ndata: {\"error\":\"model stream interrupted\"}\n\n"
	err := ReadStream(strings.NewReader(input), func(string) {})
	if err == nil || err.Error() != "model stream interrupted" {
		t.Errorf("err = %v", err)
	}
}

func TestReadStreamTruncated(t *testing.T) {
	input := "data: {\"content\":\"partial\"}\n\n"
	err := ReadStream(strings.NewReader(input), func(string) {})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want unexpected EOF", err)
	}
}

func TestReadStreamIgnoresNonDataLines(t *testing.T) {
	input := ": keepalive\nevent: message\ndata: not-json\ndata: {\"done\":true}\n"
	if err := ReadStream(strings.NewReader(input), func(string) {}); err != nil {
		t.Errorf("err = %v", err)
	}
}

func TestWriteBlocksTable(t *testing.T) {
	var buf strings.Builder
	WriteBlocks(&buf, []render.Block{{
		Type:    render.BlockTable,
		Headers: []string{"College", "Tuition"},
		Rows: [][]string{
			{"Yale University", "$64,700"},
			{"Brown", "$65,000"},
		},
	}})

	want := strings.Join([]string{
		"College          Tuition",
		"-------------------------",
		"Yale University  $64,700",
		"Brown            $65,000",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("table output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteBlocksScholarshipCard(t *testing.T) {
	var buf strings.Builder
	WriteBlocks(&buf, []render.Block{{
		Type: render.BlockScholarship,
		Fields: []render.Field{
			{Label: "Name", Value: "Merit Award"},
			{Label: "Amount", Value: "$10,000"},
		},
		Link: "https://yale.edu/aid",
	}})

	out := buf.String()
	for _, line := range []string{
		"Name: Merit Award",
		"Amount: $10,000",
		"More Info: https://yale.edu/aid",
	} {
		if !strings.Contains(out, line) {
			t.Errorf("missing %q in:\n%s", line, out)
		}
	}
	if strings.Count(out, "─") == 0 {
		t.Error("card rules missing")
	}
}

func TestWriteBlocksProseSeparation(t *testing.T) {
	var buf strings.Builder
	WriteBlocks(&buf, []render.Block{
		{Type: render.BlockProse, Text: "First."},
		{Type: render.BlockProse, Text: "Second."},
	})
	if buf.String() != "First.\n\nSecond.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteStatus(t *testing.T) {
	var buf strings.Builder
	WriteStatus(&buf, map[string]interface{}{
		"institutions": float64(12),
		"scholarships": float64(40),
		"catalog_size": float64(30),
		"config": map[string]interface{}{
			"model":         "gemini-2.0-flash",
			"database_path": "/tmp/records.db",
		},
	})

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "institutions:") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.Contains(out, "model:") || !strings.Contains(out, "gemini-2.0-flash") {
		t.Errorf("config section missing:\n%s", out)
	}
}
