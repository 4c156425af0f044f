// Package cli provides terminal output and SSE stream consumption for the
// CampusLens command line.
package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/campuslens/campuslens/internal/render"
)

// StreamEvent is one server-sent chat event.
type StreamEvent struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Done    bool   `json:"done,omitempty"`
}

// ReadStream consumes an SSE chat response, invoking onContent for each
// fragment in order. It returns nil on the terminal done event, the server's
// error on an in-band error event, and io.ErrUnexpectedEOF if the stream
// ends without either.
func ReadStream(r io.Reader, onContent func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev StreamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue
		}
		switch {
		case ev.Error != "":
			return fmt.Errorf("%s", ev.Error)
		case ev.Done:
			return nil
		case ev.Content != "":
			onContent(ev.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}

// WriteBlocks renders parsed response blocks as terminal text.
func WriteBlocks(w io.Writer, blocks []render.Block) {
	for i, block := range blocks {
		if i > 0 {
			fmt.Fprintln(w)
		}
		switch block.Type {
		case render.BlockTable:
			writeTable(w, block)
		case render.BlockScholarship:
			writeScholarshipCard(w, block)
		default:
			fmt.Fprintln(w, block.Text)
		}
	}
}

func writeTable(w io.Writer, block render.Block) {
	widths := make([]int, len(block.Headers))
	for i, h := range block.Headers {
		widths[i] = len(h)
	}
	for _, row := range block.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	writeRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	writeRow(block.Headers)
	total := len(widths) - 1
	for _, width := range widths {
		total += width + 1
	}
	fmt.Fprintln(w, strings.Repeat("-", total))
	for _, row := range block.Rows {
		writeRow(row)
	}
}

func writeScholarshipCard(w io.Writer, block render.Block) {
	fmt.Fprintln(w, "─────────────────────────────────────────")
	for _, f := range block.Fields {
		fmt.Fprintf(w, "%s: %s\n", f.Label, f.Value)
	}
	if block.Link != "" {
		fmt.Fprintf(w, "More Info: %s\n", block.Link)
	}
	fmt.Fprintln(w, "─────────────────────────────────────────")
}

// WriteStatus prints the status endpoint payload as aligned key/value lines.
func WriteStatus(w io.Writer, status map[string]interface{}) {
	order := []string{
		"institutions", "scholarships", "indexed_scholarships",
		"catalog_size", "disk_usage_bytes",
	}
	for _, key := range order {
		if v, ok := status[key]; ok {
			fmt.Fprintf(w, "%-22s %v\n", key+":", v)
		}
	}
	if cfg, ok := status["config"].(map[string]interface{}); ok {
		fmt.Fprintln(w, "config:")
		for _, key := range []string{"model", "database_path", "index_path", "catalog_path"} {
			if v, ok := cfg[key]; ok {
				fmt.Fprintf(w, "  %-20s %v\n", key+":", v)
			}
		}
	}
}
