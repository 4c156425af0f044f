// Package render re-parses the accumulated model response into structured
// blocks: prose, pipe-delimited tables, and scholarship cards. Parsing runs
// from scratch on every incremental update and never fails; malformed input
// degrades to prose.
package render

import (
	"regexp"
	"strings"

	"github.com/campuslens/campuslens/pkg/utils"
)

// BlockType discriminates the Block variants.
type BlockType string

const (
	BlockProse       BlockType = "prose"
	BlockTable       BlockType = "table"
	BlockScholarship BlockType = "scholarship"
)

// Block is one rendered unit of the response. Exactly the fields for its
// Type are populated.
type Block struct {
	Type BlockType

	// Prose
	Text         string
	Preformatted bool

	// Table
	Headers []string
	Rows    [][]string

	// ScholarshipCard
	Fields []Field
	Link   string
}

// Field is one labeled value on a scholarship card, in source order.
type Field struct {
	Label string
	Value string
}

var (
	// fieldRe matches the fixed label set used on scholarship cards.
	fieldRe = regexp.MustCompile(`(?i)^\s*(SCHOLARSHIP|Name|Amount|Deadline|Eligibility|Type|For|More Info|Website|Link|Details)\s*:\s*(.*)$`)
	// delimiterRe matches a segment delimiter line.
	delimiterRe = regexp.MustCompile(`^\s*---+\s*$`)
	// anchorRe locates card starts when the model forgot the delimiters.
	anchorRe = regexp.MustCompile(`(?i)^\s*SCHOLARSHIP\s*:`)
	// separatorRowRe matches markdown table separator rows (|---|:---:|).
	separatorRowRe = regexp.MustCompile(`^[\s|:-]+$`)
)

// linkLabels are card labels hoisted into Block.Link instead of Fields.
var linkLabels = map[string]bool{
	"more info": true,
	"website":   true,
	"link":      true,
}

// Segment parses the full response text into ordered blocks. It is safe to
// call on a partial response; plain prose round-trips unchanged.
func Segment(text string) []Block {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var blocks []Block
	for _, seg := range splitSegments(text) {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		if isScholarshipSegment(seg) {
			blocks = append(blocks, parseScholarshipCard(seg))
		} else {
			blocks = append(blocks, parseProseSegment(seg)...)
		}
	}
	return blocks
}

// splitSegments cuts the text on delimiter lines. When no delimiter is
// present anywhere, it falls back to scanning for scholarship anchor lines
// so undelimited cards still render.
func splitSegments(text string) []string {
	lines := strings.Split(text, "\n")

	hasDelimiter := false
	for _, line := range lines {
		if delimiterRe.MatchString(line) {
			hasDelimiter = true
			break
		}
	}

	if hasDelimiter {
		var segments []string
		var cur []string
		for _, line := range lines {
			if delimiterRe.MatchString(line) {
				segments = append(segments, strings.Join(cur, "\n"))
				cur = cur[:0]
				continue
			}
			cur = append(cur, line)
		}
		segments = append(segments, strings.Join(cur, "\n"))
		return segments
	}

	return splitOnAnchors(lines)
}

// splitOnAnchors segments undelimited text: each SCHOLARSHIP: line starts a
// card run that extends through its field lines, everything else is prose.
func splitOnAnchors(lines []string) []string {
	var segments []string
	var cur []string
	i := 0
	for i < len(lines) {
		line := lines[i]
		if !anchorRe.MatchString(line) {
			cur = append(cur, line)
			i++
			continue
		}
		if len(cur) > 0 {
			segments = append(segments, strings.Join(cur, "\n"))
			cur = cur[:0]
		}
		card := []string{line}
		i++
		for i < len(lines) {
			next := lines[i]
			if anchorRe.MatchString(next) {
				break
			}
			if fieldRe.MatchString(next) {
				card = append(card, next)
				i++
				continue
			}
			// A blank line continues the card only when a field line follows.
			if strings.TrimSpace(next) == "" && i+1 < len(lines) &&
				fieldRe.MatchString(lines[i+1]) && !anchorRe.MatchString(lines[i+1]) {
				i++
				continue
			}
			break
		}
		segments = append(segments, strings.Join(card, "\n"))
	}
	if len(cur) > 0 {
		segments = append(segments, strings.Join(cur, "\n"))
	}
	return segments
}

// isScholarshipSegment reports whether a segment should render as a card.
func isScholarshipSegment(seg string) bool {
	if strings.Contains(seg, "SCHOLARSHIP:") {
		return true
	}
	return strings.Contains(seg, "Amount:") &&
		(strings.Contains(seg, "Deadline:") || strings.Contains(seg, "Eligibility:"))
}

// parseScholarshipCard extracts labeled fields in source order. Lines that
// match no label are appended to the previous field's value, so wrapped
// eligibility lists survive.
func parseScholarshipCard(seg string) Block {
	block := Block{Type: BlockScholarship}
	for _, line := range strings.Split(seg, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := fieldRe.FindStringSubmatch(line)
		if m == nil {
			if n := len(block.Fields); n > 0 {
				block.Fields[n-1].Value = strings.TrimSpace(
					block.Fields[n-1].Value + " " + utils.StripEmphasis(strings.TrimSpace(line)))
			}
			continue
		}
		label := canonicalLabel(m[1])
		value := utils.StripEmphasis(strings.TrimSpace(m[2]))
		if linkLabels[strings.ToLower(label)] {
			if block.Link == "" {
				block.Link = value
			}
			continue
		}
		block.Fields = append(block.Fields, Field{Label: label, Value: value})
	}
	return block
}

// canonicalLabel normalizes label casing; SCHOLARSHIP is the card title and
// renders as Name.
func canonicalLabel(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "scholarship", "name":
		return "Name"
	case "amount":
		return "Amount"
	case "deadline":
		return "Deadline"
	case "eligibility":
		return "Eligibility"
	case "type":
		return "Type"
	case "for":
		return "For"
	case "details":
		return "Details"
	case "more info":
		return "More Info"
	case "website":
		return "Website"
	default:
		return "Link"
	}
}

// parseProseSegment walks a non-scholarship segment, lifting consecutive
// pipe-containing lines into tables and collecting the rest as prose.
func parseProseSegment(seg string) []Block {
	var blocks []Block
	lines := strings.Split(seg, "\n")

	var prose []string
	flushProse := func() {
		text := strings.TrimSpace(strings.Join(prose, "\n"))
		prose = prose[:0]
		if text != "" {
			blocks = append(blocks, Block{Type: BlockProse, Text: text})
		}
	}

	i := 0
	for i < len(lines) {
		if !strings.Contains(lines[i], "|") {
			prose = append(prose, lines[i])
			i++
			continue
		}
		j := i
		for j < len(lines) && strings.Contains(lines[j], "|") {
			j++
		}
		run := lines[i:j]
		flushProse()
		blocks = append(blocks, parseTable(run))
		i = j
	}
	flushProse()
	return blocks
}

// parseTable converts a run of pipe lines into a table block. The first
// non-separator line is the header; rows with a different column count, or a
// run too short to hold a header and a data row, degrade to preformatted
// prose so nothing is dropped.
func parseTable(run []string) Block {
	var headers []string
	var rows [][]string
	for _, line := range run {
		if separatorRowRe.MatchString(line) {
			continue
		}
		cells := parseRow(line)
		if len(cells) == 0 {
			continue
		}
		if headers == nil {
			headers = cells
			continue
		}
		if len(cells) != len(headers) {
			return preformatted(run)
		}
		rows = append(rows, cells)
	}
	if len(headers) == 0 || len(rows) == 0 {
		return preformatted(run)
	}
	return Block{Type: BlockTable, Headers: headers, Rows: rows}
}

func preformatted(run []string) Block {
	return Block{
		Type:         BlockProse,
		Text:         strings.TrimSpace(strings.Join(run, "\n")),
		Preformatted: true,
	}
}

// parseRow splits a pipe line into trimmed cells, dropping the empty edge
// cells produced by leading and trailing pipes.
func parseRow(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, utils.StripEmphasis(strings.TrimSpace(p)))
	}
	return cells
}
