// Package resolver extracts candidate institution names from free-form chat
// text and resolves them against the catalog. Extraction is heuristic and
// best-effort: it must never fail, only return fewer candidates.
package resolver

import (
	"regexp"
	"strings"

	"github.com/campuslens/campuslens/internal/catalog"
	"github.com/campuslens/campuslens/internal/models"
)

// DefaultMaxCandidates caps how many candidates one message can produce,
// which in turn caps downstream record-fetch cost.
const DefaultMaxCandidates = 3

var (
	// "University of X [Y]" (optionally possessive).
	uniOfRe = regexp.MustCompile(`(?i)\buniversity of [a-z][a-z'&.-]*(?:\s+[a-z][a-z'&.-]*)?`)
	// "X [Y] University" / "X [Y] College" (optionally possessive).
	xUniRe = regexp.MustCompile(`(?i)\b[a-z][a-z'&.-]*(?:\s+[a-z][a-z'&.-]*)?\s+(?:university|college)\b`)
	// "A vs B" / "A versus B" / "A or B" separators.
	comparisonRe = regexp.MustCompile(`(?i)(?:^|\s)(vs\.?|versus|or)(?:\s|$)`)
)

// leadingStopwords are filler words stripped from the front of a captured
// candidate (sentence openers that precede the actual name).
var leadingStopwords = map[string]bool{
	"compare": true, "comparing": true, "between": true, "either": true,
	"about": true, "consider": true, "choose": true, "pick": true,
	"how": true, "what": true, "whats": true, "is": true, "are": true,
	"does": true, "do": true, "should": true, "would": true, "tell": true,
	"me": true, "i": true, "we": true, "the": true, "a": true, "an": true,
	"at": true, "to": true, "into": true, "vs": true, "versus": true, "or": true,
	"and": true, "also": true, "like": true, "than": true,
}

// trailingTopicWords are subject words stripped from the end of a captured
// candidate ("Brown tuition" names Brown, not a college called Brown Tuition).
var trailingTopicWords = map[string]bool{
	"tuition": true, "cost": true, "costs": true, "fees": true, "fee": true,
	"admission": true, "admissions": true, "scholarship": true, "scholarships": true,
	"aid": true, "enrollment": true, "acceptance": true, "rate": true, "rates": true,
	"data": true, "stats": true, "statistics": true, "info": true,
	"ranking": true, "rankings": true, "sat": true, "act": true,
	"deadline": true, "deadlines": true, "campus": true, "housing": true,
}

// Resolver extracts institution mentions and resolves them to catalog entries.
type Resolver struct {
	catalog       *catalog.Catalog
	aliasPatterns []*regexp.Regexp
	aliasNames    []string
	maxCandidates int
}

// New builds a resolver over the given catalog. maxCandidates <= 0 uses
// DefaultMaxCandidates.
func New(c *catalog.Catalog, maxCandidates int) *Resolver {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	r := &Resolver{catalog: c, maxCandidates: maxCandidates}
	for _, alias := range c.Aliases() {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(alias) + `\b`)
		if err != nil {
			continue
		}
		r.aliasPatterns = append(r.aliasPatterns, re)
		r.aliasNames = append(r.aliasNames, alias)
	}
	return r
}

// Extract returns the ordered, deduplicated (case-insensitive) list of
// candidate institution names mentioned in message, capped at the configured
// maximum. pageCollege, when non-empty, is the institution of the page the
// user is viewing; it is prepended unless already represented among the
// candidates.
func (r *Resolver) Extract(message, pageCollege string) []string {
	var candidates []string

	for _, m := range uniOfRe.FindAllString(message, -1) {
		if c := cleanCandidate(m); c != "" {
			candidates = append(candidates, c)
		}
	}
	for _, m := range xUniRe.FindAllString(message, -1) {
		if c := cleanCandidate(m); c != "" {
			candidates = append(candidates, c)
		}
	}
	candidates = append(candidates, comparisonCandidates(message)...)

	for i, re := range r.aliasPatterns {
		if re.MatchString(message) {
			candidates = append(candidates, r.aliasNames[i])
		}
	}

	candidates = dedupe(candidates)

	if pageCollege != "" && !represented(candidates, pageCollege) {
		candidates = append([]string{pageCollege}, candidates...)
		candidates = dedupe(candidates)
	}

	candidates = r.dedupeByEntry(candidates)

	if len(candidates) > r.maxCandidates {
		candidates = candidates[:r.maxCandidates]
	}
	return candidates
}

// Resolve maps a candidate name to a catalog entry, or nil when unknown.
func (r *Resolver) Resolve(name string) *models.CatalogEntry {
	return r.catalog.Resolve(name)
}

// comparisonCandidates handles "A vs B" / "A versus B" / "A or B": the name
// runs on each side of the separator become candidates.
func comparisonCandidates(message string) []string {
	m := comparisonRe.FindStringSubmatchIndex(message)
	if m == nil {
		return nil
	}
	left := cleanCandidate(tailWords(message[:m[2]], 3))
	right := cleanCandidate(headWords(message[m[3]:], 3))
	var out []string
	if left != "" {
		out = append(out, left)
	}
	if right != "" {
		out = append(out, right)
	}
	return out
}

// tailWords returns the last n whitespace-separated words of s.
func tailWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}

// headWords returns the first n words of s, stopping early at sentence
// punctuation so "Brown? Also..." yields just "Brown".
func headWords(s string, n int) string {
	var out []string
	for _, w := range strings.Fields(s) {
		trimmed := strings.TrimRight(w, ".,!?;:")
		if trimmed != "" {
			out = append(out, trimmed)
		}
		if trimmed != w || len(out) >= n {
			break
		}
	}
	return strings.Join(out, " ")
}

// cleanCandidate trims punctuation, possessives, leading filler words, and
// trailing topic words from a captured span. Returns "" when nothing
// name-like remains.
func cleanCandidate(s string) string {
	s = strings.Trim(s, " \t.,!?;:\"'")
	s = strings.TrimSuffix(s, "'s")
	words := strings.Fields(s)

	for len(words) > 0 && leadingStopwords[strings.ToLower(words[0])] {
		words = words[1:]
	}
	for len(words) > 0 && trailingTopicWords[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	if len(words) == 0 {
		return ""
	}

	out := strings.Join(words, " ")
	out = strings.TrimSuffix(out, "'s")
	// A bare generic noun is not a name.
	switch strings.ToLower(out) {
	case "university", "college":
		return ""
	}
	if len(out) < 2 {
		return ""
	}
	return out
}

// dedupe removes case-insensitive duplicates preserving first-seen order.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		k := strings.ToLower(n)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	return out
}

// dedupeByEntry collapses candidates that resolve to the same catalog entry
// ("Harvard University" and "Harvard" are one institution, not two),
// preserving first-seen order. Unresolvable candidates are kept as-is.
func (r *Resolver) dedupeByEntry(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if entry := r.catalog.Resolve(n); entry != nil {
			if seen[entry.Key] {
				continue
			}
			seen[entry.Key] = true
		}
		out = append(out, n)
	}
	return out
}

// represented reports whether pageCollege is already covered by a candidate,
// using a prefix-overlap heuristic on the first word of each name.
func represented(candidates []string, pageCollege string) bool {
	pc := strings.ToLower(firstWord(pageCollege))
	if pc == "" {
		return false
	}
	for _, c := range candidates {
		cf := strings.ToLower(firstWord(c))
		if cf == "" {
			continue
		}
		if strings.HasPrefix(cf, pc) || strings.HasPrefix(pc, cf) {
			return true
		}
	}
	return false
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
