// Package catalog holds the static list of institutions the system can
// resolve free-text mentions against. The catalog is loaded once at process
// start and never mutated; resolver and composer hold it by reference.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/campuslens/campuslens/internal/models"
	"gopkg.in/yaml.v3"
)

// Catalog is an immutable list of known institutions.
type Catalog struct {
	entries []models.CatalogEntry
}

// catalogFile is the on-disk shape of the catalog YAML file.
type catalogFile struct {
	Institutions []models.CatalogEntry `yaml:"institutions"`
}

// Load reads the catalog YAML file at path. Entries without a key or label
// are rejected; duplicate keys are rejected.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(file.Institutions)
}

// New builds a catalog from entries, validating keys and labels.
func New(entries []models.CatalogEntry) (*Catalog, error) {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Key == "" || e.Label == "" {
			return nil, fmt.Errorf("catalog entry missing key or label: %+v", e)
		}
		if seen[e.Key] {
			return nil, fmt.Errorf("duplicate catalog key: %s", e.Key)
		}
		seen[e.Key] = true
	}
	return &Catalog{entries: entries}, nil
}

// Entries returns a copy of the catalog entries.
func (c *Catalog) Entries() []models.CatalogEntry {
	return append([]models.CatalogEntry(nil), c.entries...)
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// LabelFor returns the display label for a key, or "" if unknown.
func (c *Catalog) LabelFor(key string) string {
	for i := range c.entries {
		if c.entries[i].Key == key {
			return c.entries[i].Label
		}
	}
	return ""
}

// Aliases returns every alias across all entries, in catalog order.
// The resolver scans messages for these short names.
func (c *Catalog) Aliases() []string {
	var out []string
	for i := range c.entries {
		out = append(out, c.entries[i].Aliases...)
	}
	return out
}

// Normalize lowercases, trims, and strips the common institutional affixes
// ("university of ", " university", " college") so that free-text mentions
// and stored labels compare on the distinctive part of the name.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimSuffix(n, "'s")
	n = strings.TrimPrefix(n, "the ")
	n = strings.TrimPrefix(n, "university of ")
	n = strings.TrimSuffix(n, " university")
	n = strings.TrimSuffix(n, " college")
	return strings.TrimSpace(n)
}

// Resolve maps a free-text institution name to a catalog entry, or nil when
// nothing matches. Absence is "no data available", never an error.
//
// Match order:
//  1. exact match on the normalized label, the key, or a normalized alias
//  2. substring containment either direction; when several entries contain
//     the candidate (e.g. "washington"), the longest normalized label wins
//     rather than catalog iteration order
//  3. a single-edit typo pass (Damerau-Levenshtein distance 1) on the
//     normalized label
func (c *Catalog) Resolve(name string) *models.CatalogEntry {
	n := Normalize(name)
	if n == "" {
		return nil
	}

	for i := range c.entries {
		e := &c.entries[i]
		if Normalize(e.Label) == n || e.Key == n {
			return e
		}
		for _, a := range e.Aliases {
			if Normalize(a) == n {
				return e
			}
		}
	}

	var best *models.CatalogEntry
	bestLen := -1
	for i := range c.entries {
		e := &c.entries[i]
		ln := Normalize(e.Label)
		if ln == "" {
			continue
		}
		if strings.Contains(ln, n) || strings.Contains(n, ln) {
			if len(ln) > bestLen {
				best = e
				bestLen = len(ln)
			}
		}
	}
	if best != nil {
		return best
	}

	for i := range c.entries {
		e := &c.entries[i]
		if DamerauLevenshteinDistance(Normalize(e.Label), n) <= 1 {
			return e
		}
	}
	return nil
}
