package models

// CatalogEntry identifies one institution the system can resolve free-text
// mentions against. Key is the canonical identifier used for storage lookups;
// Label is the display name; Aliases are well-known short names ("Yale",
// "UMich"). The catalog is loaded once at startup and never mutated.
type CatalogEntry struct {
	Key     string   `yaml:"key" json:"key"`
	Label   string   `yaml:"label" json:"label"`
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	City    string   `yaml:"city,omitempty" json:"city,omitempty"`
	State   string   `yaml:"state,omitempty" json:"state,omitempty"`
}
