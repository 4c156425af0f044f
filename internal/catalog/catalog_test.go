package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/campuslens/campuslens/internal/models"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New([]models.CatalogEntry{
		{Key: "yale", Label: "Yale University", Aliases: []string{"Yale"}, City: "New Haven", State: "CT"},
		{Key: "brown", Label: "Brown University", Aliases: []string{"Brown"}, City: "Providence", State: "RI"},
		{Key: "uw", Label: "University of Washington", Aliases: []string{"UW", "UDub"}, City: "Seattle", State: "WA"},
		{Key: "wustl", Label: "Washington University in St. Louis", Aliases: []string{"WashU"}, City: "St. Louis", State: "MO"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Yale University", "yale"},
		{"yale", "yale"},
		{"The University of Washington", "washington"},
		{"Brown University's", "brown"},
		{"  Boston College ", "boston"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	c := testCatalog(t)

	cases := []struct {
		name    string
		in      string
		wantKey string
	}{
		{"exact label", "Yale University", "yale"},
		{"exact key", "brown", "brown"},
		{"alias", "UDub", "uw"},
		{"case insensitive", "YALE", "yale"},
		{"possessive", "Brown's", "brown"},
		{"substring candidate in label", "St. Louis", "wustl"},
		{"single edit typo", "Yele", "yale"},
		{"unknown", "Hogwarts", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Resolve(tc.in)
			if tc.wantKey == "" {
				if got != nil {
					t.Errorf("Resolve(%q) = %v, want nil", tc.in, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Resolve(%q) = nil, want key %q", tc.in, tc.wantKey)
			}
			if got.Key != tc.wantKey {
				t.Errorf("Resolve(%q).Key = %q, want %q", tc.in, got.Key, tc.wantKey)
			}
		})
	}
}

func TestResolveAmbiguousPrefersLongestLabel(t *testing.T) {
	c := testCatalog(t)
	// "washington univ" is contained in WashU's normalized label and contains
	// UW's; the longer label must win, not whichever comes first.
	got := c.Resolve("Washington Univ")
	if got == nil || got.Key != "wustl" {
		t.Fatalf("Resolve(washington) = %v, want wustl", got)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New([]models.CatalogEntry{{Key: "", Label: "X"}}); err == nil {
		t.Error("expected error for missing key")
	}
	if _, err := New([]models.CatalogEntry{{Key: "x", Label: ""}}); err == nil {
		t.Error("expected error for missing label")
	}
	if _, err := New([]models.CatalogEntry{
		{Key: "x", Label: "X"}, {Key: "x", Label: "X2"},
	}); err == nil {
		t.Error("expected error for duplicate key")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `institutions:
  - key: yale
    label: Yale University
    aliases: [Yale]
    city: New Haven
    state: CT
  - key: brown
    label: Brown University
    aliases: [Brown]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if c.LabelFor("yale") != "Yale University" {
		t.Errorf("LabelFor(yale) = %q", c.LabelFor("yale"))
	}
	if got := c.Aliases(); len(got) != 2 {
		t.Errorf("Aliases = %v, want 2 entries", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDamerauLevenshteinDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"yale", "yale", 0},
		{"yale", "yele", 1},
		{"yale", "ylae", 1},
		{"yale", "yal", 1},
		{"yale", "brown", 5},
		{"", "ab", 2},
	}
	for _, tc := range cases {
		if got := DamerauLevenshteinDistance(tc.a, tc.b); got != tc.want {
			t.Errorf("DamerauLevenshteinDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
