package resolver

import (
	"reflect"
	"testing"

	"github.com/campuslens/campuslens/internal/catalog"
	"github.com/campuslens/campuslens/internal/models"
)

func testResolver(t *testing.T, maxCandidates int) *Resolver {
	t.Helper()
	c, err := catalog.New([]models.CatalogEntry{
		{Key: "yale", Label: "Yale University", Aliases: []string{"Yale"}},
		{Key: "brown", Label: "Brown University", Aliases: []string{"Brown"}},
		{Key: "harvard", Label: "Harvard University", Aliases: []string{"Harvard"}},
		{Key: "uw", Label: "University of Washington", Aliases: []string{"UW"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(c, maxCandidates)
}

func TestExtract(t *testing.T) {
	r := testResolver(t, 0)

	cases := []struct {
		name    string
		message string
		page    string
		want    []string
	}{
		{
			name:    "comparison with vs",
			message: "Compare Yale vs Brown tuition",
			want:    []string{"Yale", "Brown"},
		},
		{
			name:    "comparison with or",
			message: "Should I pick Yale or Brown?",
			want:    []string{"Yale", "Brown"},
		},
		{
			name:    "full name with possessive",
			message: "What is Harvard University's acceptance rate?",
			want:    []string{"Harvard University"},
		},
		{
			name:    "university of pattern",
			message: "Tell me about the University of Washington",
			want:    []string{"University of Washington"},
		},
		{
			name:    "alias only",
			message: "does yale have merit scholarships",
			want:    []string{"Yale"},
		},
		{
			name:    "no mention",
			message: "What does early decision mean?",
			want:    nil,
		},
		{
			name:    "page context fills in when nothing mentioned",
			message: "How much is tuition?",
			page:    "Brown University",
			want:    []string{"Brown University"},
		},
		{
			name:    "page context skipped when already mentioned",
			message: "What are Brown's scholarship deadlines?",
			page:    "Brown University",
			want:    []string{"Brown"},
		},
		{
			name:    "page context prepended before mentions",
			message: "How does it compare to Yale?",
			page:    "Brown University",
			want:    []string{"Brown University", "Yale"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Extract(tc.message, tc.page)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Extract(%q, %q) = %v, want %v", tc.message, tc.page, got, tc.want)
			}
		})
	}
}

func TestExtractDedupes(t *testing.T) {
	r := testResolver(t, 0)
	got := r.Extract("Yale! I love Yale. Is Yale University good?", "")
	// "Yale University" and "Yale" are distinct candidate strings; the raw
	// "Yale" mentions must collapse to one.
	count := 0
	for _, c := range got {
		if c == "Yale" {
			count++
		}
	}
	if count > 1 {
		t.Errorf("duplicate candidate survived: %v", got)
	}
}

func TestExtractCapsCandidates(t *testing.T) {
	r := testResolver(t, 2)
	got := r.Extract("Compare Yale vs Brown, and also Harvard University", "")
	if len(got) > 2 {
		t.Errorf("cap ignored: got %d candidates %v", len(got), got)
	}
}

func TestCleanCandidate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Compare Yale", "Yale"},
		{"Brown tuition", "Brown"},
		{"the University of Washington", "University of Washington"},
		{"Harvard University's", "Harvard University"},
		{"university", ""},
		{"college", ""},
		{"", ""},
		{"or", ""},
	}
	for _, tc := range cases {
		if got := cleanCandidate(tc.in); got != tc.want {
			t.Errorf("cleanCandidate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveDelegatesToCatalog(t *testing.T) {
	r := testResolver(t, 0)
	if got := r.Resolve("yale"); got == nil || got.Key != "yale" {
		t.Errorf("Resolve(yale) = %v", got)
	}
	if got := r.Resolve("Hogwarts"); got != nil {
		t.Errorf("Resolve(Hogwarts) = %v, want nil", got)
	}
}
