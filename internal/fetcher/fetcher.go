// Package fetcher retrieves stored records for resolved institution mentions.
// Lookup misses are explicit absences, never errors: the composer renders a
// disclaimer for institutions with no data.
package fetcher

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/campuslens/campuslens/internal/catalog"
	"github.com/campuslens/campuslens/internal/models"
	"github.com/campuslens/campuslens/internal/storage"
)

// scholarshipTerms trigger the scholarship fetch when any appears in the
// user's message (case-insensitive).
var scholarshipTerms = []string{
	"scholarship", "scholarships", "financial aid", "grant", "grants",
	"merit aid", "merit-based", "need-based", "fafsa", "work-study",
	"tuition assistance", "afford", "affordability",
}

// WantsScholarships reports whether message asks about financial aid.
func WantsScholarships(message string) bool {
	m := strings.ToLower(message)
	for _, term := range scholarshipTerms {
		if strings.Contains(m, term) {
			return true
		}
	}
	return false
}

// Result maps institution display names to their fetched records. A candidate
// with no stored record appears in Unmatched instead of Institutions. When
// scholarships were requested, every matched institution has a Scholarships
// entry, possibly an empty list.
type Result struct {
	Institutions map[string]*models.InstitutionRecord
	Scholarships map[string][]*models.ScholarshipRecord
	// Order holds display names in candidate order, matched or not, so the
	// composer emits digest blocks deterministically.
	Order     []string
	Unmatched []string
}

// Fetcher looks up institution and scholarship records for resolved candidates.
type Fetcher struct {
	store   storage.Storage
	index   *storage.ScholarshipIndex // optional; nil disables the Bleve fallback
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// New builds a fetcher. index may be nil, in which case the scholarship name
// fallback degrades to a linear scan only.
func New(store storage.Storage, index *storage.ScholarshipIndex, cat *catalog.Catalog, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{store: store, index: index, catalog: cat, logger: logger}
}

// Fetch retrieves records for up to the resolver's candidate cap. Storage
// errors are logged and treated as misses so the chat degrades gracefully
// instead of failing.
func (f *Fetcher) Fetch(ctx context.Context, candidates []string, wantScholarships bool) *Result {
	result := &Result{
		Institutions: make(map[string]*models.InstitutionRecord),
		Scholarships: make(map[string][]*models.ScholarshipRecord),
	}

	all, err := f.store.ListInstitutions(ctx)
	if err != nil {
		f.logger.Warn("institution list failed", zap.Error(err))
	}

	for _, candidate := range candidates {
		rec := matchInstitution(all, candidate)
		display := f.displayName(candidate, rec)
		result.Order = append(result.Order, display)
		if rec == nil {
			result.Unmatched = append(result.Unmatched, display)
		} else {
			result.Institutions[display] = rec
		}

		if wantScholarships {
			result.Scholarships[display] = f.fetchScholarships(ctx, candidate, rec)
		}
	}
	return result
}

// displayName picks the name the prompt and response refer to the institution
// by: the stored record's name, else the catalog label, else the raw mention.
func (f *Fetcher) displayName(candidate string, rec *models.InstitutionRecord) string {
	if rec != nil && rec.Name != "" {
		return rec.Name
	}
	if entry := f.catalog.Resolve(candidate); entry != nil {
		return entry.Label
	}
	return candidate
}

// matchInstitution applies the resolver's normalize-and-substring rule over
// the full record list. Exact normalized match wins; otherwise the longest
// containing name wins.
func matchInstitution(all []*models.InstitutionRecord, candidate string) *models.InstitutionRecord {
	n := catalog.Normalize(candidate)
	if n == "" {
		return nil
	}

	var best *models.InstitutionRecord
	bestLen := -1
	for _, rec := range all {
		rn := catalog.Normalize(rec.Name)
		if rn == "" {
			continue
		}
		if rn == n {
			return rec
		}
		if strings.Contains(rn, n) || strings.Contains(n, rn) {
			if len(rn) > bestLen {
				best = rec
				bestLen = len(rn)
			}
		}
	}
	return best
}

// fetchScholarships tries the indexed key lookup first, then the Bleve match
// on the denormalized college name, then a linear scan. Every failure or miss
// falls through to the next step; the final result may be empty.
func (f *Fetcher) fetchScholarships(ctx context.Context, candidate string, rec *models.InstitutionRecord) []*models.ScholarshipRecord {
	key := ""
	if entry := f.catalog.Resolve(candidate); entry != nil {
		key = entry.Key
	} else if rec != nil {
		key = rec.Key
	}

	if key != "" {
		recs, err := f.store.ScholarshipsByInstitutionKey(ctx, key)
		if err != nil {
			f.logger.Warn("scholarship key lookup failed", zap.String("key", key), zap.Error(err))
		} else if len(recs) > 0 {
			return recs
		}
	}

	name := candidate
	if rec != nil && rec.Name != "" {
		name = rec.Name
	}

	if f.index != nil {
		ids, err := f.index.SearchByCollegeName(ctx, name, 50)
		if err != nil {
			f.logger.Warn("scholarship name search failed", zap.String("name", name), zap.Error(err))
		} else if len(ids) > 0 {
			var out []*models.ScholarshipRecord
			for _, id := range ids {
				s, err := f.store.GetScholarship(ctx, id)
				if err != nil {
					f.logger.Debug("scholarship fetch by id failed", zap.String("id", id), zap.Error(err))
					continue
				}
				out = append(out, s)
			}
			if len(out) > 0 {
				return out
			}
		}
	}

	all, err := f.store.ListScholarships(ctx)
	if err != nil {
		f.logger.Warn("scholarship list failed", zap.Error(err))
		return nil
	}
	n := catalog.Normalize(name)
	var out []*models.ScholarshipRecord
	for _, s := range all {
		sn := catalog.Normalize(s.CollegeName)
		if sn == "" {
			continue
		}
		if strings.Contains(sn, n) || strings.Contains(n, sn) {
			out = append(out, s)
		}
	}
	return out
}
