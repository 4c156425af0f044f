package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/campuslens/campuslens/internal/models"
)

// scholarshipDoc is the shape indexed into Bleve: just the fields the
// name-based fallback lookup matches on.
type scholarshipDoc struct {
	InstitutionKey string `json:"institution_key"`
	CollegeName    string `json:"college_name"`
	Name           string `json:"name"`
}

// ScholarshipIndex is a Bleve index over scholarship college names, used as
// the fallback lookup when the indexed key lookup returns nothing (e.g. a
// record whose institution key does not match any catalog key).
type ScholarshipIndex struct {
	index bleve.Index
}

// NewScholarshipIndex creates or opens a Bleve index at path.
// If the path already exists, the existing index is opened and reused.
// If you change the index mapping in code, remove the index directory to
// force a full re-index.
func NewScholarshipIndex(path string) (*ScholarshipIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so a query for
	// "Brown" matches the stored token exactly.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("college_name", textFieldMapping)
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("institution_key", keywordFieldMapping)
	im.AddDocumentMapping("scholarship", docMapping)
	im.DefaultType = "scholarship"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open scholarship index: %w", openErr)
		}
		return &ScholarshipIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create scholarship index: %w", err)
	}
	return &ScholarshipIndex{index: index}, nil
}

// Index indexes a scholarship record by its ID.
func (b *ScholarshipIndex) Index(ctx context.Context, rec *models.ScholarshipRecord) error {
	return b.index.Index(rec.ID, scholarshipDoc{
		InstitutionKey: rec.InstitutionKey,
		CollegeName:    rec.CollegeName,
		Name:           rec.Name,
	})
}

// SearchByCollegeName runs a match query over the denormalized college-name
// field and returns the IDs of up to limit matching scholarship records.
// Zero hits is not an error.
func (b *ScholarshipIndex) SearchByCollegeName(ctx context.Context, name string, limit int) ([]string, error) {
	q := bleve.NewMatchQuery(name)
	q.SetField("college_name")
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("scholarship index search failed: %w", err)
	}
	out := make([]string, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = hit.ID
	}
	return out, nil
}

// Delete removes a scholarship from the index by ID.
func (b *ScholarshipIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the number of indexed scholarships.
func (b *ScholarshipIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the index.
func (b *ScholarshipIndex) Close() error {
	return b.index.Close()
}
