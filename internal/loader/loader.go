// Package loader imports institution and scholarship records into the store.
// It is the ingestion side of the system: the chat pipeline only ever reads
// what the loader wrote.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuslens/campuslens/internal/catalog"
	"github.com/campuslens/campuslens/internal/models"
	"github.com/campuslens/campuslens/internal/storage"
)

// Stats counts what one load pass imported.
type Stats struct {
	Institutions int
	Scholarships int
	Skipped      int
}

// Loader writes records into storage and keeps the scholarship index in sync.
type Loader struct {
	store   storage.Storage
	index   *storage.ScholarshipIndex // optional
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// New builds a loader. index may be nil.
func New(store storage.Storage, index *storage.ScholarshipIndex, cat *catalog.Catalog, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: store, index: index, catalog: cat, logger: logger}
}

// LoadPath imports a file or, for a directory, every supported file in it.
// Unsupported extensions are counted as skipped, not errors.
func (l *Loader) LoadPath(ctx context.Context, path string) (*Stats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	stats := &Stats{}
	if !info.IsDir() {
		return stats, l.loadFile(ctx, path, stats)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p := filepath.Join(path, entry.Name())
		if err := l.loadFile(ctx, p, stats); err != nil {
			l.logger.Warn("load failed, continuing", zap.String("path", p), zap.Error(err))
			stats.Skipped++
		}
	}
	return stats, nil
}

func (l *Loader) loadFile(ctx context.Context, path string, stats *Stats) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return l.loadJSONFile(ctx, path, stats)
	case ".xlsx":
		n, err := l.LoadScholarshipWorkbook(ctx, path)
		stats.Scholarships += n
		return err
	default:
		stats.Skipped++
		return nil
	}
}

// loadJSONFile sniffs whether the file holds institution or scholarship
// records. Scholarship records carry a college_name field; institution
// records never do.
func (l *Loader) loadJSONFile(ctx context.Context, path string, stats *Stats) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if isScholarshipJSON(data) {
		n, err := l.loadScholarshipJSON(ctx, data)
		stats.Scholarships += n
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	}

	n, err := l.loadInstitutionJSON(ctx, data)
	stats.Institutions += n
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func isScholarshipJSON(data []byte) bool {
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		var single map[string]json.RawMessage
		if err := json.Unmarshal(data, &single); err != nil {
			return false
		}
		probe = append(probe, single)
	}
	if len(probe) == 0 {
		return false
	}
	_, ok := probe[0]["college_name"]
	return ok
}

func (l *Loader) loadInstitutionJSON(ctx context.Context, data []byte) (int, error) {
	var records []*models.InstitutionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		var single models.InstitutionRecord
		if err := json.Unmarshal(data, &single); err != nil {
			return 0, fmt.Errorf("failed to parse institution records: %w", err)
		}
		records = append(records, &single)
	}

	count := 0
	for _, rec := range records {
		if rec.Key == "" || rec.Name == "" {
			return count, fmt.Errorf("institution record missing key or name")
		}
		if err := l.store.UpsertInstitution(ctx, rec); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (l *Loader) loadScholarshipJSON(ctx context.Context, data []byte) (int, error) {
	var records []*models.ScholarshipRecord
	if err := json.Unmarshal(data, &records); err != nil {
		var single models.ScholarshipRecord
		if err := json.Unmarshal(data, &single); err != nil {
			return 0, fmt.Errorf("failed to parse scholarship records: %w", err)
		}
		records = append(records, &single)
	}

	count := 0
	for _, rec := range records {
		if err := l.storeScholarship(ctx, rec); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// storeScholarship fills in generated fields, persists the record, and
// indexes it. A missing institution key is resolved through the catalog from
// the denormalized college name; an unresolvable key is stored anyway and
// only reachable via the name fallback.
func (l *Loader) storeScholarship(ctx context.Context, rec *models.ScholarshipRecord) error {
	if rec.Name == "" {
		return fmt.Errorf("scholarship record missing name")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.InstitutionKey == "" && rec.CollegeName != "" {
		if entry := l.catalog.Resolve(rec.CollegeName); entry != nil {
			rec.InstitutionKey = entry.Key
		}
	}
	if rec.InstitutionKey != "" && l.catalog.LabelFor(rec.InstitutionKey) == "" {
		l.logger.Debug("scholarship institution key not in catalog",
			zap.String("id", rec.ID), zap.String("key", rec.InstitutionKey))
	}
	if rec.StudentType == "" {
		rec.StudentType = models.StudentTypeBoth
	}

	if err := l.store.UpsertScholarship(ctx, rec); err != nil {
		return err
	}
	if l.index != nil {
		if err := l.index.Index(ctx, rec); err != nil {
			l.logger.Warn("scholarship indexing failed", zap.String("id", rec.ID), zap.Error(err))
		}
	}
	return nil
}
