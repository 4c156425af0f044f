// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/campuslens/campuslens/internal/models"
)

// SQLiteStorage implements Storage using SQLite. Records are stored as JSON
// documents with the fields needed for lookups denormalized into columns.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS institutions (
		key TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS scholarships (
		id TEXT PRIMARY KEY,
		institution_key TEXT NOT NULL,
		college_name TEXT,
		name TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_scholarships_institution_key ON scholarships(institution_key);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertInstitution inserts or replaces an institution record keyed by rec.Key.
func (s *SQLiteStorage) UpsertInstitution(ctx context.Context, rec *models.InstitutionRecord) error {
	if rec.Key == "" {
		return fmt.Errorf("institution record missing key")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	now := time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO institutions (key, name, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET name = excluded.name, data = excluded.data, updated_at = excluded.updated_at`,
		rec.Key, rec.Name, string(data), now, now,
	)
	return err
}

// GetInstitution returns the institution record for key.
func (s *SQLiteStorage) GetInstitution(ctx context.Context, key string) (*models.InstitutionRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM institutions WHERE key = ?`, key,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("institution not found: %s", key)
	}
	if err != nil {
		return nil, err
	}
	return unmarshalInstitution(data)
}

// ListInstitutions returns every stored institution record. The fetcher's
// name matching is a scan over this list rather than an indexed query because
// free-text names rarely match stored keys exactly.
func (s *SQLiteStorage) ListInstitutions(ctx context.Context) ([]*models.InstitutionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM institutions ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.InstitutionRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := unmarshalInstitution(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteInstitution removes an institution record by key.
func (s *SQLiteStorage) DeleteInstitution(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM institutions WHERE key = ?`, key)
	return err
}

// UpsertScholarship inserts or replaces a scholarship record by ID.
func (s *SQLiteStorage) UpsertScholarship(ctx context.Context, rec *models.ScholarshipRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("scholarship record missing id")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	now := time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scholarships (id, institution_key, college_name, name, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET institution_key = excluded.institution_key,
			college_name = excluded.college_name, name = excluded.name,
			data = excluded.data, updated_at = excluded.updated_at`,
		rec.ID, rec.InstitutionKey, rec.CollegeName, rec.Name, string(data), now, now,
	)
	return err
}

// GetScholarship returns one scholarship record by ID.
func (s *SQLiteStorage) GetScholarship(ctx context.Context, id string) (*models.ScholarshipRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM scholarships WHERE id = ?`, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scholarship not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return unmarshalScholarship(data)
}

// ScholarshipsByInstitutionKey returns scholarships via the indexed equality
// lookup on institution_key. A zero-length result is not an error; callers
// fall back to name-based lookup.
func (s *SQLiteStorage) ScholarshipsByInstitutionKey(ctx context.Context, key string) ([]*models.ScholarshipRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM scholarships WHERE institution_key = ? ORDER BY name`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScholarships(rows)
}

// ListScholarships returns every stored scholarship record.
func (s *SQLiteStorage) ListScholarships(ctx context.Context) ([]*models.ScholarshipRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM scholarships ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScholarships(rows)
}

// CountInstitutions returns the total number of institution records.
func (s *SQLiteStorage) CountInstitutions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM institutions`).Scan(&count)
	return count, err
}

// CountScholarships returns the total number of scholarship records.
func (s *SQLiteStorage) CountScholarships(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scholarships`).Scan(&count)
	return count, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func scanScholarships(rows *sql.Rows) ([]*models.ScholarshipRecord, error) {
	var out []*models.ScholarshipRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := unmarshalScholarship(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func unmarshalInstitution(data string) (*models.InstitutionRecord, error) {
	var rec models.InstitutionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal institution record: %w", err)
	}
	return &rec, nil
}

func unmarshalScholarship(data string) (*models.ScholarshipRecord, error) {
	var rec models.ScholarshipRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scholarship record: %w", err)
	}
	return &rec, nil
}

// DiskUsageBytes returns the total size on disk of the given paths
// (files or directories). Missing paths contribute zero.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.Walk(p, func(_ string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() {
				total += fi.Size()
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
