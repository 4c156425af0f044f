// Package storage defines the persistence interface for institution and
// scholarship records. The chat pipeline only reads; writes come from the
// loader (the ingestion side).
package storage

import (
	"context"

	"github.com/campuslens/campuslens/internal/models"
)

// Storage defines record persistence operations.
type Storage interface {
	// Institution records
	UpsertInstitution(ctx context.Context, rec *models.InstitutionRecord) error
	GetInstitution(ctx context.Context, key string) (*models.InstitutionRecord, error)
	ListInstitutions(ctx context.Context) ([]*models.InstitutionRecord, error)
	DeleteInstitution(ctx context.Context, key string) error

	// Scholarship records
	UpsertScholarship(ctx context.Context, rec *models.ScholarshipRecord) error
	GetScholarship(ctx context.Context, id string) (*models.ScholarshipRecord, error)
	ScholarshipsByInstitutionKey(ctx context.Context, key string) ([]*models.ScholarshipRecord, error)
	ListScholarships(ctx context.Context) ([]*models.ScholarshipRecord, error)

	// Stats
	CountInstitutions(ctx context.Context) (int64, error)
	CountScholarships(ctx context.Context) (int64, error)

	Close() error
}
