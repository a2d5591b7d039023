package scanreport

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("scan report not found")

type Repository interface {
	Create(ctx context.Context, r *ScanReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*ScanReport, error)
	// UpdateDiagnosis moves a report to a terminal state.
	UpdateDiagnosis(ctx context.Context, id uuid.UUID, diagnosis string, confidence float64) error
	// List filters by case-insensitive patient name substring when
	// patientName is non-empty; an empty string means unfiltered.
	List(ctx context.Context, patientName string, limit, offset int) ([]*ScanReport, int, error)
	CountByDiagnosis(ctx context.Context, diagnosis string) (int, error)
	Count(ctx context.Context) (int, error)
	ListRecent(ctx context.Context, n int) ([]*ScanReport, error)
}
