package medicine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("medicine not found")

type Repository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	// Update modifies catalog fields only; quantity is owned by the
	// inventory ledger and left untouched.
	Update(ctx context.Context, m *Medicine) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Medicine, int, error)

	Count(ctx context.Context) (int, error)
	// ListBelowQuantity returns medicines with quantity strictly below the
	// threshold; ListAtOrBelowQuantity is inclusive.
	ListBelowQuantity(ctx context.Context, threshold int) ([]*Medicine, error)
	ListAtOrBelowQuantity(ctx context.Context, threshold int) ([]*Medicine, error)
	ListExpiredBefore(ctx context.Context, day time.Time) ([]*Medicine, error)
	// ListExpiringBetween is inclusive at both ends.
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*Medicine, error)
}
