package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrMedicineNotFound  = errors.New("medicine not found")
	ErrInsufficientStock = errors.New("insufficient stock for sale")
)

// Repository persists stock movements. Record must apply the stock delta
// and insert the transaction row atomically: a sale that would drive the
// medicine's quantity negative fails with ErrInsufficientStock and leaves
// no trace.
type Repository interface {
	Record(ctx context.Context, tx *Transaction) error
	List(ctx context.Context, limit, offset int) ([]*Transaction, int, error)
	ListByMedicine(ctx context.Context, medicineID uuid.UUID, limit, offset int) ([]*Transaction, int, error)
}
