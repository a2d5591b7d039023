package inventory

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypePurchase = "purchase"
	TypeSale     = "sale"
)

// Transaction is a single stock movement against a medicine batch. A
// purchase adds stock, a sale removes it. The recorded quantity is always
// the positive number of units moved.
type Transaction struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	MedicineID uuid.UUID  `db:"medicine_id" json:"medicine_id"`
	Type       string     `db:"transaction_type" json:"transaction_type"`
	Quantity   int        `db:"quantity" json:"quantity"`
	UserID     *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
