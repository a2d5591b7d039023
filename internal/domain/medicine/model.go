package medicine

import (
	"time"

	"github.com/google/uuid"
)

// Medicine maps to the medicine table. A medicine row is one batch: several
// rows may share a name and differ by batch number. Quantity is owned by the
// inventory ledger and never changes through plain updates.
type Medicine struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	BatchNumber string    `db:"batch_number" json:"batch_number"`
	ExpiryDate  time.Time `db:"expiry_date" json:"expiry_date"`
	Quantity    int       `db:"quantity" json:"quantity"`
	Price       float64   `db:"price" json:"price"`
	Supplier    string    `db:"supplier" json:"supplier"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Alerts is the live low-stock / expired rollup served to all authenticated
// users.
type Alerts struct {
	LowStock []*Medicine `json:"low_stock"`
	Expired  []*Medicine `json:"expired"`
}
