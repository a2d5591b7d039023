package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulmoscan/pulmoscan/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Record applies the stock delta and writes the transaction row in one
// database transaction. Sales use a conditional UPDATE so concurrent
// requests cannot drive the quantity below zero.
func (r *repoPG) Record(ctx context.Context, t *Transaction) error {
	return db.WithTx(ctx, r.pool, func(txCtx context.Context) error {
		conn := r.conn(txCtx)

		var tag pgconn.CommandTag
		var err error
		switch t.Type {
		case TypeSale:
			tag, err = conn.Exec(txCtx, `
				UPDATE medicine SET quantity = quantity - $2, updated_at = NOW()
				WHERE id = $1 AND quantity >= $2`, t.MedicineID, t.Quantity)
		default:
			tag, err = conn.Exec(txCtx, `
				UPDATE medicine SET quantity = quantity + $2, updated_at = NOW()
				WHERE id = $1`, t.MedicineID, t.Quantity)
		}
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := conn.QueryRow(txCtx,
				`SELECT EXISTS (SELECT 1 FROM medicine WHERE id = $1)`, t.MedicineID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrMedicineNotFound
			}
			return ErrInsufficientStock
		}

		t.ID = uuid.New()
		return conn.QueryRow(txCtx, `
			INSERT INTO inventory_transaction (id, medicine_id, transaction_type, quantity, user_id)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING created_at`,
			t.ID, t.MedicineID, t.Type, t.Quantity, t.UserID).Scan(&t.CreatedAt)
	})
}

const txCols = `id, medicine_id, transaction_type, quantity, user_id, created_at`

func collectTransactions(rows pgx.Rows) ([]*Transaction, error) {
	defer rows.Close()
	var items []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.MedicineID, &t.Type, &t.Quantity, &t.UserID, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &t)
	}
	return items, rows.Err()
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Transaction, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM inventory_transaction`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+txCols+` FROM inventory_transaction ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectTransactions(rows)
	return items, total, err
}

func (r *repoPG) ListByMedicine(ctx context.Context, medicineID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_transaction WHERE medicine_id = $1`, medicineID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+txCols+` FROM inventory_transaction WHERE medicine_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		medicineID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectTransactions(rows)
	return items, total, err
}
