package medicine

import (
	"context"
	"errors"
	"time"

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

const cols = `id, name, batch_number, expiry_date, quantity, price, supplier, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.BatchNumber, &m.ExpiryDate, &m.Quantity,
		&m.Price, &m.Supplier, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &m, err
}

func collectMedicines(rows pgx.Rows) ([]*Medicine, error) {
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medicine (id, name, batch_number, expiry_date, quantity, price, supplier)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.Name, m.BatchNumber, m.ExpiryDate, m.Quantity, m.Price, m.Supplier)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM medicine WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, m *Medicine) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicine SET name=$2, batch_number=$3, expiry_date=$4, price=$5, supplier=$6, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.BatchNumber, m.ExpiryDate, m.Price, m.Supplier)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medicine WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medicine`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM medicine ORDER BY name, batch_number LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectMedicines(rows)
	return items, total, err
}

func (r *repoPG) Count(ctx context.Context) (int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medicine`).Scan(&total)
	return total, err
}

func (r *repoPG) ListBelowQuantity(ctx context.Context, threshold int) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM medicine WHERE quantity < $1 ORDER BY quantity`, threshold)
	if err != nil {
		return nil, err
	}
	return collectMedicines(rows)
}

func (r *repoPG) ListAtOrBelowQuantity(ctx context.Context, threshold int) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM medicine WHERE quantity <= $1 ORDER BY quantity`, threshold)
	if err != nil {
		return nil, err
	}
	return collectMedicines(rows)
}

func (r *repoPG) ListExpiredBefore(ctx context.Context, day time.Time) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM medicine WHERE expiry_date < $1 ORDER BY expiry_date`, day)
	if err != nil {
		return nil, err
	}
	return collectMedicines(rows)
}

func (r *repoPG) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM medicine WHERE expiry_date >= $1 AND expiry_date <= $2 ORDER BY expiry_date`, from, to)
	if err != nil {
		return nil, err
	}
	return collectMedicines(rows)
}
