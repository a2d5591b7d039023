package scanreport

import (
	"context"
	"errors"
	"fmt"

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

const cols = `id, patient_name, image_key, diagnosis, confidence, user_id, uploaded_at`

func scanReport(row pgx.Row) (*ScanReport, error) {
	var sr ScanReport
	err := row.Scan(&sr.ID, &sr.PatientName, &sr.ImageKey, &sr.Diagnosis,
		&sr.Confidence, &sr.UserID, &sr.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &sr, err
}

func collectReports(rows pgx.Rows) ([]*ScanReport, error) {
	defer rows.Close()
	var items []*ScanReport
	for rows.Next() {
		sr, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sr)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, sr *ScanReport) error {
	sr.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO scan_report (id, patient_name, image_key, diagnosis, user_id)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING uploaded_at`,
		sr.ID, sr.PatientName, sr.ImageKey, sr.Diagnosis, sr.UserID).Scan(&sr.UploadedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*ScanReport, error) {
	return scanReport(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM scan_report WHERE id = $1`, id))
}

func (r *repoPG) UpdateDiagnosis(ctx context.Context, id uuid.UUID, diagnosis string, confidence float64) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE scan_report SET diagnosis = $2, confidence = $3 WHERE id = $1`,
		id, diagnosis, confidence)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, patientName string, limit, offset int) ([]*ScanReport, int, error) {
	where := ``
	args := []interface{}{}
	if patientName != "" {
		where = ` WHERE patient_name ILIKE '%' || $1 || '%'`
		args = append(args, patientName)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM scan_report`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM scan_report%s ORDER BY uploaded_at DESC LIMIT $%d OFFSET $%d`,
		cols, where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectReports(rows)
	return items, total, err
}

func (r *repoPG) CountByDiagnosis(ctx context.Context, diagnosis string) (int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM scan_report WHERE diagnosis = $1`, diagnosis).Scan(&total)
	return total, err
}

func (r *repoPG) Count(ctx context.Context) (int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM scan_report`).Scan(&total)
	return total, err
}

func (r *repoPG) ListRecent(ctx context.Context, n int) ([]*ScanReport, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM scan_report ORDER BY uploaded_at DESC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	return collectReports(rows)
}
