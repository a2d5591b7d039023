package identity

import (
	"context"
	"errors"

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

const userCols = `id, username, email, password_hash, is_staff, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsStaff, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return &u, err
}

func (r *repoPG) CreateUser(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_hash, is_staff)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.IsStaff).Scan(&u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrUsernameTaken
	}
	return err
}

func (r *repoPG) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *repoPG) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username))
}

func (r *repoPG) SetStaff(ctx context.Context, id uuid.UUID, isStaff bool) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE users SET is_staff = $2 WHERE id = $1`, id, isStaff)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repoPG) UpsertProfile(ctx context.Context, p *Profile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO profiles (user_id, role) VALUES ($1,$2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`,
		p.UserID, p.Role)
	return err
}

func (r *repoPG) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var p Profile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT p.user_id, u.username, p.role
		FROM profiles p JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1`, userID).Scan(&p.UserID, &p.Username, &p.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) ListProfiles(ctx context.Context, limit, offset int) ([]*Profile, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.user_id, u.username, p.role
		FROM profiles p JOIN users u ON u.id = p.user_id
		ORDER BY u.username LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.UserID, &p.Username, &p.Role); err != nil {
			return nil, 0, err
		}
		items = append(items, &p)
	}
	return items, total, rows.Err()
}
