package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfman30/leadbox/internal/auth"
)

const uniqueViolation = "23505"

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores accounts in the users table.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("users: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, is_email_verified, created_at, updated_at`

// Create inserts a new account.
func (r *PostgresRepository) Create(ctx context.Context, user *User) error {
	id := uuid.New()
	if user.ID != "" {
		parsed, err := uuid.Parse(user.ID)
		if err != nil {
			return fmt.Errorf("users: invalid id %q: %w", user.ID, err)
		}
		id = parsed
	}
	query := `
		INSERT INTO users (id, name, email, password_hash, role, is_email_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	err := r.db.QueryRow(ctx, query,
		id,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.IsEmailVerified,
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("users: insert failed: %w", err)
	}
	user.ID = id.String()
	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return nil
}

// GetByID fetches an account by id. Malformed ids are reported as not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, parsed))
}

// GetByEmail fetches an account by normalized email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, email))
}

// ListByRole returns accounts with role, newest first.
func (r *PostgresRepository) ListByRole(ctx context.Context, role auth.Role) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("users: list failed: %w", err)
	}
	defer rows.Close()

	out := make([]*User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("users: scan failed: %w", err)
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: list failed: %w", err)
	}
	return out, nil
}

// MarkEmailVerified flips the verification flag.
func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE users SET is_email_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
}

// UpdatePassword replaces the stored hash.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
}

func (r *PostgresRepository) exec(ctx context.Context, query, id string, args ...any) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrUserNotFound
	}
	tag, err := r.db.Exec(ctx, query, append([]any{parsed}, args...)...)
	if err != nil {
		return fmt.Errorf("users: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row pgx.Row) (*User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("users: select failed: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		user User
		id   uuid.UUID
		role string
	)
	if err := row.Scan(
		&id,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.IsEmailVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.ID = id.String()
	user.Role = auth.Role(role)
	return &user, nil
}

var _ Repository = (*PostgresRepository)(nil)
