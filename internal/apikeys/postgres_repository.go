package apikeys

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores keys in the api_keys table.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("apikeys: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const keyColumns = `id, client_id, key_hash, key_prefix, revoked, expires_at, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, key *APIKey) error {
	clientID, err := uuid.Parse(key.ClientID)
	if err != nil {
		return fmt.Errorf("apikeys: invalid client id %q: %w", key.ClientID, err)
	}
	id := uuid.New()
	query := `
		INSERT INTO api_keys (id, client_id, key_hash, key_prefix, revoked, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		id,
		clientID,
		key.KeyHash,
		key.KeyPrefix,
		key.Revoked,
		key.ExpiresAt,
	).Scan(&key.CreatedAt, &key.UpdatedAt); err != nil {
		return mapWriteErr("insert", err)
	}
	key.ID = id.String()
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*APIKey, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrKeyNotFound
	}
	return r.one(ctx, `SELECT `+keyColumns+` FROM api_keys WHERE id = $1`, parsed)
}

func (r *PostgresRepository) GetByHash(ctx context.Context, hash string) (*APIKey, error) {
	return r.one(ctx, `SELECT `+keyColumns+` FROM api_keys WHERE key_hash = $1`, hash)
}

// ListByClient returns the client's keys, newest first.
func (r *PostgresRepository) ListByClient(ctx context.Context, clientID string) ([]*APIKey, error) {
	parsed, err := uuid.Parse(clientID)
	if err != nil {
		return []*APIKey{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+keyColumns+` FROM api_keys WHERE client_id = $1 ORDER BY created_at DESC`, parsed)
	if err != nil {
		return nil, fmt.Errorf("apikeys: list failed: %w", err)
	}
	defer rows.Close()

	out := make([]*APIKey, 0)
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("apikeys: scan failed: %w", err)
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("apikeys: list failed: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) HasUnexpired(ctx context.Context, clientID string, now time.Time) (bool, error) {
	parsed, err := uuid.Parse(clientID)
	if err != nil {
		return false, nil
	}
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM api_keys WHERE client_id = $1 AND expires_at > $2)`
	if err := r.db.QueryRow(ctx, query, parsed, now).Scan(&exists); err != nil {
		return false, fmt.Errorf("apikeys: active lookup failed: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ToggleRevoked(ctx context.Context, id string) (*APIKey, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrKeyNotFound
	}
	query := `UPDATE api_keys SET revoked = NOT revoked, updated_at = NOW() WHERE id = $1 RETURNING ` + keyColumns
	return r.one(ctx, query, parsed)
}

func (r *PostgresRepository) Rotate(ctx context.Context, id, hash, prefix string, expiresAt time.Time) (*APIKey, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrKeyNotFound
	}
	query := `
		UPDATE api_keys
		SET key_hash = $2, key_prefix = $3, expires_at = $4, revoked = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + keyColumns
	key, err := scanKey(r.db.QueryRow(ctx, query, parsed, hash, prefix, expiresAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, mapWriteErr("rotate", err)
	}
	return key, nil
}

func (r *PostgresRepository) one(ctx context.Context, query string, args ...any) (*APIKey, error) {
	key, err := scanKey(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("apikeys: select failed: %w", err)
	}
	return key, nil
}

func mapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateHash
	}
	return fmt.Errorf("apikeys: %s failed: %w", op, err)
}

func scanKey(row pgx.Row) (*APIKey, error) {
	var (
		key      APIKey
		id       uuid.UUID
		clientID uuid.UUID
	)
	if err := row.Scan(
		&id,
		&clientID,
		&key.KeyHash,
		&key.KeyPrefix,
		&key.Revoked,
		&key.ExpiresAt,
		&key.CreatedAt,
		&key.UpdatedAt,
	); err != nil {
		return nil, err
	}
	key.ID = id.String()
	key.ClientID = clientID.String()
	return &key, nil
}

var _ Repository = (*PostgresRepository)(nil)
