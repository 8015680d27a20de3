package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const leadColumns = `id, owner_id, email, name, phone, source, message, status, extra_fields, created_at, updated_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, lead *Lead) error {
	ownerID, err := uuid.Parse(lead.OwnerID)
	if err != nil {
		return fmt.Errorf("leads: invalid owner id %q: %w", lead.OwnerID, err)
	}
	if lead.ExtraFields == nil {
		lead.ExtraFields = map[string]Scalar{}
	}
	extras, err := json.Marshal(lead.ExtraFields)
	if err != nil {
		return fmt.Errorf("leads: encode extra fields: %w", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (id, owner_id, email, name, phone, source, message, status, extra_fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		id,
		ownerID,
		lead.Email,
		lead.Name,
		lead.Phone,
		lead.Source,
		lead.Message,
		string(lead.Status),
		extras,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt); err != nil {
		return fmt.Errorf("leads: insert failed: %w", err)
	}
	lead.ID = id.String()
	return nil
}

// GetByID fetches a lead scoped to the owner.
func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id string) (*Lead, error) {
	leadID, owner, ok := parseIDs(id, ownerID)
	if !ok {
		return nil, ErrLeadNotFound
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND owner_id = $2`
	lead, err := scanLead(r.db.QueryRow(ctx, query, leadID, owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// List returns the owner's leads, newest first.
func (r *PostgresRepository) List(ctx context.Context, ownerID string, filter ListFilter) ([]*Lead, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return []*Lead{}, nil
	}
	limit, offset := filter.bounds()

	args := []any{owner}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE owner_id = $1`
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := make([]*Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return out, nil
}

// Update writes the changed columns in a single statement.
func (r *PostgresRepository) Update(ctx context.Context, ownerID, id string, upd Update) (*Lead, error) {
	leadID, owner, ok := parseIDs(id, ownerID)
	if !ok {
		return nil, ErrLeadNotFound
	}

	args := []any{leadID, owner}
	var sets []string
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	f := upd.Fields
	if f.Email != nil {
		set("email", *f.Email)
	}
	if f.Name != nil {
		set("name", *f.Name)
	}
	if f.Phone != nil {
		set("phone", *f.Phone)
	}
	if f.Source != nil {
		set("source", *f.Source)
	}
	if f.Message != nil {
		set("message", *f.Message)
	}
	if f.Status != nil {
		set("status", string(*f.Status))
	}
	if len(upd.ExtraFields) > 0 {
		extras, err := json.Marshal(upd.ExtraFields)
		if err != nil {
			return nil, fmt.Errorf("leads: encode extra fields: %w", err)
		}
		// Keys absent from this update keep their stored value.
		args = append(args, extras)
		sets = append(sets, fmt.Sprintf("extra_fields = extra_fields || $%d::jsonb", len(args)))
	}
	if len(sets) == 0 {
		return nil, ErrNoValidFields
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE leads SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND owner_id = $2 RETURNING ` + leadColumns
	lead, err := scanLead(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: update failed: %w", err)
	}
	return lead, nil
}

// Delete removes a lead owned by ownerID.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	leadID, owner, ok := parseIDs(id, ownerID)
	if !ok {
		return ErrLeadNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1 AND owner_id = $2`, leadID, owner)
	if err != nil {
		return fmt.Errorf("leads: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func parseIDs(id, ownerID string) (uuid.UUID, uuid.UUID, bool) {
	leadID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return leadID, owner, true
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		lead   Lead
		id     uuid.UUID
		owner  uuid.UUID
		status string
		extras []byte
	)
	if err := row.Scan(
		&id,
		&owner,
		&lead.Email,
		&lead.Name,
		&lead.Phone,
		&lead.Source,
		&lead.Message,
		&status,
		&extras,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	lead.ID = id.String()
	lead.OwnerID = owner.String()
	lead.Status = Status(status)
	lead.ExtraFields = map[string]Scalar{}
	if len(extras) > 0 {
		if err := json.Unmarshal(extras, &lead.ExtraFields); err != nil {
			return nil, fmt.Errorf("decode extra fields: %w", err)
		}
	}
	return &lead, nil
}

var _ Repository = (*PostgresRepository)(nil)
