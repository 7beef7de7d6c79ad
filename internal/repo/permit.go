// Package repo contains all database access logic for the permit record store.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/permitsite/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Passing a pgx.Tx lets an import run atomically and lets integration tests
// roll back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PermitRepo defines the persistence operations for permit records.
type PermitRepo interface {
	// Upsert inserts a permit, or replaces the stored record with the same id.
	// A different id reusing an existing (agency_short, request_type) pair
	// fails with domain.ErrDuplicateKey.
	Upsert(ctx context.Context, p domain.Permit) error

	// GetByID retrieves a single permit by id.
	// Returns domain.ErrNotFound if no permit with that id exists.
	GetByID(ctx context.Context, id string) (domain.Permit, error)

	// List returns all permits ordered by agency_short, request_type.
	List(ctx context.Context) ([]domain.Permit, error)

	// Delete removes a permit by id. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

// pgPermitRepo is the Postgres implementation of PermitRepo.
type pgPermitRepo struct {
	db db
}

// NewPermitRepo constructs a PermitRepo backed by the provided db connection.
// In production pass *pgxpool.Pool (or a pgx.Tx for an atomic import).
func NewPermitRepo(db db) PermitRepo {
	return &pgPermitRepo{db: db}
}

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Upsert stores the full record as JSONB next to the indexed key columns.
func (r *pgPermitRepo) Upsert(ctx context.Context, p domain.Permit) error {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return fmt.Errorf("repo.PermitRepo.Upsert: id %q: %w", p.ID, domain.ErrValidation)
	}
	record, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("repo.PermitRepo.Upsert: marshal: %w", err)
	}

	const q = `
		INSERT INTO permits (id, name, agency_short, request_type, record)
		VALUES (@id, @name, @agency_short, @request_type, @record)
		ON CONFLICT (id) DO UPDATE
		SET name         = EXCLUDED.name,
		    agency_short = EXCLUDED.agency_short,
		    request_type = EXCLUDED.request_type,
		    record       = EXCLUDED.record,
		    updated_at   = now()`

	_, err = r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":           id,
		"name":         p.Name,
		"agency_short": p.AgencyShort,
		"request_type": p.RequestType,
		"record":       record,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("repo.PermitRepo.Upsert: %s: %w", p.Key(), domain.ErrDuplicateKey)
		}
		return fmt.Errorf("repo.PermitRepo.Upsert: %w", err)
	}
	return nil
}

// GetByID retrieves a permit by primary key.
func (r *pgPermitRepo) GetByID(ctx context.Context, id string) (domain.Permit, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		// Not a UUID, so it cannot name a stored permit.
		return domain.Permit{}, fmt.Errorf("repo.PermitRepo.GetByID: %w", domain.ErrNotFound)
	}

	const q = `SELECT id, record FROM permits WHERE id = @id`

	p, err := scanPermit(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": uid}))
	if err != nil {
		return domain.Permit{}, fmt.Errorf("repo.PermitRepo.GetByID: %w", err)
	}
	return p, nil
}

// List returns every stored permit.
func (r *pgPermitRepo) List(ctx context.Context) ([]domain.Permit, error) {
	const q = `
		SELECT id, record
		FROM permits
		ORDER BY agency_short, request_type`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.PermitRepo.List: %w", err)
	}
	defer rows.Close()

	permits := []domain.Permit{}
	for rows.Next() {
		p, err := scanPermit(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.PermitRepo.List: scan: %w", err)
		}
		permits = append(permits, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PermitRepo.List: rows: %w", err)
	}
	return permits, nil
}

// Delete removes a permit by primary key.
func (r *pgPermitRepo) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("repo.PermitRepo.Delete: %w", domain.ErrNotFound)
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM permits WHERE id = @id`, pgx.NamedArgs{"id": uid})
	if err != nil {
		return fmt.Errorf("repo.PermitRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.PermitRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanPermit decodes the JSONB record. The id column is authoritative over
// whatever id the stored document carries.
func scanPermit(s scanner) (domain.Permit, error) {
	var (
		id  pgtype.UUID
		raw []byte
	)
	if err := s.Scan(&id, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Permit{}, domain.ErrNotFound
		}
		return domain.Permit{}, err
	}

	var p domain.Permit
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Permit{}, fmt.Errorf("decode record: %w", err)
	}
	p.ID = uuid.UUID(id.Bytes).String()
	return p, nil
}
