package kyc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS kyc_submissions (
		id UUID PRIMARY KEY,
		address TEXT NOT NULL,
		business_name TEXT NOT NULL,
		registration_number TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		registration_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		rejection_reason TEXT NOT NULL DEFAULT '',
		submitted_at TIMESTAMPTZ NOT NULL,
		reviewed_at TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS kyc_submissions_open_address
		ON kyc_submissions (LOWER(address))
		WHERE status IN ('pending', 'approved')`,
	`CREATE INDEX IF NOT EXISTS kyc_submissions_status ON kyc_submissions (status)`,
}

const selectColumns = `id, address, business_name, registration_number, country,
	registration_type, status, rejection_reason, submitted_at, reviewed_at`

// PostgresRepository stores submissions in PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// OpenPostgres connects to dsn, verifies the connection and ensures the
// schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := NewPostgresRepository(db)
	if err := r.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// NewPostgresRepository wraps an open database handle.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the submissions table and indexes if missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	for _, q := range schema {
		if _, err := r.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Close closes the database handle.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// List implements Repository.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Submission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM kyc_submissions
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR LOWER(address) = LOWER($2))
		ORDER BY submitted_at, id`,
		string(f.Status), f.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	out := []Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Append implements Repository.
func (r *PostgresRepository) Append(ctx context.Context, s *Submission) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kyc_submissions
			(id, address, business_name, registration_number, country,
			 registration_type, status, rejection_reason, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.Address, s.BusinessName, s.RegistrationNumber, s.Country,
		s.RegistrationType, string(s.Status), s.RejectionReason, s.SubmittedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

// Update implements Repository. The status guard is part of the UPDATE so
// concurrent reviewers cannot both move the same submission.
func (r *PostgresRepository) Update(ctx context.Context, id string, status Status, reason string) (*Submission, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE kyc_submissions
		SET status = $2, rejection_reason = $3, reviewed_at = $4
		WHERE id::text = $1 AND status = 'pending'
		RETURNING `+selectColumns,
		id, string(status), reason, time.Now().UTC())

	s, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.missingOrReviewed(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepository) missingOrReviewed(ctx context.Context, id string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM kyc_submissions WHERE id::text = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up submission: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInvalidTransition
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(sc scanner) (*Submission, error) {
	var (
		s        Submission
		status   string
		reviewed pq.NullTime
	)
	err := sc.Scan(&s.ID, &s.Address, &s.BusinessName, &s.RegistrationNumber, &s.Country,
		&s.RegistrationType, &status, &s.RejectionReason, &s.SubmittedAt, &reviewed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}
	s.Status = Status(status)
	if reviewed.Valid {
		s.ReviewedAt = reviewed.Time
	}
	return &s, nil
}
