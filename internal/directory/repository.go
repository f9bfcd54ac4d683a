package directory

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrCaseNotFound    = errors.New("directory: case not found")
	ErrContactNotFound = errors.New("directory: contact not found")
)

// Repository is the read-only contract against the case-management
// store. The relay never writes through it.
type Repository interface {
	FindCase(ctx context.Context, caseID string) (Case, error)
	ContactFor(ctx context.Context, principalID string) (Contact, error)
}

// PostgresRepo reads cases and contacts from the platform database.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) FindCase(ctx context.Context, caseID string) (Case, error) {
	if caseID == "" {
		return Case{}, ErrCaseNotFound
	}
	const q = `
SELECT case_id, title, client_id, consultant_id, COALESCE(delegate_id, '')
FROM cases
WHERE case_id = $1`

	var out Case
	err := r.db.QueryRowContext(ctx, q, caseID).Scan(
		&out.CaseID,
		&out.Title,
		&out.ClientID,
		&out.ConsultantID,
		&out.DelegateID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Case{}, ErrCaseNotFound
	}
	if err != nil {
		return Case{}, err
	}
	return out, nil
}

func (r *PostgresRepo) ContactFor(ctx context.Context, principalID string) (Contact, error) {
	if principalID == "" {
		return Contact{}, ErrContactNotFound
	}
	const q = `
SELECT principal_id, name, email
FROM contacts
WHERE principal_id = $1`

	var out Contact
	err := r.db.QueryRowContext(ctx, q, principalID).Scan(
		&out.PrincipalID,
		&out.Name,
		&out.Email,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, ErrContactNotFound
	}
	if err != nil {
		return Contact{}, err
	}
	return out, nil
}
