package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/schedulo/internal/domain"
)

// CredentialRepository handles persistence for one role's login records.
type CredentialRepository interface {
	PasswordResetRepository

	Role() domain.Role
	Create(ctx context.Context, cred *domain.Credential) error
	GetByID(ctx context.Context, id string) (*domain.Credential, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*domain.Credential, error)
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	List(ctx context.Context, filter CredentialFilter) ([]domain.Credential, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetActive(ctx context.Context, id string, active bool) error
}

// CredentialFilter defines query params for credential listing.
type CredentialFilter struct {
	Department *string
	Campus     *string
	Active     *bool
	Limit      int
	Offset     int
}

// TableForRole maps a role to the table holding its records.
func TableForRole(role domain.Role) (string, error) {
	switch role {
	case domain.RoleAdmin:
		return "admins", nil
	case domain.RoleHOD:
		return "hods", nil
	case domain.RoleFaculty:
		return "faculty_credentials", nil
	}
	return "", fmt.Errorf("unknown role %q", role)
}

const credentialColumns = `id, name, email, employee_id, password_hash, department, campus, phone,
        subject, subjects, availability, active_flag, reset_otp, reset_otp_expires_at, created_at, updated_at`

type credentialRepository struct {
	pool  *pgxpool.Pool
	role  domain.Role
	table string
}

// NewCredentialRepository instantiates the repository for a role's table.
func NewCredentialRepository(pool *pgxpool.Pool, role domain.Role) (CredentialRepository, error) {
	table, err := TableForRole(role)
	if err != nil {
		return nil, err
	}
	return &credentialRepository{pool: pool, role: role, table: table}, nil
}

func (r *credentialRepository) Role() domain.Role {
	return r.role
}

func (r *credentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	query := `
        INSERT INTO ` + r.table + ` (name, email, employee_id, password_hash, department, campus, phone,
            subject, subjects, availability, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`

	cred.Role = r.role
	err := r.pool.QueryRow(ctx, query,
		cred.Name,
		cred.Email,
		cred.EmployeeID,
		cred.PasswordHash,
		cred.Department,
		cred.Campus,
		cred.Phone,
		cred.Subject,
		nonNilStrings(cred.Subjects),
		nonNilAvailability(cred.Availability),
		cred.Active,
	).Scan(&cred.ID, &cred.CreatedAt, &cred.UpdatedAt)
	return mapError(err)
}

func (r *credentialRepository) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM ` + r.table + ` WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *credentialRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM ` + r.table + ` WHERE employee_id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, employeeID))
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM ` + r.table + ` WHERE email=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *credentialRepository) List(ctx context.Context, filter CredentialFilter) ([]domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM ` + r.table
	args := []any{}
	clauses := []string{}

	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.Campus != nil {
		args = append(args, *filter.Campus)
		clauses = append(clauses, fmt.Sprintf("campus=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Credential
	for rows.Next() {
		cred, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *cred)
	}
	return result, rows.Err()
}

func (r *credentialRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE ` + r.table + ` SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *credentialRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE ` + r.table + ` SET active_flag=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, active, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *credentialRepository) scanOne(row pgx.Row) (*domain.Credential, error) {
	var cred domain.Credential
	if err := row.Scan(
		&cred.ID,
		&cred.Name,
		&cred.Email,
		&cred.EmployeeID,
		&cred.PasswordHash,
		&cred.Department,
		&cred.Campus,
		&cred.Phone,
		&cred.Subject,
		&cred.Subjects,
		&cred.Availability,
		&cred.Active,
		&cred.ResetOTP,
		&cred.ResetOTPExpiresAt,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	cred.Role = r.role
	return &cred, nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nonNilAvailability(in []domain.DayAvailability) []domain.DayAvailability {
	if in == nil {
		return []domain.DayAvailability{}
	}
	return in
}
