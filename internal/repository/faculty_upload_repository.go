package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/schedulo/internal/domain"
)

// FacultyUploadRepository stores roster staging records.
type FacultyUploadRepository interface {
	Upsert(ctx context.Context, upload *domain.FacultyUpload) error
	GetByID(ctx context.Context, id string) (*domain.FacultyUpload, error)
	List(ctx context.Context, limit, offset int) ([]domain.FacultyUpload, error)
}

const facultyUploadColumns = `id, name, email, employee_id, department, subject, subjects, campus, phone,
        availability, max_hours_per_day, active_flag, uploaded_at, created_at, updated_at`

type facultyUploadRepository struct {
	pool *pgxpool.Pool
}

// NewFacultyUploadRepository returns a Postgres-backed implementation.
func NewFacultyUploadRepository(pool *pgxpool.Pool) FacultyUploadRepository {
	return &facultyUploadRepository{pool: pool}
}

func (r *facultyUploadRepository) Upsert(ctx context.Context, upload *domain.FacultyUpload) error {
	const query = `
        INSERT INTO faculty_uploads (name, email, employee_id, department, subject, subjects, campus, phone,
            availability, max_hours_per_day, active_flag, uploaded_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())
        ON CONFLICT (employee_id) DO UPDATE
        SET name=EXCLUDED.name, email=EXCLUDED.email, department=EXCLUDED.department,
            subject=EXCLUDED.subject, subjects=EXCLUDED.subjects, campus=EXCLUDED.campus,
            phone=EXCLUDED.phone, availability=EXCLUDED.availability,
            max_hours_per_day=EXCLUDED.max_hours_per_day, active_flag=EXCLUDED.active_flag,
            uploaded_at=NOW(), updated_at=NOW()
        RETURNING id, uploaded_at, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		upload.Name,
		upload.Email,
		upload.EmployeeID,
		upload.Department,
		upload.Subject,
		nonNilStrings(upload.Subjects),
		upload.Campus,
		upload.Phone,
		nonNilAvailability(upload.Availability),
		upload.MaxHoursPerDay,
		upload.Active,
	).Scan(&upload.ID, &upload.UploadedAt, &upload.CreatedAt, &upload.UpdatedAt)
	return mapError(err)
}

func (r *facultyUploadRepository) GetByID(ctx context.Context, id string) (*domain.FacultyUpload, error) {
	const query = `SELECT ` + facultyUploadColumns + ` FROM faculty_uploads WHERE id=$1`
	return scanFacultyUpload(r.pool.QueryRow(ctx, query, id))
}

func (r *facultyUploadRepository) List(ctx context.Context, limit, offset int) ([]domain.FacultyUpload, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + facultyUploadColumns + ` FROM faculty_uploads ORDER BY uploaded_at DESC` +
		fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FacultyUpload
	for rows.Next() {
		upload, err := scanFacultyUpload(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *upload)
	}
	return result, rows.Err()
}

func scanFacultyUpload(row pgx.Row) (*domain.FacultyUpload, error) {
	var upload domain.FacultyUpload
	if err := row.Scan(
		&upload.ID,
		&upload.Name,
		&upload.Email,
		&upload.EmployeeID,
		&upload.Department,
		&upload.Subject,
		&upload.Subjects,
		&upload.Campus,
		&upload.Phone,
		&upload.Availability,
		&upload.MaxHoursPerDay,
		&upload.Active,
		&upload.UploadedAt,
		&upload.CreatedAt,
		&upload.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &upload, nil
}
