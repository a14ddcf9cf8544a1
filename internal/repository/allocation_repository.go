package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/schedulo/internal/domain"
)

// AllocationRepository reads invigilation allocations and repairs their faculty reference.
type AllocationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Allocation, error)
	ListAll(ctx context.Context) ([]domain.Allocation, error)
	UpdateFacultyID(ctx context.Context, id, facultyID string) error
}

const allocationColumns = `id, faculty_id, exam_name, exam_date, room, shift, status, created_at, updated_at`

type allocationRepository struct {
	pool *pgxpool.Pool
}

// NewAllocationRepository returns a Postgres-backed implementation.
func NewAllocationRepository(pool *pgxpool.Pool) AllocationRepository {
	return &allocationRepository{pool: pool}
}

func (r *allocationRepository) GetByID(ctx context.Context, id string) (*domain.Allocation, error) {
	const query = `SELECT ` + allocationColumns + ` FROM allocations WHERE id=$1`
	return scanAllocation(r.pool.QueryRow(ctx, query, id))
}

func (r *allocationRepository) ListAll(ctx context.Context) ([]domain.Allocation, error) {
	const query = `SELECT ` + allocationColumns + ` FROM allocations ORDER BY exam_date, created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Allocation
	for rows.Next() {
		alloc, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *alloc)
	}
	return result, rows.Err()
}

func (r *allocationRepository) UpdateFacultyID(ctx context.Context, id, facultyID string) error {
	const query = `UPDATE allocations SET faculty_id=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, facultyID, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAllocation(row pgx.Row) (*domain.Allocation, error) {
	var alloc domain.Allocation
	if err := row.Scan(
		&alloc.ID,
		&alloc.FacultyID,
		&alloc.ExamName,
		&alloc.ExamDate,
		&alloc.Room,
		&alloc.Shift,
		&alloc.Status,
		&alloc.CreatedAt,
		&alloc.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &alloc, nil
}
