package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/schedulo/internal/repository"
)

// AllocationMigrator rewrites allocations that still reference a FacultyUpload so they
// reference the faculty credential with the same email.
type AllocationMigrator struct {
	allocations repository.AllocationRepository
	uploads     repository.FacultyUploadRepository
	faculty     repository.CredentialRepository
	logger      *zap.Logger
}

// NewAllocationMigrator builds the migrator.
func NewAllocationMigrator(allocations repository.AllocationRepository, uploads repository.FacultyUploadRepository, faculty repository.CredentialRepository, logger *zap.Logger) *AllocationMigrator {
	return &AllocationMigrator{allocations: allocations, uploads: uploads, faculty: faculty, logger: logger}
}

// MigrationError records an allocation that could not be rewritten.
type MigrationError struct {
	AllocationID string `json:"allocationId"`
	FacultyID    string `json:"facultyId"`
	Reason       string `json:"reason"`
}

// MigrationSummary reports a migration run.
type MigrationSummary struct {
	Total   int              `json:"total"`
	Updated int              `json:"updated"`
	Skipped int              `json:"skipped"`
	Errors  []MigrationError `json:"errors"`
}

// Migrate processes every allocation. Allocations that already reference a credential,
// or whose id matches no upload, are skipped.
func (m *AllocationMigrator) Migrate(ctx context.Context) (*MigrationSummary, error) {
	allocs, err := m.allocations.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MigrationSummary{Total: len(allocs), Errors: []MigrationError{}}
	for _, alloc := range allocs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		upload, err := m.uploads.GetByID(ctx, alloc.FacultyID)
		if errors.Is(err, repository.ErrNotFound) {
			summary.Skipped++
			continue
		}
		if err != nil {
			summary.Errors = append(summary.Errors, MigrationError{AllocationID: alloc.ID, FacultyID: alloc.FacultyID, Reason: err.Error()})
			continue
		}

		cred, err := m.faculty.GetByEmail(ctx, NormalizeEmail(upload.Email))
		if errors.Is(err, repository.ErrNotFound) {
			m.logger.Warn("no faculty credential for upload", zap.String("allocation_id", alloc.ID), zap.String("employee_id", upload.EmployeeID))
			summary.Errors = append(summary.Errors, MigrationError{AllocationID: alloc.ID, FacultyID: alloc.FacultyID, Reason: "no faculty credential with email " + NormalizeEmail(upload.Email)})
			continue
		}
		if err != nil {
			summary.Errors = append(summary.Errors, MigrationError{AllocationID: alloc.ID, FacultyID: alloc.FacultyID, Reason: err.Error()})
			continue
		}
		if cred.ID == alloc.FacultyID {
			summary.Skipped++
			continue
		}

		if err := m.allocations.UpdateFacultyID(ctx, alloc.ID, cred.ID); err != nil {
			summary.Errors = append(summary.Errors, MigrationError{AllocationID: alloc.ID, FacultyID: alloc.FacultyID, Reason: err.Error()})
			continue
		}
		m.logger.Debug("allocation reference rewritten", zap.String("allocation_id", alloc.ID), zap.String("from", alloc.FacultyID), zap.String("to", cred.ID))
		summary.Updated++
	}

	m.logger.Info("allocation migration finished",
		zap.Int("total", summary.Total),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", len(summary.Errors)))
	return summary, nil
}
