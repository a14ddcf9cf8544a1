package persistence

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/schedulo/internal/domain"
	"github.com/spec-kit/schedulo/internal/repository"
	"github.com/spec-kit/schedulo/internal/repository/memory"
)

// Stores bundles every repository the service needs.
type Stores struct {
	Admins      repository.CredentialRepository
	HODs        repository.CredentialRepository
	Faculty     repository.CredentialRepository
	Uploads     repository.FacultyUploadRepository
	Allocations repository.AllocationRepository
}

// CredentialStores returns the credential stores in identity resolution order.
func (s *Stores) CredentialStores() []repository.CredentialRepository {
	return []repository.CredentialRepository{s.Admins, s.HODs, s.Faculty}
}

// NewPostgresStores builds pgx-backed repositories on pool.
func NewPostgresStores(pool *pgxpool.Pool) (*Stores, error) {
	stores := &Stores{
		Uploads:     repository.NewFacultyUploadRepository(pool),
		Allocations: repository.NewAllocationRepository(pool),
	}
	var err error
	if stores.Admins, err = repository.NewCredentialRepository(pool, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if stores.HODs, err = repository.NewCredentialRepository(pool, domain.RoleHOD); err != nil {
		return nil, err
	}
	if stores.Faculty, err = repository.NewCredentialRepository(pool, domain.RoleFaculty); err != nil {
		return nil, err
	}
	return stores, nil
}

// NewMemoryStores builds process-local repositories.
func NewMemoryStores() *Stores {
	return &Stores{
		Admins:      memory.NewCredentialStore(domain.RoleAdmin),
		HODs:        memory.NewCredentialStore(domain.RoleHOD),
		Faculty:     memory.NewCredentialStore(domain.RoleFaculty),
		Uploads:     memory.NewFacultyUploadStore(),
		Allocations: memory.NewAllocationStore(),
	}
}
