package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/schedulo/internal/domain"
	"github.com/spec-kit/schedulo/internal/repository"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

// ErrIdentityNotFound means no store holds the identifier.
var ErrIdentityNotFound = errors.New("identity not found")

// Identity is a credential tagged with the role of the store it was found in.
type Identity struct {
	Credential *domain.Credential
	Role       domain.Role
}

// IdentityResolver probes the credential stores in a fixed order.
type IdentityResolver struct {
	stores []repository.CredentialRepository
	byRole map[domain.Role]repository.CredentialRepository
}

// NewIdentityResolver builds a resolver probing stores in the given order.
func NewIdentityResolver(stores ...repository.CredentialRepository) *IdentityResolver {
	byRole := make(map[domain.Role]repository.CredentialRepository, len(stores))
	for _, store := range stores {
		byRole[store.Role()] = store
	}
	return &IdentityResolver{stores: stores, byRole: byRole}
}

// Resolve finds the first store holding an exact match for the trimmed employee id.
func (r *IdentityResolver) Resolve(ctx context.Context, identifier string) (*Identity, error) {
	employeeID := strings.TrimSpace(identifier)
	if employeeID == "" {
		return nil, apperrors.NewValidationError("employee ID is required", map[string]any{"employeeId": "required"})
	}
	return r.probe(ctx, func(store repository.CredentialRepository) (*domain.Credential, error) {
		return store.GetByEmployeeID(ctx, employeeID)
	})
}

// FindByEmployeeID looks the employee id up across every store.
func (r *IdentityResolver) FindByEmployeeID(ctx context.Context, employeeID string) (*Identity, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, ErrIdentityNotFound
	}
	return r.probe(ctx, func(store repository.CredentialRepository) (*domain.Credential, error) {
		return store.GetByEmployeeID(ctx, employeeID)
	})
}

// FindByEmail looks the normalized email up across every store.
func (r *IdentityResolver) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrIdentityNotFound
	}
	return r.probe(ctx, func(store repository.CredentialRepository) (*domain.Credential, error) {
		return store.GetByEmail(ctx, email)
	})
}

// FindByID loads a credential from the store of role.
func (r *IdentityResolver) FindByID(ctx context.Context, role domain.Role, id string) (*Identity, error) {
	store, ok := r.StoreFor(role)
	if !ok {
		return nil, ErrIdentityNotFound
	}
	cred, err := store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Identity{Credential: cred, Role: role}, nil
}

// StoreFor returns the store holding role's records.
func (r *IdentityResolver) StoreFor(role domain.Role) (repository.CredentialRepository, bool) {
	store, ok := r.byRole[role]
	return store, ok
}

func (r *IdentityResolver) probe(ctx context.Context, lookup func(repository.CredentialRepository) (*domain.Credential, error)) (*Identity, error) {
	for _, store := range r.stores {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cred, err := lookup(store)
		if err == nil {
			cred.Role = store.Role()
			return &Identity{Credential: cred, Role: store.Role()}, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrIdentityNotFound
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
