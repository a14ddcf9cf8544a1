package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/schedulo/internal/domain"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

func TestResolveProbesAdminBeforeFaculty(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, domain.RoleFaculty, "EMP1", "fac@example.com", "password123", true)
	admin := env.seed(t, domain.RoleAdmin, "EMP1", "admin@example.com", "password123", true)

	identity, err := env.resolver.Resolve(context.Background(), "  EMP1 ")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, identity.Role)
	assert.Equal(t, admin.ID, identity.Credential.ID)
}

func TestResolveTagsRoleOfStore(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, domain.RoleHOD, "HOD7", "hod@example.com", "password123", true)

	identity, err := env.resolver.Resolve(context.Background(), "HOD7")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHOD, identity.Role)
	assert.Equal(t, domain.RoleHOD, identity.Credential.Role)
}

func TestResolveIsExactMatch(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, domain.RoleFaculty, "FAC001", "fac@example.com", "password123", true)

	_, err := env.resolver.Resolve(context.Background(), "fac001")
	assert.ErrorIs(t, err, ErrIdentityNotFound)

	_, err = env.resolver.Resolve(context.Background(), "fac@example.com")
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestResolveRejectsBlankIdentifier(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.resolver.Resolve(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.ToDomainError(err).HTTPStatus)
}

func TestFindByEmailNormalizes(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, domain.RoleHOD, "HOD1", "hod@example.com", "password123", true)

	identity, err := env.resolver.FindByEmail(context.Background(), " HOD@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHOD, identity.Role)
}
