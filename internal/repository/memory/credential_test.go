package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/schedulo/internal/domain"
	"github.com/spec-kit/schedulo/internal/repository"
)

func TestCredentialStoreUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(domain.RoleFaculty)

	first := &domain.Credential{Name: "A", Email: "a@x.edu", EmployeeID: "FAC001", Active: true}
	require.NoError(t, store.Create(ctx, first))
	assert.Equal(t, domain.RoleFaculty, first.Role)
	assert.NotEmpty(t, first.ID)

	err := store.Create(ctx, &domain.Credential{Email: "a@x.edu", EmployeeID: "FAC002"})
	var conflict *repository.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, repository.FieldEmail, conflict.Field)
	assert.ErrorIs(t, err, repository.ErrConflict)

	err = store.Create(ctx, &domain.Credential{Email: "b@x.edu", EmployeeID: "FAC001"})
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, repository.FieldEmployeeID, conflict.Field)
}

func TestCredentialStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(domain.RoleAdmin)
	cred := &domain.Credential{Email: "a@x.edu", EmployeeID: "ADM1", Subjects: []string{"Math"}}
	require.NoError(t, store.Create(ctx, cred))

	got, err := store.GetByID(ctx, cred.ID)
	require.NoError(t, err)
	got.Subjects[0] = "changed"

	again, err := store.GetByEmployeeID(ctx, "ADM1")
	require.NoError(t, err)
	assert.Equal(t, "Math", again.Subjects[0])

	_, err = store.GetByEmail(ctx, "missing@x.edu")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCredentialStoreResetOTP(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(domain.RoleFaculty)
	cred := &domain.Credential{Email: "a@x.edu", EmployeeID: "FAC001", PasswordHash: "old"}
	require.NoError(t, store.Create(ctx, cred))

	now := time.Now()
	require.NoError(t, store.SetResetOTP(ctx, cred.ID, "123456", now.Add(5*time.Minute)))

	require.NoError(t, store.ClearResetOTP(ctx, cred.ID, "999999"))
	got, _ := store.GetByID(ctx, cred.ID)
	require.True(t, got.HasPendingOTP())

	ok, err := store.ConsumeResetOTP(ctx, cred.ID, "123456", "new", now.Add(6*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "expired code must not be consumed")

	ok, err = store.ConsumeResetOTP(ctx, cred.ID, "123456", "new", now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ConsumeResetOTP(ctx, cred.ID, "123456", "newer", now)
	require.NoError(t, err)
	assert.False(t, ok, "code is single use")

	got, _ = store.GetByID(ctx, cred.ID)
	assert.Equal(t, "new", got.PasswordHash)
	assert.False(t, got.HasPendingOTP())
}

func TestCredentialStoreListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(domain.RoleFaculty)
	for i, dept := range []string{"CSE", "CSE", "ECE"} {
		require.NoError(t, store.Create(ctx, &domain.Credential{
			Email:      string(rune('a'+i)) + "@x.edu",
			EmployeeID: "FAC00" + string(rune('1'+i)),
			Department: dept,
			Active:     dept == "CSE",
		}))
	}

	cse := "CSE"
	list, err := store.List(ctx, repository.CredentialFilter{Department: &cse})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	inactive := false
	list, err = store.List(ctx, repository.CredentialFilter{Active: &inactive})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ECE", list[0].Department)

	list, err = store.List(ctx, repository.CredentialFilter{Limit: 1, Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, list)
}
