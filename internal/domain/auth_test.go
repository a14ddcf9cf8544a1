package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles {
		got, ok := ParseRole(" " + string(r) + " ")
		assert.True(t, ok)
		assert.Equal(t, r, got)
	}

	got, ok := ParseRole("HOD")
	assert.True(t, ok)
	assert.Equal(t, RoleHOD, got)

	_, ok = ParseRole("student")
	assert.False(t, ok)
}
