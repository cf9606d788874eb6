package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleFor(t *testing.T) {
	assert.Equal(t, RoleAdmin, RoleFor("admin"))
	assert.Equal(t, RoleUser, RoleFor("Admin"))
	assert.Equal(t, RoleUser, RoleFor("alice"))
}

func TestRoleScan(t *testing.T) {
	var r Role
	require.NoError(t, r.Scan("ADMIN"))
	assert.Equal(t, RoleAdmin, r)

	require.NoError(t, r.Scan([]byte("USER")))
	assert.Equal(t, RoleUser, r)

	assert.Error(t, r.Scan("ROLE_ROOT"))
	assert.Error(t, r.Scan(int64(1)))
	assert.Equal(t, RoleUser, r, "failed scan must not change the value")
}

func TestRoleValue(t *testing.T) {
	v, err := RoleAdmin.Value()
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", v)

	_, err = Role(0).Value()
	assert.Error(t, err)
}
