package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_BeforeSave_HashesPassword(t *testing.T) {
	user := &User{Name: "Alice", Email: "alice@example.com", Password: "secret123"}

	require.NoError(t, user.BeforeSave(nil))
	assert.NotEqual(t, "secret123", user.Password)
	assert.True(t, strings.HasPrefix(user.Password, "$2"))
	assert.True(t, user.CheckPassword("secret123"))
	assert.False(t, user.CheckPassword("wrong"))
}

func TestUser_BeforeSave_DoesNotDoubleHash(t *testing.T) {
	user := &User{Name: "Alice", Email: "alice@example.com", Password: "secret123"}

	require.NoError(t, user.BeforeSave(nil))
	hashed := user.Password

	require.NoError(t, user.BeforeSave(nil))
	assert.Equal(t, hashed, user.Password)
	assert.True(t, user.CheckPassword("secret123"))
}

func TestSeller_BeforeSave_HashesPassword(t *testing.T) {
	seller := &Seller{Name: "Bob Store", Email: "bob@store.com", Password: "secret123"}

	require.NoError(t, seller.BeforeSave(nil))
	assert.True(t, strings.HasPrefix(seller.Password, "$2"))
	assert.True(t, seller.CheckPassword("secret123"))
}

func TestPrincipalAccessors(t *testing.T) {
	user := &User{ID: 42, Email: "alice@example.com"}
	assert.Equal(t, uint(42), user.PrincipalID())
	assert.Equal(t, RoleUser, user.PrincipalRole())
	assert.Equal(t, "alice@example.com", user.PrincipalEmail())

	seller := &Seller{ID: 7, Email: "bob@store.com"}
	assert.Equal(t, uint(7), seller.PrincipalID())
	assert.Equal(t, RoleSeller, seller.PrincipalRole())
	assert.Equal(t, "bob@store.com", seller.PrincipalEmail())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleSeller.Valid())
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
}
