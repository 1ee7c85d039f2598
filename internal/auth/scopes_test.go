package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jameskabbes/gallery-api/internal/config"
)

func TestScopeSetSubset(t *testing.T) {
	assert.True(t, NewScopeSet().IsSubsetOf(NewScopeSet()))
	assert.True(t, NewScopeSet().IsSubsetOf(NewScopeSet(1, 2)))
	assert.True(t, NewScopeSet(1).IsSubsetOf(NewScopeSet(1, 2)))
	assert.True(t, NewScopeSet(1, 2).IsSubsetOf(NewScopeSet(1, 2)))
	assert.False(t, NewScopeSet(3).IsSubsetOf(NewScopeSet(1, 2)))
	assert.False(t, NewScopeSet(1, 3).IsSubsetOf(NewScopeSet(1, 2)))
}

func TestScopeSetIDsSorted(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, NewScopeSet(3, 1, 2).IDs())
	assert.Equal(t, []int{}, NewScopeSet().IDs())
}

func TestResolveScopeNames(t *testing.T) {
	cfg := config.Load()

	s, err := ResolveScopeNames(cfg, []string{"admin", "users.read"})
	require.NoError(t, err)
	assert.True(t, s.Contains(cfg.ScopeNameToID["admin"]))
	assert.True(t, s.Contains(cfg.ScopeNameToID["users.read"]))
	assert.False(t, s.Contains(cfg.ScopeNameToID["users.write"]))

	_, err = ResolveScopeNames(cfg, []string{"galleries.fly"})
	assert.Error(t, err)
}

func TestRoleScopes(t *testing.T) {
	cfg := config.Load()

	adminScopes := RoleScopes(cfg, cfg.RoleNameToID[config.RoleAdmin])
	assert.True(t, adminScopes.Contains(cfg.ScopeNameToID["admin"]))

	userScopes := RoleScopes(cfg, cfg.RoleNameToID[config.RoleUser])
	assert.False(t, userScopes.Contains(cfg.ScopeNameToID["admin"]))
	assert.True(t, userScopes.Contains(cfg.ScopeNameToID["users.read"]))
	assert.True(t, userScopes.Contains(cfg.ScopeNameToID["users.write"]))

	assert.Empty(t, RoleScopes(cfg, 999).IDs())
}
