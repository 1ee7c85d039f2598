package auth

import (
	"fmt"
	"sort"

	"github.com/jameskabbes/gallery-api/internal/config"
)

// ScopeSet is a duplicate-insensitive, order-independent set of scope ids.
type ScopeSet map[int]struct{}

func NewScopeSet(ids ...int) ScopeSet {
	s := make(ScopeSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s ScopeSet) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

// IsSubsetOf reports whether every id in s is present in other.
func (s ScopeSet) IsSubsetOf(other ScopeSet) bool {
	for id := range s {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}

// IDs returns the scope ids sorted, for stable JSON output.
func (s ScopeSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ResolveScopeNames maps scope names to ids via the static table. An unknown
// name is a configuration/programming error, not a request failure.
func ResolveScopeNames(cfg *config.Config, names []string) (ScopeSet, error) {
	s := make(ScopeSet, len(names))
	for _, name := range names {
		id, ok := cfg.ScopeNameToID[name]
		if !ok {
			return nil, fmt.Errorf("unknown scope name: %s", name)
		}
		s[id] = struct{}{}
	}
	return s, nil
}

// RoleScopes returns the scope set statically configured for a role.
func RoleScopes(cfg *config.Config, roleID int) ScopeSet {
	return NewScopeSet(cfg.RoleIDToScopes[roleID]...)
}
