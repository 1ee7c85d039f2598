package token

import (
	"fmt"
	"sort"
	"strings"
)

// Token source names reported in conflict errors.
const (
	SourceBearer = "bearer"
	SourceCookie = "cookie"
)

// ConflictError reports distinct token values presented from multiple sources.
type ConflictError struct {
	Sources []string
	Count   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"%d different tokens provided from the following sources: %s. Only one unique token may be provided",
		e.Count, strings.Join(e.Sources, ", "),
	)
}

// Merge collapses raw candidate values harvested from distinct sources into at
// most one token. Identical values from two sources are not a conflict; the
// candidates are deduped by value before counting. An empty string means no
// token was presented.
func Merge(candidates map[string]string) (string, *ConflictError) {
	distinct := make(map[string]struct{})
	var sources []string
	for source, value := range candidates {
		if value == "" {
			continue
		}
		distinct[value] = struct{}{}
		sources = append(sources, source)
	}

	if len(distinct) > 1 {
		sort.Strings(sources)
		return "", &ConflictError{Sources: sources, Count: len(distinct)}
	}
	for value := range distinct {
		return value, nil
	}
	return "", nil
}
