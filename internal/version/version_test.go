package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	Commit = "0123456789abcdef"
	Date = "2026-09-01"
	defer func() {
		Commit = ""
		Date = ""
	}()

	s := String()
	assert.Contains(t, s, "gallery-api dev")
	assert.Contains(t, s, "(0123456)")
	assert.NotContains(t, s, "0123456789abcdef")
	assert.Contains(t, s, "built 2026-09-01")
}
