package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTimeBounds(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry := issued.Add(7 * 24 * time.Hour)

	tests := []struct {
		name     string
		now      time.Time
		override time.Duration
		want     bool
	}{
		{"within bounds", issued.Add(time.Hour), 0, true},
		{"at issuance", issued, 0, true},
		{"just before expiry", expiry.Add(-time.Second), 0, true},
		{"past expiry", expiry.Add(time.Second), 0, false},
		{"before issuance", issued.Add(-time.Second), 0, false},
		{"override tightens window", issued.Add(11 * time.Minute), 10 * time.Minute, false},
		{"within override window", issued.Add(9 * time.Minute), 10 * time.Minute, true},
		{"override does not extend past expiry", expiry.Add(time.Second), 30 * 24 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidTimeBounds(issued, expiry, tt.now, tt.override))
		})
	}
}
