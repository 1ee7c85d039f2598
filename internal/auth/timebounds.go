package auth

import "time"

// IsValidTimeBounds reports whether a credential issued/expiry window contains
// now. A non-zero overrideLifetime applies a second, typically shorter expiry
// of issued+overrideLifetime, used when a token is re-validated for a purpose
// other than its primary one (e.g. a sign-up token used as a magic link).
// now < issued is rejected as a clock-skew/forgery guard.
func IsValidTimeBounds(issued, expiry, now time.Time, overrideLifetime time.Duration) bool {
	if now.After(expiry) {
		return false
	}
	if overrideLifetime > 0 && now.After(issued.Add(overrideLifetime)) {
		return false
	}
	if now.Before(issued) {
		return false
	}
	return true
}
