package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when a uniqueness invariant would be
	// violated (duplicate email, api-key name, scope assignment)
	ErrAlreadyExists = errors.New("record already exists")

	// ErrAlreadyConsumed is returned by the Consume* operations when the
	// credential row was already deleted by a concurrent request (0 rows
	// affected)
	ErrAlreadyConsumed = errors.New("credential already consumed")
)
