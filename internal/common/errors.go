// Package common defines shared sentinel errors used across hubsync
// components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors. A lookup miss is not a fault: callers that
	// can tolerate an absent row match ErrorNotFound and carry on.
	ErrorNotFound = errors.New("not found")

	// Store-level errors. Callers treat these as "the operation did not
	// take effect" and may re-present stale state rather than fail hard.
	ErrorStoreWrite = errors.New("store write failed")
	ErrorStoreRead  = errors.New("store read failed")
)
