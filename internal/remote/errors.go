package remote

import "errors"

// Failure classes of the remote fetch layer. Match with errors.Is.
//
// ErrServer is the only retryable class: it covers transport failures and
// non-2xx responses. ErrInvalidURL and ErrDecoding are permanent — retrying
// the same malformed request or re-decoding the same payload cannot succeed.
var (
	ErrInvalidURL = errors.New("invalid url")
	ErrNoData     = errors.New("no data")
	ErrDecoding   = errors.New("decoding error")
	ErrServer     = errors.New("server error")
)

// Retryable reports whether err belongs to the retryable failure class.
func Retryable(err error) bool {
	return errors.Is(err, ErrServer)
}
