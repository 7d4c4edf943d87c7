package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// ErrLabeling wraps a sequence labeler failure. The whole document is aborted.
	ErrLabeling = errors.New("sequence labeling failed")
	// ErrProcessing reports an unexpected fault inside the mention pipeline.
	ErrProcessing = errors.New("mention processing failed")
	// ErrMalformedRefKey marks a callout whose target is not a bibliography index.
	ErrMalformedRefKey = errors.New("malformed reference key")
)
