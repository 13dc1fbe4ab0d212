package avatar

import "errors"

var (
	// ErrNotFound means a user or attachment reference did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrNoAvatar means the user has no custom avatar bound.
	ErrNoAvatar = errors.New("no custom avatar")

	// ErrImageProcessing wraps failures to load, resize, or save an image.
	// The resize cache leaves no metadata behind on this error, so the next
	// resolve retries instead of caching the failure.
	ErrImageProcessing = errors.New("image processing failed")
)
