package types

import (
	"errors"
	"fmt"
)

// Error kinds shared across postdeck. Components wrap these with context
// using fmt.Errorf("...: %w", ...); callers test with errors.Is.
var (
	// ErrDataSource means a read or write against the relational store failed.
	ErrDataSource = errors.New("data source error")

	// ErrStorage means a media upload or removal failed.
	ErrStorage = errors.New("storage error")

	// ErrStorageUnconfigured is returned by every storage call in offline mode.
	ErrStorageUnconfigured = fmt.Errorf("%w: storage not configured", ErrStorage)

	// ErrValidation means post content was empty on save or publish.
	ErrValidation = errors.New("validation error")

	// ErrInvalidTransition means a lifecycle transition is not permitted.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrGeneration means the writing assistant failed to produce text.
	ErrGeneration = errors.New("generation error")

	// ErrPostNotFound means no post has the requested ID.
	ErrPostNotFound = errors.New("post not found")
)
