package domain

import "errors"

// ErrManifestNotFound indicates the input manifest is absent
var ErrManifestNotFound = errors.New("manifest not found")

// ErrMissingColumn indicates the manifest header lacks a required column
var ErrMissingColumn = errors.New("manifest is missing a required column")

// ErrNoFileName indicates a URL path without a usable last segment
var ErrNoFileName = errors.New("url has no file name")

// ErrBadPathSegment indicates a split or class that would escape its directory
var ErrBadPathSegment = errors.New("invalid split or class name")

// FailureKind classifies why a single download failed.
type FailureKind string

const (
	KindURL     FailureKind = "url"
	KindNetwork FailureKind = "network"
	KindStatus  FailureKind = "status"
	KindWrite   FailureKind = "write"

	// KindInternal marks a fetch that panicked
	KindInternal FailureKind = "internal"
)

// FetchError is the error half of a task Outcome.
type FetchError struct {
	Kind FailureKind
	Err  error
}

func (e *FetchError) Error() string { return e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }
