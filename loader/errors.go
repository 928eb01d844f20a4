package loader

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidConfig = errors.New("invalid loader configuration")

	// Source-access errors
	ErrSourceNotFound    = errors.New("source not found")
	ErrSourceUnreachable = errors.New("source unreachable")
	ErrUnauthorized      = errors.New("source unauthorized")

	// Content errors
	ErrMalformedContent = errors.New("malformed source content")
)

// SourceError reports that a source could not be reached, opened or
// authorized. A SourceError aborts the load; no partial results are
// returned alongside it.
type SourceError struct {
	Loader string // source type identifier
	Source string // path, URL or query that failed
	Err    error  // cause, usually one of the sentinel errors above
}

func (e *SourceError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Loader, e.Source, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Loader, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// ContentError reports a malformed item inside an otherwise readable
// source. Under SkipOnError the loader logs it and moves on; under
// FailOnError it propagates.
type ContentError struct {
	Loader string // source type identifier
	Item   string // identifier of the offending item (file, message id, ...)
	Err    error
}

func (e *ContentError) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("[%s] item %s: %v", e.Loader, e.Item, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Loader, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// NewSourceError wraps err as a source-access failure.
func NewSourceError(loaderName, source string, err error) *SourceError {
	return &SourceError{Loader: loaderName, Source: source, Err: err}
}

// NewContentError wraps err as a content failure for one item.
func NewContentError(loaderName, item string, err error) *ContentError {
	return &ContentError{Loader: loaderName, Item: item, Err: err}
}

// IsSourceError reports whether err is (or wraps) a SourceError.
func IsSourceError(err error) bool {
	var se *SourceError
	return errors.As(err, &se)
}

// IsContentError reports whether err is (or wraps) a ContentError.
func IsContentError(err error) bool {
	var ce *ContentError
	return errors.As(err, &ce)
}
