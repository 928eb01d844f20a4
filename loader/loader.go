package loader

import (
	"context"
)

// Record is the unit every loader produces: a chunk of text plus the
// metadata a RAG pipeline needs to index and link back to the source.
// Text is always present (possibly empty); metadata keys are stable per
// loader type. Records carry no identity beyond their position in the
// returned slice and are created fresh on every load call.
type Record struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// Loader converts one external data source into a finite ordered
// sequence of Records. Implementations validate their configuration at
// construction time and keep Load free of side effects beyond read-only
// I/O against the source.
type Loader interface {
	// Load reads the configured source and returns its records in
	// source order. An empty (zero-length, non-nil) slice is a valid
	// result for a source with no content.
	Load(ctx context.Context) ([]Record, error)

	// Name returns the source type identifier ("gchat", "gmail", ...).
	Name() string
}

// Policy controls how a loader reacts to a malformed item inside an
// otherwise readable source. Source-access failures always abort the
// load regardless of policy.
type Policy int

const (
	// FailOnError aborts the load on the first malformed item.
	FailOnError Policy = iota
	// SkipOnError drops the malformed item, logs the skip and
	// continues with the remaining items.
	SkipOnError
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case FailOnError:
		return "fail"
	case SkipOnError:
		return "skip"
	default:
		return "unknown"
	}
}
