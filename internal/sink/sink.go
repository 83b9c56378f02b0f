package sink

import "context"

// Sink defines the contract for token artifact stores used by the operator.
// Keys are plain strings so implementations can decide their own format.
type Sink interface {
	// Store uploads a local artifact (source) to remote storage (target key).
	Store(ctx context.Context, source, target string) error

	// Fetch downloads a remote artifact (source key) to a local path (target).
	Fetch(ctx context.Context, source, target string) error

	// Name returns the sink identifier (e.g. "file", "azblob").
	Name() string
}
