package session

import (
	"time"

	"github.com/docsage/docsage/session/docindex"
)

// Session binds one uploaded document's search index to an identifier.
// The index is built once at upload and never mutated afterwards.
type Session struct {
	ID           string
	Index        *docindex.Index
	SourceFile   string
	LastAccessed time.Time
}

// Store is the capability interface for session management. It is the only
// cross-request shared mutable state in the service; implementations must be
// safe under concurrent create/get/touch/sweep.
type Store interface {
	// Create stores a new session and returns its identifier. The id is
	// random and unpredictable: with no authentication layer it doubles as
	// a bearer token.
	Create(index *docindex.Index, sourceFile string) string

	// Get returns a snapshot of the session, if present. It does not
	// refresh LastAccessed; callers Touch explicitly when a session
	// participates in serving a request.
	Get(id string) (Session, bool)

	// Touch sets LastAccessed to now. No-op if the session is absent.
	Touch(id string)

	// Sweep removes every session idle for longer than timeout. Called
	// lazily at the start of each query-serving request.
	Sweep(timeout time.Duration)
}
