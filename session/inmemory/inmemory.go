package inmemory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docsage/docsage/session"
	"github.com/docsage/docsage/session/docindex"
)

// Store is an in-memory session store. Sessions do not survive restarts.
type Store struct {
	sessions map[string]*session.Session
	mu       sync.RWMutex
	now      func() time.Time
}

// NewStore creates an empty in-memory session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session.Session),
		now:      time.Now,
	}
}

func (store *Store) Create(index *docindex.Index, sourceFile string) string {
	store.mu.Lock()
	defer store.mu.Unlock()
	sess := &session.Session{
		ID:           uuid.NewString(),
		Index:        index,
		SourceFile:   sourceFile,
		LastAccessed: store.now(),
	}
	store.sessions[sess.ID] = sess
	return sess.ID
}

func (store *Store) Get(id string) (session.Session, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	sess, ok := store.sessions[id]
	if !ok {
		return session.Session{}, false
	}
	return *sess, true
}

func (store *Store) Touch(id string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if sess, ok := store.sessions[id]; ok {
		sess.LastAccessed = store.now()
	}
}

func (store *Store) Sweep(timeout time.Duration) {
	store.mu.Lock()
	defer store.mu.Unlock()
	now := store.now()
	for id, sess := range store.sessions {
		if now.Sub(sess.LastAccessed) > timeout {
			delete(store.sessions, id)
		}
	}
}

// Len reports the number of live sessions.
func (store *Store) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.sessions)
}
