package session

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Store keeps sessions in memory with a sliding TTL. Evicted sessions have
// their processing run stopped.
type Store struct {
	cache *gocache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewStore creates a session store
func NewStore(ttl, cleanupInterval time.Duration, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	c := gocache.New(ttl, cleanupInterval)
	c.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Close()
		}
		log.Debug("session evicted", zap.String("session", id))
	})
	return &Store{cache: c, ttl: ttl, log: log}
}

// Get returns a live session and extends its lifetime
func (st *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	v, found := st.cache.Get(id)
	if !found {
		return nil, false
	}
	s := v.(*Session)
	st.cache.Set(id, s, st.ttl)
	return s, true
}

// Create starts a new session on the landing step
func (st *Store) Create() *Session {
	s := newSession(uuid.NewString(), st.log)
	st.cache.Set(s.ID, s, st.ttl)
	return s
}

// GetOrCreate returns the session for id, creating one if it is unknown
// or expired. created reports whether a new session was made.
func (st *Store) GetOrCreate(id string) (s *Session, created bool) {
	if s, ok := st.Get(id); ok {
		return s, false
	}
	return st.Create(), true
}

// Delete stops and forgets a session
func (st *Store) Delete(id string) {
	st.cache.Delete(id)
}

// Len returns the number of sessions held, including expired ones not yet cleaned up
func (st *Store) Len() int {
	return st.cache.ItemCount()
}

// Close stops every session and empties the store
func (st *Store) Close() {
	for _, item := range st.cache.Items() {
		if s, ok := item.Object.(*Session); ok {
			s.Close()
		}
	}
	st.cache.Flush()
}
