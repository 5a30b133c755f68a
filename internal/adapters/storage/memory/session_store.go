package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/PabloGalante/loan-agent/internal/domain"
	"github.com/PabloGalante/loan-agent/internal/observability"
)

type session struct {
	mu   sync.Mutex
	msgs []domain.Message
}

// SessionStore is an in-memory session registry. Sessions idle for longer
// than the TTL are evicted, and at most maxSessions are kept (least recently
// used first out). Each user's history is guarded by its own mutex.
type SessionStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[domain.UserID, *session]
}

// NewSessionStore creates a registry. maxSessions <= 0 means unbounded and
// ttl <= 0 disables idle expiry.
func NewSessionStore(maxSessions int, ttl time.Duration) *SessionStore {
	if maxSessions < 0 {
		maxSessions = 0
	}
	onEvict := func(_ domain.UserID, _ *session) {
		observability.ActiveSessions.Dec()
	}
	return &SessionStore{
		cache: expirable.NewLRU[domain.UserID, *session](maxSessions, onEvict, ttl),
	}
}

// lookup returns the user's session, creating it from system when create is
// set. Every hit refreshes the idle deadline.
func (s *SessionStore) lookup(userID domain.UserID, create bool, system domain.Message) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.cache.Get(userID)
	if !ok {
		if !create {
			return nil, false
		}
		// Get misses expired entries that are not purged yet; Add would
		// overwrite them in place without the eviction callback.
		s.cache.Remove(userID)
		sess = &session{msgs: []domain.Message{system}}
		observability.ActiveSessions.Inc()
	}
	s.cache.Add(userID, sess)
	return sess, true
}

func (s *SessionStore) GetOrCreate(_ context.Context, userID domain.UserID, system domain.Message) ([]domain.Message, error) {
	sess, _ := s.lookup(userID, true, system)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.msgs = domain.TrimHistory(sess.msgs)
	out := make([]domain.Message, len(sess.msgs))
	copy(out, sess.msgs)
	return out, nil
}

func (s *SessionStore) Append(_ context.Context, userID domain.UserID, msgs ...domain.Message) error {
	sess, ok := s.lookup(userID, false, domain.Message{})
	if !ok {
		return domain.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.msgs = append(sess.msgs, msgs...)
	return nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	return s.cache.Len()
}
