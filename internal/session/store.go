// Package session хранит сессии пользователей и определяет текущего пользователя запроса.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Имена cookies
const (
	CookieSession = "session_id"
	CookieCSRF    = "csrf_token"
	CookieView    = "view"
)

type Session struct {
	ID        string
	UserID    string
	CSRFToken string
}

// Store - сессии в памяти процесса с истечением по TTL
type Store struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) Create(userID string) Session {
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CSRFToken: uuid.NewString(),
	}
	s.cache.SetDefault(sess.ID, sess)
	return sess
}

// Get возвращает сессию и продлевает её срок
func (s *Store) Get(id string) (Session, bool) {
	if id == "" {
		return Session{}, false
	}
	v, ok := s.cache.Get(id)
	if !ok {
		return Session{}, false
	}
	sess := v.(Session)
	s.cache.SetDefault(id, sess)
	return sess, true
}

func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}
