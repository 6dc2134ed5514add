// Package session keeps the backend-issued bearer token for browser sessions.
// Tokens are never verified here; the backend remains the authority.
package session

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const CookieName = "iaas_session"

var (
	ErrEmptyToken   = errors.New("token is required")
	ErrTokenExpired = errors.New("token already expired")
)

type Session struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	token     string
}

func (s Session) Token() string { return s.token }

type Store struct {
	mu         sync.Mutex
	sessions   map[string]Session
	defaultTTL time.Duration
	now        func() time.Time
}

// NewStore creates an in-memory store. Opaque tokens without an exp claim
// live for defaultTTL.
func NewStore(defaultTTL time.Duration) *Store {
	if defaultTTL <= 0 {
		defaultTTL = 8 * time.Hour
	}
	return &Store{
		sessions:   make(map[string]Session),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Create stores token under a fresh session id.
func (s *Store) Create(token string) (Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Session{}, ErrEmptyToken
	}

	now := s.now()
	sess := Session{ID: uuid.NewString(), ExpiresAt: now.Add(s.defaultTTL), token: token}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		sess.Subject = claims.Subject
		if claims.ExpiresAt != nil {
			if !claims.ExpiresAt.After(now) {
				return Session{}, ErrTokenExpired
			}
			sess.ExpiresAt = claims.ExpiresAt.Time
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	if !sess.ExpiresAt.After(s.now()) {
		delete(s.sessions, id)
		return Session{}, false
	}
	return sess, true
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) pruneLocked(now time.Time) {
	for id, sess := range s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(s.sessions, id)
		}
	}
}

// TokenFor resolves the bearer token for r: an Authorization header wins over
// the session cookie. Empty means anonymous.
func (s *Store) TokenFor(r *http.Request) string {
	if tok := BearerToken(r); tok != "" {
		return tok
	}
	if s == nil {
		return ""
	}
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	sess, ok := s.Get(c.Value)
	if !ok {
		return ""
	}
	return sess.token
}

func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
