package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"archive-analyzer/services"
)

const sessionCookie = "archive_session"

// ErrBadPassword is returned for a wrong password. It is an expected outcome
// of the gate, not a fault.
var ErrBadPassword = errors.New("web: password incorrect")

// checkPassword compares in constant time.
func checkPassword(want, given string) error {
	if subtle.ConstantTimeCompare([]byte(want), []byte(given)) != 1 {
		return ErrBadPassword
	}
	return nil
}

// session is one authenticated browser. It remembers the last report so
// exports are serialized from it at request time.
type session struct {
	report *services.Report
}

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

func (s *sessionStore) create() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &session{}
	s.mu.Unlock()
	return id
}

func (s *sessionStore) lookup(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	s.mu.RLock()
	_, ok := s.sessions[c.Value]
	s.mu.RUnlock()
	return c.Value, ok
}

func (s *sessionStore) report(id string) *services.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[id]; ok {
		return sess.report
	}
	return nil
}

func (s *sessionStore) setReport(id string, rep *services.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.report = rep
	}
}
