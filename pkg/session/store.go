// Package session holds the client-side view of an authenticated session:
// the token, role and email the server handed back. It is a process-local,
// plaintext store scoped to one device, the Go analogue of the browser
// localStorage the web client uses. Nothing here is validated; the server
// is always the authority.
package session

import "sync"

type Store struct {
	mu    sync.RWMutex
	token string
	role  string
	email string
}

func NewStore() *Store {
	return &Store{}
}

// Set replaces the whole session in one step, the way a successful login or
// register response does.
func (s *Store) Set(token, role, email string) {
	s.mu.Lock()
	s.token = token
	s.role = role
	s.email = email
	s.mu.Unlock()
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Store) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// Authenticated reports whether a token is cached. It says nothing about
// the token still being valid server-side.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Clear wipes all three fields unconditionally; called on logout and on
// any Unauthorized/Forbidden response.
func (s *Store) Clear() {
	s.mu.Lock()
	s.token = ""
	s.role = ""
	s.email = ""
	s.mu.Unlock()
}
