// Package session holds the bearer token the dashboard sends to the API.
//
// A Store lives as long as one browser session is being served. It is created from the
// request cookie, handed to the API client, and cleared on logout or when the API rejects
// the token. Subscribers observe every change; the web tier uses one to keep the cookie in
// sync.
package session

import "sync"

// Listener receives the new token; an empty token means the session was cleared.
type Listener func(token string)

type Store struct {
	mu        sync.RWMutex
	token     string
	nextID    int
	listeners map[int]Listener
}

func NewStore(token string) *Store {
	return &Store{token: token, listeners: make(map[int]Listener)}
}

// Get returns the current token, or "" when there is none. Callers read it at the moment they
// need it and never keep a copy.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Set(token string) {
	s.update(token)
}

func (s *Store) Clear() {
	s.update("")
}

func (s *Store) Authenticated() bool {
	return s.Get() != ""
}

// Subscribe registers l and returns a func that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) update(token string) {
	s.mu.Lock()
	changed := s.token != token
	s.token = token
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, l := range listeners {
		l(token)
	}
}
