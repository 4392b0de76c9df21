package middleware

import (
	"context"
	"sync"

	"github.com/MrEthical07/sessiongate/session"
)

type responseSessionKey struct{}

// Session is the handler's view of the outgoing session.
//
// Until the handler changes it, the response carries no session of its own
// and the engine's derived attributes decide what is saved. The first change
// starts from a copy of the request session, so application keys survive.
type Session struct {
	mu      sync.Mutex
	request session.Values
	values  session.Values
	touched bool
}

func newSession(request session.Values) *Session {
	return &Session{request: request}
}

// ResponseSession returns the outgoing session for the request, or nil
// outside [Authenticate].
func ResponseSession(ctx context.Context) *Session {
	s, _ := ctx.Value(responseSessionKey{}).(*Session)
	return s
}

// Get reads key from the outgoing session, falling back to the request
// session while nothing has been changed.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.request
	if s.touched {
		src = s.values
	}
	v, ok := src[key]
	return v, ok
}

func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	s.touch()
	s.values[key] = value
	s.mu.Unlock()
}

func (s *Session) Delete(key string) {
	s.mu.Lock()
	s.touch()
	delete(s.values, key)
	s.mu.Unlock()
}

// Keep carries the request session over unchanged, so derived attributes
// are merged into it instead of replacing it.
func (s *Session) Keep() {
	s.mu.Lock()
	s.touch()
	s.mu.Unlock()
}

// Clear empties the outgoing session. With no derived attributes to add, the
// store destroys the session.
func (s *Session) Clear() {
	s.mu.Lock()
	s.touched = true
	s.values = session.Values{}
	s.mu.Unlock()
}

func (s *Session) touch() {
	if s.touched {
		return
	}
	s.touched = true
	s.values = s.request.Clone()
	if s.values == nil {
		s.values = session.Values{}
	}
}

// result returns the handler's session: nil when untouched.
func (s *Session) result() session.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.touched {
		return nil
	}
	return s.values.Clone()
}
