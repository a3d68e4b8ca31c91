// Package session holds the admin session state and its sliding expiry rules.
package session

import (
	"context"
	"time"
)

// DefaultTTL is how long an authenticated session survives without activity.
const DefaultTTL = time.Hour

const timeLayout = time.RFC3339Nano

// Session is the per-request admin session. LastActivity is kept as text so
// a tampered or legacy value that does not parse can be detected.
type Session struct {
	Authenticated bool
	LastActivity  string
	Flash         string
}

// Login marks the session authenticated as of now.
func (s *Session) Login(now time.Time) {
	s.Authenticated = true
	s.Touch(now)
}

func (s *Session) Touch(now time.Time) {
	s.LastActivity = now.UTC().Format(timeLayout)
}

func (s *Session) Clear() {
	*s = Session{}
}

func (s *Session) IsZero() bool {
	return *s == Session{}
}

// SetFlash stores a one-shot notice shown on the next rendered page.
func (s *Session) SetFlash(msg string) {
	s.Flash = msg
}

// PopFlash returns the pending notice and removes it.
func (s *Session) PopFlash() string {
	msg := s.Flash
	s.Flash = ""
	return msg
}

// LoginOK reports whether s is an authenticated session that has been active
// within ttl. A valid session is touched; an expired or unreadable one is
// cleared.
func LoginOK(s *Session, now time.Time, ttl time.Duration) bool {
	if s == nil || !s.Authenticated {
		return false
	}

	if s.LastActivity == "" {
		s.Clear()
		return false
	}

	last, err := time.Parse(timeLayout, s.LastActivity)
	if err != nil {
		s.Clear()
		return false
	}

	if now.Sub(last) > ttl {
		s.Clear()
		return false
	}

	s.Touch(now)
	return true
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's session, or a fresh anonymous one when
// none was attached.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok && s != nil {
		return s
	}
	return &Session{}
}
