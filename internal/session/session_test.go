package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestLoginOK_Anonymous(t *testing.T) {
	s := &Session{}
	assert.False(t, LoginOK(s, t0, DefaultTTL))
	assert.False(t, LoginOK(nil, t0, DefaultTTL))
}

func TestLoginOK_SlidingWindow(t *testing.T) {
	s := &Session{}
	s.Login(t0)

	require.True(t, LoginOK(s, t0.Add(59*time.Minute), DefaultTTL))
	assert.Equal(t, t0.Add(59*time.Minute).Format(time.RFC3339Nano), s.LastActivity)

	// measured from the last touch, not from login
	assert.True(t, LoginOK(s, t0.Add(118*time.Minute), DefaultTTL))
}

func TestLoginOK_Expired(t *testing.T) {
	s := &Session{}
	s.Login(t0)
	s.SetFlash("hello")

	assert.False(t, LoginOK(s, t0.Add(61*time.Minute), DefaultTTL))
	assert.True(t, s.IsZero())
}

func TestLoginOK_ExactlyTTLIsStillValid(t *testing.T) {
	s := &Session{}
	s.Login(t0)
	assert.True(t, LoginOK(s, t0.Add(DefaultTTL), DefaultTTL))
}

func TestLoginOK_BadTimestamp(t *testing.T) {
	for name, last := range map[string]string{
		"missing":  "",
		"garbage":  "yesterday-ish",
		"unixtime": "1710406800.5",
	} {
		t.Run(name, func(t *testing.T) {
			s := &Session{Authenticated: true, LastActivity: last}
			assert.False(t, LoginOK(s, t0, DefaultTTL))
			assert.False(t, s.Authenticated)
			assert.Empty(t, s.LastActivity)
		})
	}
}

func TestLoginOK_ImmediatelyAfterLoginAdvances(t *testing.T) {
	s := &Session{}
	s.Login(t0)
	require.True(t, s.Authenticated)
	require.NotEmpty(t, s.LastActivity)

	before := s.LastActivity
	assert.True(t, LoginOK(s, t0.Add(time.Second), DefaultTTL))
	assert.NotEqual(t, before, s.LastActivity)
}

func TestFlash(t *testing.T) {
	s := &Session{}
	s.SetFlash("Invalid product index")
	assert.Equal(t, "Invalid product index", s.PopFlash())
	assert.Empty(t, s.PopFlash())
}

func TestFromContext(t *testing.T) {
	assert.True(t, FromContext(context.Background()).IsZero())

	s := &Session{Authenticated: true}
	got := FromContext(WithSession(context.Background(), s))
	assert.Same(t, s, got)
}
