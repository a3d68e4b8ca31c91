package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultCookieName = "partsshop_session"

// CookieCodec stores a Session in an HS256-signed cookie.
type CookieCodec struct {
	secret []byte
	issuer string

	Name   string
	Secure bool
}

func NewCookieCodec(secret string, secure bool) *CookieCodec {
	return &CookieCodec{
		secret: []byte(secret),
		issuer: "partsshop-admin",
		Name:   DefaultCookieName,
		Secure: secure,
	}
}

type claims struct {
	Authenticated bool   `json:"auth,omitempty"`
	LastActivity  string `json:"last,omitempty"`
	Flash         string `json:"flash,omitempty"`
	jwt.RegisteredClaims
}

func (c *CookieCodec) Encode(s *Session) (string, error) {
	cl := claims{
		Authenticated: s.Authenticated,
		LastActivity:  s.LastActivity,
		Flash:         s.Flash,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   c.issuer,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	return token.SignedString(c.secret)
}

func (c *CookieCodec) Decode(raw string) (*Session, error) {
	var cl claims

	token, err := jwt.ParseWithClaims(raw, &cl, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithIssuer(c.issuer))
	if err != nil || token == nil || !token.Valid {
		return nil, errors.New("invalid session cookie")
	}

	return &Session{
		Authenticated: cl.Authenticated,
		LastActivity:  cl.LastActivity,
		Flash:         cl.Flash,
	}, nil
}

// Load reads the session from the request. A missing, tampered or foreign
// cookie yields an anonymous session.
func (c *CookieCodec) Load(r *http.Request) *Session {
	ck, err := r.Cookie(c.Name)
	if err != nil || ck.Value == "" {
		return &Session{}
	}
	s, err := c.Decode(ck.Value)
	if err != nil {
		return &Session{}
	}
	return s
}

// Save writes s to the response, replacing any session cookie already queued.
// An empty session expires the cookie.
func (c *CookieCodec) Save(w http.ResponseWriter, s *Session) error {
	dropQueuedCookie(w.Header(), c.Name)

	ck := &http.Cookie{
		Name:     c.Name,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	if s == nil || s.IsZero() {
		ck.MaxAge = -1
		http.SetCookie(w, ck)
		return nil
	}

	v, err := c.Encode(s)
	if err != nil {
		return err
	}
	ck.Value = v
	http.SetCookie(w, ck)
	return nil
}

func dropQueuedCookie(h http.Header, name string) {
	prefix := name + "="
	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
}
