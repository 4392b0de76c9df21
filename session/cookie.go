package session

import (
	"net/http"

	"github.com/MrEthical07/sessiongate/jwt"
)

// CookieStore signs the whole session into a JWT carried in a cookie. It
// needs no server-side state; the token's expiry bounds a stolen cookie.
type CookieStore struct {
	codec  *jwt.Manager
	cookie CookieOptions
}

// NewCookieStore returns a store that signs and verifies with codec.
func NewCookieStore(codec *jwt.Manager, opts CookieOptions) *CookieStore {
	if opts.Name == "" {
		opts = DefaultCookieOptions()
	}
	return &CookieStore{codec: codec, cookie: opts}
}

// Load verifies the session cookie. Missing, expired or tampered cookies
// yield (nil, nil).
func (s *CookieStore) Load(r *http.Request) (Values, error) {
	c, err := r.Cookie(s.cookie.Name)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	values, err := s.codec.ParseSession(c.Value)
	if err != nil {
		return nil, nil
	}
	return Values(values), nil
}

// Save re-signs v into the cookie, or expires the cookie when v is empty.
func (s *CookieStore) Save(w http.ResponseWriter, _ *http.Request, v Values) error {
	if v == nil {
		return nil
	}
	if len(v) == 0 {
		http.SetCookie(w, s.cookie.expired())
		return nil
	}

	token, err := s.codec.CreateSession(map[string]any(v))
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie.cookie(token))
	return nil
}
