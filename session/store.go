package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis failure surfaced by [RedisStore].
var ErrRedisUnavailable = errors.New("redis unavailable")

const minSlidingTTL = time.Second

// Store loads a request's session and persists the response session.
//
// Load returns (nil, nil) when the request carries no usable session. Save
// with nil Values is a no-op; with empty Values it destroys the session.
type Store interface {
	Load(r *http.Request) (Values, error)
	Save(w http.ResponseWriter, r *http.Request, v Values) error
}

// CookieOptions shape the cookie a store sets.
type CookieOptions struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	// MaxAge in seconds; zero makes a browser-session cookie.
	MaxAge int
}

// DefaultCookieOptions returns a host-only, HTTP-only, Lax cookie named
// "sessiongate".
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{
		Name:     "sessiongate",
		Path:     "/",
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (o CookieOptions) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     o.Name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   o.MaxAge,
		Secure:   o.Secure,
		HttpOnly: o.HTTPOnly,
		SameSite: o.SameSite,
	}
}

func (o CookieOptions) expired() *http.Cookie {
	c := o.cookie("")
	c.MaxAge = -1
	return c
}

// RedisStore keeps session state in Redis under a random id carried in a
// cookie. Every successful Load slides the key's TTL forward.
type RedisStore struct {
	redis   redis.UniversalClient
	prefix  string
	ttl     time.Duration
	sliding bool
	cookie  CookieOptions
}

// RedisOption configures a [RedisStore].
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the Redis key namespace. Default: "sg:session".
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithTTL sets how long an idle session survives in Redis. Default: 30 days,
// so remembered sessions outlive the engine's idle timeout.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// WithSliding toggles TTL refresh on Load. Default: on.
func WithSliding(enabled bool) RedisOption {
	return func(s *RedisStore) { s.sliding = enabled }
}

// WithCookie replaces the cookie options.
func WithCookie(opts CookieOptions) RedisOption {
	return func(s *RedisStore) { s.cookie = opts }
}

// NewRedisStore creates a session [Store] backed by the given Redis client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		redis:   client,
		prefix:  "sg:session",
		ttl:     30 * 24 * time.Hour,
		sliding: true,
		cookie:  DefaultCookieOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *RedisStore) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.cookie.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}

// Load reads the session named by the request cookie.
//
//	Performance: 1 GET, plus 1 EXPIRE when sliding.
func (s *RedisStore) Load(r *http.Request) (Values, error) {
	id, ok := s.sessionID(r)
	if !ok {
		return nil, nil
	}
	return s.Get(r.Context(), id)
}

// Get reads a session by id. A missing or corrupt blob yields (nil, nil).
func (s *RedisStore) Get(ctx context.Context, sessionID string) (Values, error) {
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}

	v, err := Decode(data)
	if err != nil {
		if delErr := s.redis.Del(ctx, key).Err(); delErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrRedisUnavailable, delErr)
		}
		return nil, nil
	}

	if s.sliding {
		if err := s.redis.Expire(ctx, key, s.nextTTL()).Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
		}
	}
	return v, nil
}

// Save writes v under the request's existing session id, or a fresh one.
//
//	Performance: 1 SET, or 1 DEL when clearing.
func (s *RedisStore) Save(w http.ResponseWriter, r *http.Request, v Values) error {
	if v == nil {
		return nil
	}
	ctx := r.Context()

	id, ok := s.sessionID(r)
	if len(v) == 0 {
		if ok {
			if err := s.Delete(ctx, id); err != nil {
				return err
			}
		}
		http.SetCookie(w, s.cookie.expired())
		return nil
	}

	if !ok {
		id = uuid.NewString()
	}
	if err := s.Put(ctx, id, v); err != nil {
		return err
	}
	http.SetCookie(w, s.cookie.cookie(id))
	return nil
}

// Put stores v under sessionID.
func (s *RedisStore) Put(ctx context.Context, sessionID string, v Values) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(sessionID), data, s.nextTTL()).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *RedisStore) nextTTL() time.Duration {
	if s.ttl < minSlidingTTL {
		return minSlidingTTL
	}
	return s.ttl
}
