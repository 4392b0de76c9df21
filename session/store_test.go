package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/sessiongate/jwt"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

// roundTrip replays the cookies set on rec into a fresh request.
func roundTrip(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			r.AddCookie(c)
		}
	}
	return r
}

func TestRedisStoreLifecycle(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, WithTTL(time.Hour))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	got, err := store.Load(r)
	if err != nil || got != nil {
		t.Fatalf("Load without cookie = %v, %v", got, err)
	}

	rec := httptest.NewRecorder()
	if err := store.Save(rec, r, Values{KeyFlash: "Welcome", KeyLastRequest: int64(123)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sessiongate" || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
	key := "sg:session:" + cookies[0].Value
	if !mr.Exists(key) {
		t.Fatalf("expected %s in redis", key)
	}

	next := roundTrip(rec)
	got, err = store.Load(next)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f, _ := got.String(KeyFlash); f != "Welcome" {
		t.Fatalf("flash = %q", f)
	}
	if ts, _ := got.Int64(KeyLastRequest); ts != 123 {
		t.Fatalf("last_request = %d", ts)
	}

	// Saving again keeps the same id.
	rec2 := httptest.NewRecorder()
	if err := store.Save(rec2, next, Values{KeyFlash: "Bye"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if c := rec2.Result().Cookies(); len(c) != 1 || c[0].Value != cookies[0].Value {
		t.Fatalf("session id changed: %+v", c)
	}

	// Empty values destroy the session.
	rec3 := httptest.NewRecorder()
	if err := store.Save(rec3, next, Values{}); err != nil {
		t.Fatalf("Save empty: %v", err)
	}
	if mr.Exists(key) {
		t.Fatal("expected session key to be deleted")
	}
	if c := rec3.Result().Cookies(); len(c) != 1 || c[0].MaxAge != -1 {
		t.Fatalf("expected expired cookie, got %+v", c)
	}
}

func TestRedisStoreNilSaveIsNoOp(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client)

	rec := httptest.NewRecorder()
	if err := store.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil); err != nil {
		t.Fatalf("Save nil: %v", err)
	}
	if len(rec.Result().Cookies()) != 0 || len(mr.Keys()) != 0 {
		t.Fatal("nil save touched the response or redis")
	}
}

func TestRedisStoreSlidingTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, WithTTL(time.Minute))
	ctx := context.Background()

	if err := store.Put(ctx, "0b0f0f6e-8d44-4e5c-9f55-7d2a0f5a3b11", Values{"a": 1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	key := "sg:session:0b0f0f6e-8d44-4e5c-9f55-7d2a0f5a3b11"

	mr.FastForward(50 * time.Second)
	if _, err := store.Get(ctx, "0b0f0f6e-8d44-4e5c-9f55-7d2a0f5a3b11"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Fatalf("TTL after Get = %v, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)
	got, err := store.Get(ctx, "0b0f0f6e-8d44-4e5c-9f55-7d2a0f5a3b11")
	if err != nil || got != nil {
		t.Fatalf("expired Get = %v, %v", got, err)
	}
}

func TestRedisStoreIgnoresForeignCookies(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewRedisStore(client)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sessiongate", Value: "../../etc/passwd"})
	got, err := store.Load(r)
	if err != nil || got != nil {
		t.Fatalf("Load = %v, %v", got, err)
	}
}

func TestRedisStoreDropsCorruptBlob(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client)

	const id = "0b0f0f6e-8d44-4e5c-9f55-7d2a0f5a3b11"
	if err := mr.Set("sg:session:"+id, "garbage"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := store.Get(context.Background(), id)
	if err != nil || got != nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if mr.Exists("sg:session:" + id) {
		t.Fatal("expected corrupt blob to be deleted")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewRedisStore(client)
	mr.Close()

	err = store.Put(context.Background(), "0b0f0f6e-8d44-4e5c-9f55-7d2a0f5a3b11", Values{"a": 1})
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}

func TestCookieStoreRoundTrip(t *testing.T) {
	codec, err := jwt.NewManager(jwt.Config{
		SessionTTL:    time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("cookie-secret-cookie-secret"),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	store := NewCookieStore(codec, CookieOptions{})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := store.Save(rec, r, Values{KeyUser: map[string]any{"username": "david"}, KeyLastRequest: int64(123)}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(roundTrip(rec))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ts, ok := got.Int64(KeyLastRequest); !ok || ts != 123 {
		t.Fatalf("last_request = %d, %v", ts, ok)
	}

	tampered := httptest.NewRequest(http.MethodGet, "/", nil)
	tampered.AddCookie(&http.Cookie{Name: "sessiongate", Value: "eyJhbGciOiJub25lIn0.e30."})
	if got, err := store.Load(tampered); err != nil || got != nil {
		t.Fatalf("tampered Load = %v, %v", got, err)
	}

	rec2 := httptest.NewRecorder()
	if err := store.Save(rec2, r, Values{}); err != nil {
		t.Fatalf("Save empty: %v", err)
	}
	if c := rec2.Result().Cookies(); len(c) != 1 || c[0].MaxAge != -1 {
		t.Fatalf("expected expired cookie, got %+v", c)
	}
}
