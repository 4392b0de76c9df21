package directory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/sessiongate"
	"github.com/MrEthical07/sessiongate/directory"
	"github.com/MrEthical07/sessiongate/directory/directorytest"
	"github.com/MrEthical07/sessiongate/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var (
	_ sessiongate.Directory    = (*directory.Memory)(nil)
	_ sessiongate.Directory    = (*directory.Redis)(nil)
	_ sessiongate.Directory    = (*directorytest.Fake)(nil)
	_ sessiongate.AccountNamer = (*directory.Memory)(nil)
	_ sessiongate.AccountNamer = (*directory.Redis)(nil)
)

func fastHasher(t *testing.T) *password.Argon2 {
	t.Helper()
	h, err := password.NewArgon2(password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	return h
}

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

// directoryUnderTest is the surface both implementations share.
type directoryUnderTest interface {
	sessiongate.Directory
	sessiongate.AccountNamer
}

func seeded(t *testing.T) map[string]directoryUnderTest {
	t.Helper()
	ctx := context.Background()
	h := fastHasher(t)

	david := directory.Account{Username: "david", DisplayName: "David", Roles: []string{"admin"}}
	robot := directory.Account{Username: "robot", APIEnabled: true}

	mem := directory.NewMemory(h)
	if err := mem.Put(david, "snowy"); err != nil {
		t.Fatalf("memory put: %v", err)
	}
	if err := mem.Put(robot, "k3y"); err != nil {
		t.Fatalf("memory put: %v", err)
	}

	_, client := newTestRedis(t)
	rd := directory.NewRedis(client, h, "")
	if err := rd.Put(ctx, david, "snowy"); err != nil {
		t.Fatalf("redis put: %v", err)
	}
	if err := rd.Put(ctx, robot, "k3y"); err != nil {
		t.Fatalf("redis put: %v", err)
	}

	return map[string]directoryUnderTest{"memory": mem, "redis": rd}
}

func TestFindLoginAccount(t *testing.T) {
	ctx := context.Background()
	for name, dir := range seeded(t) {
		t.Run(name, func(t *testing.T) {
			tests := []struct {
				identifier any
				want       string
				found      bool
			}{
				{"david", "david", true},
				{directory.Account{Username: "david"}, "david", true},
				{&directory.Account{Username: "david"}, "david", true},
				{map[string]any{"username": "david", "display_name": "spoofed"}, "david", true},
				{"nobody", "", false},
				{"", "", false},
				{42, "", false},
				{nil, "", false},
			}
			for _, tt := range tests {
				got, found, err := dir.FindLoginAccount(ctx, tt.identifier)
				if err != nil {
					t.Fatalf("FindLoginAccount(%v): %v", tt.identifier, err)
				}
				if found != tt.found {
					t.Fatalf("FindLoginAccount(%v) found = %v, want %v", tt.identifier, found, tt.found)
				}
				if !found {
					continue
				}
				a := got.(directory.Account)
				if a.Username != tt.want || a.DisplayName != "David" || !a.HasRole("admin") {
					t.Fatalf("FindLoginAccount(%v) = %+v", tt.identifier, a)
				}
			}
		})
	}
}

func TestFindActiveAccountRequiresAPIAccess(t *testing.T) {
	ctx := context.Background()
	for name, dir := range seeded(t) {
		t.Run(name, func(t *testing.T) {
			if _, found, err := dir.FindActiveAccount(ctx, "david"); err != nil || found {
				t.Fatalf("david: found=%v err=%v, want not found", found, err)
			}
			got, found, err := dir.FindActiveAccount(ctx, "robot")
			if err != nil || !found {
				t.Fatalf("robot: found=%v err=%v", found, err)
			}
			if dir.AccountName(got) != "robot" {
				t.Fatalf("AccountName = %q", dir.AccountName(got))
			}
		})
	}
}

func TestVerifyPassword(t *testing.T) {
	ctx := context.Background()
	for name, dir := range seeded(t) {
		t.Run(name, func(t *testing.T) {
			tests := []struct {
				identifier any
				candidate  string
				want       bool
			}{
				{"david", "snowy", true},
				{directory.Account{Username: "david"}, "snowy", true},
				{"david", "sunny", false},
				{"robot", "k3y", true},
				{"nobody", "snowy", false},
			}
			for _, tt := range tests {
				ok, err := dir.VerifyPassword(ctx, tt.identifier, tt.candidate)
				if err != nil {
					t.Fatalf("VerifyPassword(%v): %v", tt.identifier, err)
				}
				if ok != tt.want {
					t.Fatalf("VerifyPassword(%v, %q) = %v, want %v", tt.identifier, tt.candidate, ok, tt.want)
				}
			}
		})
	}
}

func TestDisabledAccountsDoNotResolve(t *testing.T) {
	ctx := context.Background()
	h := fastHasher(t)

	mem := directory.NewMemory(h)
	if err := mem.Put(directory.Account{Username: "david"}, "snowy"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mem.SetDisabled("david", true) {
		t.Fatal("expected SetDisabled to find david")
	}

	_, client := newTestRedis(t)
	rd := directory.NewRedis(client, h, "test:acct")
	if err := rd.Put(ctx, directory.Account{Username: "david"}, "snowy"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := rd.SetDisabled(ctx, "david", true); err != nil {
		t.Fatalf("SetDisabled: %v", err)
	}

	for name, dir := range map[string]sessiongate.Directory{"memory": mem, "redis": rd} {
		if _, found, _ := dir.FindLoginAccount(ctx, "david"); found {
			t.Fatalf("%s: disabled account resolved", name)
		}
		if ok, _ := dir.VerifyPassword(ctx, "david", "snowy"); ok {
			t.Fatalf("%s: disabled account verified", name)
		}
	}
}

func TestStructuralRecognition(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"account", directory.Account{Username: "ghost"}, true},
		{"pointer", &directory.Account{Username: "ghost"}, true},
		{"decoded map", map[string]any{"username": "ghost"}, true},
		{"anonymous", directory.Anonymous, false},
		{"nil pointer", (*directory.Account)(nil), false},
		{"username string", "ghost", false},
		{"map without username", map[string]any{"name": "ghost"}, false},
		{"map with numeric username", map[string]any{"username": 7}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := directory.IsAccount(tt.v); got != tt.want {
				t.Fatalf("IsAccount(%#v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestRedisDirectoryUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	rd := directory.NewRedis(client, fastHasher(t), "")
	mr.Close()

	_, _, err = rd.FindLoginAccount(context.Background(), "david")
	if !errors.Is(err, directory.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestPutRequiresUsername(t *testing.T) {
	mem := directory.NewMemory(fastHasher(t))
	if err := mem.Put(directory.Account{}, "x"); !errors.Is(err, directory.ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
}

func TestFakeCountsAndFails(t *testing.T) {
	ctx := context.Background()
	f := directorytest.New().Add(directory.Account{Username: "david"}, "snowy")

	if ok, _ := f.VerifyPassword(ctx, "david", "snowy"); !ok {
		t.Fatal("expected plaintext password to verify")
	}
	boom := errors.New("boom")
	f.Fail(boom)
	if _, _, err := f.FindLoginAccount(ctx, "david"); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	f.Fail(nil)

	got := f.Calls()
	if got.Verify != 1 || got.FindLogin != 1 || got.FindActive != 0 {
		t.Fatalf("unexpected calls: %+v", got)
	}
}

func TestThrottleRefusesAfterFailures(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)

	inner := directorytest.New().Add(directory.Account{Username: "david"}, "snowy")
	dir, err := directory.NewThrottle(inner, client, directory.ThrottleConfig{MaxFailures: 2, Window: time.Minute})
	if err != nil {
		t.Fatalf("NewThrottle: %v", err)
	}
	var _ sessiongate.Directory = dir

	for i := 0; i < 2; i++ {
		if ok, err := dir.VerifyPassword(ctx, "david", "sunny"); err != nil || ok {
			t.Fatalf("attempt %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, err := dir.VerifyPassword(ctx, "david", "snowy"); err != nil || ok {
		t.Fatalf("throttled attempt: ok=%v err=%v", ok, err)
	}
	if got := inner.Calls().Verify; got != 2 {
		t.Fatalf("inner verify calls = %d, want 2", got)
	}
	if ok, err := dir.VerifyPassword(ctx, "robot", "x"); err != nil || ok {
		t.Fatalf("other user: ok=%v err=%v", ok, err)
	}
}
