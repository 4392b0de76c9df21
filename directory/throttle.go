package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/sessiongate/internal/rate"
	"github.com/redis/go-redis/v9"
)

// Backend is the directory contract this package implements and decorates.
type Backend interface {
	IsAccount(v any) bool
	Anonymous() any
	FindLoginAccount(ctx context.Context, identifier any) (any, bool, error)
	FindActiveAccount(ctx context.Context, identifier any) (any, bool, error)
	VerifyPassword(ctx context.Context, identifier any, candidate string) (bool, error)
}

// ThrottleConfig bounds password failures per username.
type ThrottleConfig struct {
	MaxFailures int
	Window      time.Duration
	// Prefix namespaces the Redis counters. Default: "sg:fail".
	Prefix string
}

// Throttle wraps a Backend and refuses password checks for a username that
// failed MaxFailures times within Window. A refused check reports a wrong
// password; the correct password does not get through until the window ends.
type Throttle struct {
	Backend
	limiter *rate.Limiter
}

// NewThrottle decorates inner with Redis-backed failure counting.
func NewThrottle(inner Backend, client redis.UniversalClient, cfg ThrottleConfig) (*Throttle, error) {
	if cfg.MaxFailures <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("throttle requires MaxFailures > 0 and Window > 0")
	}
	return &Throttle{
		Backend: inner,
		limiter: rate.New(client, rate.Config{
			Prefix:      cfg.Prefix,
			MaxFailures: cfg.MaxFailures,
			Window:      cfg.Window,
		}),
	}, nil
}

func (t *Throttle) VerifyPassword(ctx context.Context, identifier any, candidate string) (bool, error) {
	name, ok := Identifier(identifier)
	if !ok {
		return false, nil
	}

	if err := t.limiter.Check(ctx, name); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	ok, err := t.Backend.VerifyPassword(ctx, identifier, candidate)
	if err != nil {
		return false, err
	}
	if !ok {
		if _, err := t.limiter.Fail(ctx, name); err != nil {
			return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return false, nil
	}
	if err := t.limiter.Reset(ctx, name); err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return true, nil
}

func (t *Throttle) AccountName(v any) string { return Name(v) }
