package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrEthical07/sessiongate/password"
	"github.com/redis/go-redis/v9"
)

const (
	fieldDisplayName = "display_name"
	fieldRoles       = "roles"
	fieldAPIEnabled  = "api_enabled"
	fieldDisabled    = "disabled"
	fieldHash        = "password_hash"
)

// Redis keeps one hash per account under "<prefix>:<username>".
type Redis struct {
	shape

	redis  redis.UniversalClient
	hasher *password.Argon2
	prefix string
}

// NewRedis returns a directory over client. An empty prefix defaults to
// "sg:account".
func NewRedis(client redis.UniversalClient, hasher *password.Argon2, prefix string) *Redis {
	if prefix == "" {
		prefix = "sg:account"
	}
	return &Redis{redis: client, hasher: hasher, prefix: prefix}
}

func (r *Redis) key(username string) string {
	return r.prefix + ":" + username
}

// Put writes a and its password hash in one HSET.
func (r *Redis) Put(ctx context.Context, a Account, plaintext string) error {
	if a.Username == "" {
		return ErrInvalidAccount
	}
	hash, err := r.hasher.Hash(plaintext)
	if err != nil {
		return err
	}

	err = r.redis.HSet(ctx, r.key(a.Username),
		fieldDisplayName, a.DisplayName,
		fieldRoles, strings.Join(a.Roles, ","),
		fieldAPIEnabled, flag(a.APIEnabled),
		fieldDisabled, flag(false),
		fieldHash, hash,
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// SetDisabled toggles whether username resolves.
func (r *Redis) SetDisabled(ctx context.Context, username string, disabled bool) error {
	if err := r.redis.HSet(ctx, r.key(username), fieldDisabled, flag(disabled)).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, username string) error {
	if err := r.redis.Del(ctx, r.key(username)).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) lookup(ctx context.Context, identifier any) (Account, string, bool, error) {
	name, ok := Identifier(identifier)
	if !ok {
		return Account{}, "", false, nil
	}

	fields, err := r.redis.HGetAll(ctx, r.key(name)).Result()
	if err != nil {
		return Account{}, "", false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(fields) == 0 || fields[fieldDisabled] == "1" {
		return Account{}, "", false, nil
	}

	a := Account{
		Username:    name,
		DisplayName: fields[fieldDisplayName],
		APIEnabled:  fields[fieldAPIEnabled] == "1",
	}
	if roles := fields[fieldRoles]; roles != "" {
		a.Roles = strings.Split(roles, ",")
	}
	return a, fields[fieldHash], true, nil
}

func (r *Redis) FindLoginAccount(ctx context.Context, identifier any) (any, bool, error) {
	a, _, ok, err := r.lookup(ctx, identifier)
	if err != nil || !ok {
		return nil, false, err
	}
	return a, true, nil
}

func (r *Redis) FindActiveAccount(ctx context.Context, identifier any) (any, bool, error) {
	a, _, ok, err := r.lookup(ctx, identifier)
	if err != nil || !ok || !a.APIEnabled {
		return nil, false, err
	}
	return a, true, nil
}

func (r *Redis) VerifyPassword(ctx context.Context, identifier any, candidate string) (bool, error) {
	_, hash, ok, err := r.lookup(ctx, identifier)
	if err != nil || !ok {
		return false, err
	}
	return r.hasher.Verify(candidate, hash)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
