package directory

import (
	"context"
	"sync"

	"github.com/MrEthical07/sessiongate/password"
)

type record struct {
	account  Account
	hash     string
	disabled bool
}

// Memory is an in-process directory guarded by a RWMutex.
type Memory struct {
	shape

	hasher *password.Argon2

	mu       sync.RWMutex
	accounts map[string]record
}

// NewMemory returns an empty directory that hashes passwords with hasher.
func NewMemory(hasher *password.Argon2) *Memory {
	return &Memory{
		hasher:   hasher,
		accounts: make(map[string]record),
	}
}

// Put stores a, replacing any account with the same username, and sets its
// password.
func (m *Memory) Put(a Account, plaintext string) error {
	if a.Username == "" {
		return ErrInvalidAccount
	}
	hash, err := m.hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	m.PutHash(a, hash)
	return nil
}

// PutHash stores a with a precomputed PHC hash.
func (m *Memory) PutHash(a Account, hash string) {
	m.mu.Lock()
	m.accounts[a.Username] = record{account: a.clone(), hash: hash}
	m.mu.Unlock()
}

// SetDisabled toggles whether username resolves. It reports whether the
// account exists.
func (m *Memory) SetDisabled(username string, disabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.accounts[username]
	if !ok {
		return false
	}
	rec.disabled = disabled
	m.accounts[username] = rec
	return true
}

// Delete removes username. Deleting a missing account is a no-op.
func (m *Memory) Delete(username string) {
	m.mu.Lock()
	delete(m.accounts, username)
	m.mu.Unlock()
}

func (m *Memory) lookup(identifier any) (record, bool) {
	name, ok := Identifier(identifier)
	if !ok {
		return record{}, false
	}

	m.mu.RLock()
	rec, ok := m.accounts[name]
	m.mu.RUnlock()
	if !ok || rec.disabled {
		return record{}, false
	}
	return rec, true
}

func (m *Memory) FindLoginAccount(_ context.Context, identifier any) (any, bool, error) {
	rec, ok := m.lookup(identifier)
	if !ok {
		return nil, false, nil
	}
	return rec.account.clone(), true, nil
}

func (m *Memory) FindActiveAccount(_ context.Context, identifier any) (any, bool, error) {
	rec, ok := m.lookup(identifier)
	if !ok || !rec.account.APIEnabled {
		return nil, false, nil
	}
	return rec.account.clone(), true, nil
}

// VerifyPassword checks candidate against the stored hash. A stored hash
// that cannot be parsed is reported as an error.
func (m *Memory) VerifyPassword(_ context.Context, identifier any, candidate string) (bool, error) {
	rec, ok := m.lookup(identifier)
	if !ok {
		return false, nil
	}
	return m.hasher.Verify(candidate, rec.hash)
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}
