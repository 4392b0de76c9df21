// Package directorytest provides an in-memory account directory for tests.
// Passwords are stored in plain text and every lookup is counted, so tests
// can assert how often the engine consulted the directory.
package directorytest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/sessiongate/directory"
)

// Calls counts directory operations.
type Calls struct {
	FindLogin  int
	FindActive int
	Verify     int
}

// Fake is a concurrency-safe test directory.
type Fake struct {
	mu        sync.RWMutex
	accounts  map[string]directory.Account
	passwords map[string]string

	err atomic.Pointer[error]

	findLogin  atomic.Int64
	findActive atomic.Int64
	verify     atomic.Int64
}

func New() *Fake {
	return &Fake{
		accounts:  make(map[string]directory.Account),
		passwords: make(map[string]string),
	}
}

// Add registers an account and returns f for chaining.
func (f *Fake) Add(a directory.Account, password string) *Fake {
	f.mu.Lock()
	f.accounts[a.Username] = a
	f.passwords[a.Username] = password
	f.mu.Unlock()
	return f
}

// Fail makes every subsequent operation return err. Fail(nil) clears it.
func (f *Fake) Fail(err error) {
	if err == nil {
		f.err.Store(nil)
		return
	}
	f.err.Store(&err)
}

func (f *Fake) Calls() Calls {
	return Calls{
		FindLogin:  int(f.findLogin.Load()),
		FindActive: int(f.findActive.Load()),
		Verify:     int(f.verify.Load()),
	}
}

func (f *Fake) failure() error {
	if p := f.err.Load(); p != nil {
		return *p
	}
	return nil
}

func (f *Fake) IsAccount(v any) bool { return directory.IsAccount(v) }

func (f *Fake) Anonymous() any { return directory.Anonymous }

func (f *Fake) AccountName(v any) string { return directory.Name(v) }

func (f *Fake) lookup(identifier any) (directory.Account, bool) {
	name, ok := directory.Identifier(identifier)
	if !ok {
		return directory.Account{}, false
	}
	f.mu.RLock()
	a, ok := f.accounts[name]
	f.mu.RUnlock()
	return a, ok
}

func (f *Fake) FindLoginAccount(_ context.Context, identifier any) (any, bool, error) {
	f.findLogin.Add(1)
	if err := f.failure(); err != nil {
		return nil, false, err
	}
	a, ok := f.lookup(identifier)
	if !ok {
		return nil, false, nil
	}
	return a, true, nil
}

func (f *Fake) FindActiveAccount(_ context.Context, identifier any) (any, bool, error) {
	f.findActive.Add(1)
	if err := f.failure(); err != nil {
		return nil, false, err
	}
	a, ok := f.lookup(identifier)
	if !ok || !a.APIEnabled {
		return nil, false, nil
	}
	return a, true, nil
}

func (f *Fake) VerifyPassword(_ context.Context, identifier any, candidate string) (bool, error) {
	f.verify.Add(1)
	if err := f.failure(); err != nil {
		return false, err
	}
	name, ok := directory.Identifier(identifier)
	if !ok {
		return false, nil
	}
	f.mu.RLock()
	want, ok := f.passwords[name]
	f.mu.RUnlock()
	return ok && want == candidate, nil
}
