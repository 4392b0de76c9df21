package sessiongate

import (
	"context"
	"io"

	internalaudit "github.com/MrEthical07/sessiongate/internal/audit"
)

// Account is an opaque identity value produced by a [Directory]. The engine
// never inspects it; it only hands it back to the directory, binds it into the
// request context and writes it into the response session.
type Account = any

// Directory is the account store the engine consults. It is the only
// required integration point and is shared by concurrent requests, so
// implementations must be safe for concurrent use.
//
// Lookups return (nil, false, nil) when the identifier does not resolve. A
// non-nil error is treated as a backend fault and aborts the request.
type Directory interface {
	// IsAccount reports whether v has the shape of an account record. It
	// does not check that the account exists.
	IsAccount(v any) bool
	// Anonymous returns the placeholder used when nobody is authenticated.
	Anonymous() Account
	// FindLoginAccount resolves a username, or an account-shaped session
	// value, to the canonical account used for login and session
	// continuation.
	FindLoginAccount(ctx context.Context, identifier any) (Account, bool, error)
	// FindActiveAccount resolves the uid of a per-request credential.
	FindActiveAccount(ctx context.Context, identifier any) (Account, bool, error)
	// VerifyPassword checks candidate against the secret of the account
	// named by identifier.
	VerifyPassword(ctx context.Context, identifier any, candidate string) (bool, error)
}

// AccountNamer is optionally implemented by a [Directory] to give audit
// events and log lines a readable account name.
type AccountNamer interface {
	AccountName(account Account) string
}

// SessionState is the part of the incoming session the engine reads.
type SessionState struct {
	// LastRequest is the unix time, in seconds, of the previous request.
	LastRequest *int64
	// User is whatever the session stored as the logged-in user.
	User any
	// Remember is the persisted remember-me preference.
	Remember *bool
}

// RequestView is the normalized, read-only projection of a request that the
// engine classifies. Inbound adapters (see package middleware) build it from
// the transport request and the loaded session.
type RequestView struct {
	Path    string
	Method  string
	Session SessionState

	// Submitted login form.
	Username   *string
	Password   *string
	RememberMe bool

	// Per-request credential.
	UID *string
	Key *string
}

// MessageFunc renders a flash message for a request.
type MessageFunc func(view RequestView) string

// Evaluation is the outcome of [Engine.Evaluate] for one request.
type Evaluation struct {
	Classification Classification
	// Identity is the account bound for the downstream handler. It is the
	// directory's anonymous account when nobody authenticated.
	Identity Account
	// Authenticated is true when Identity came from a successful check.
	Authenticated bool
	// Session holds the attributes to merge into the response session.
	Session SessionAttributes
}

// AuditEvent is an alias of the internal audit event model.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the engine's dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink drops every audit event.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink forwards audit events into a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per audit event.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// String returns a pointer to v.
func String(v string) *string { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }
