// Package sessiongate authenticates net/http requests against a pluggable
// account directory and keeps the session up to date.
//
// Every request falls into exactly one classification, checked in this
// order: a login form POST, a request to the logout path, a request whose
// session carries a timestamp and an account, a request carrying a uid/key
// credential, and finally a bad request. The engine authenticates at most
// once per request, binds the resulting identity into the handler's context
// and derives four session attributes: current user, last-request time,
// remember-me and a flash message.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// sessiongate is the public surface: [Engine], [Builder], [Config] and the
// [Directory] contract. Transport lives in package middleware, session
// persistence in package session and account storage in package directory.
// Audit dispatch lives under internal/.
//
// # What this package must NOT do
//
//   - Read cookies or write responses; adapters do that.
//   - Keep per-request state outside the evaluation and the bound context.
//   - Import any sub-package that re-imports sessiongate.
//
// # Performance contract
//
// Evaluate makes at most two directory calls for a login or credential and
// one for an active session. Logouts and bad requests never reach the
// directory.
package sessiongate
