// Package session persists the per-user session map that the engine reads
// on the way in and writes on the way out.
//
// # Stores
//
//   - [RedisStore] — opaque session id cookie, versioned blob in Redis with a
//     sliding TTL.
//   - [CookieStore] — the whole session signed into a JWT cookie.
//
// # Architecture boundaries
//
// This package owns the [Values] model, its encoding and the [Store]
// implementations. It does NOT classify requests, authenticate users or
// decide which keys to write; the engine and package middleware do.
//
// # What this package must NOT do
//
//   - Import sessiongate or middleware (no upward imports).
//   - Interpret the value stored under [KeyUser].
//   - Treat a missing, expired or tampered session as an error.
package session
