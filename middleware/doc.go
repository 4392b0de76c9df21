// Package middleware adapts the sessiongate engine to net/http.
//
// [Authenticate] loads the request's session from a [session.Store], builds
// the engine's request view from the form and session, evaluates it, binds
// the resulting identity into the request context and, once the handler
// starts its response, saves the merged session back to the store.
//
// Handlers read the identity with sessiongate.CurrentUser and edit the
// outgoing session through [ResponseSession]. [RequireAuthenticated] rejects
// requests that did not authenticate.
//
// The package translates HTTP into engine calls only; every authentication
// decision is made by the engine.
package middleware
