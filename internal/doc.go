// Package internal holds helpers private to sessiongate.
//
//   - audit: async audit event dispatch (Dispatcher and Sink implementations)
//   - rate: Redis fixed-window failure counters
package internal
