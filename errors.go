package sessiongate

import "errors"

var (
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrDirectoryRequired is returned by Build when no Directory was supplied.
	ErrDirectoryRequired = errors.New("account directory required")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrInvalidConfig wraps every Config validation failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrDirectory wraps faults raised by the Directory during evaluation.
	ErrDirectory = errors.New("account directory failure")
)
