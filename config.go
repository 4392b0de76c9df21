package sessiongate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

/*
====================================
ROOT CONFIG
====================================
*/

// Config controls request classification, session expiry and the flash
// messages written on login and logout.
//
// Config is merged over [DefaultConfig] key by key: a zero-valued field keeps
// its default, a set field replaces it. Nothing is validated at request time;
// [Builder.Build] calls [Config.Validate] once.
type Config struct {
	// LoginPath is the path a login form is POSTed to.
	LoginPath string
	// LogoutPath is the path that ends a session, for any method.
	LogoutPath string
	// SessionTimeout is the longest idle gap a non-remembered session
	// survives.
	SessionTimeout time.Duration

	LoginSuccessMessage MessageFunc
	LoginFailureMessage MessageFunc
	LogoutMessage       MessageFunc

	Metrics MetricsConfig
	Audit   AuditConfig
}

/*
====================================
AMBIENT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	defaultLoginPath      = "/login"
	defaultLogoutPath     = "/logout"
	defaultSessionTimeout = 30 * time.Minute
)

// DefaultConfig returns the configuration used for every key the caller
// leaves unset.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		LoginPath:           defaultLoginPath,
		LogoutPath:          defaultLogoutPath,
		SessionTimeout:      defaultSessionTimeout,
		LoginSuccessMessage: staticMessage("Welcome"),
		LoginFailureMessage: staticMessage("Incorrect credentials"),
		LogoutMessage:       staticMessage("Bye"),
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

func staticMessage(msg string) MessageFunc {
	return func(RequestView) string { return msg }
}

// mergeConfig overlays every non-zero field of override onto base.
func mergeConfig(base, override Config) Config {
	out := base
	if override.LoginPath != "" {
		out.LoginPath = override.LoginPath
	}
	if override.LogoutPath != "" {
		out.LogoutPath = override.LogoutPath
	}
	if override.SessionTimeout != 0 {
		out.SessionTimeout = override.SessionTimeout
	}
	if override.LoginSuccessMessage != nil {
		out.LoginSuccessMessage = override.LoginSuccessMessage
	}
	if override.LoginFailureMessage != nil {
		out.LoginFailureMessage = override.LoginFailureMessage
	}
	if override.LogoutMessage != nil {
		out.LogoutMessage = override.LogoutMessage
	}
	if override.Metrics != (MetricsConfig{}) {
		out.Metrics = override.Metrics
	}
	if override.Audit != (AuditConfig{}) {
		out.Audit = override.Audit
	}
	return out
}

// Validate reports the first structural problem in c.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("%w: LoginPath must start with /", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.LogoutPath, "/") {
		return fmt.Errorf("%w: LogoutPath must start with /", ErrInvalidConfig)
	}
	if c.LoginPath == c.LogoutPath {
		return fmt.Errorf("%w: LoginPath and LogoutPath must differ", ErrInvalidConfig)
	}
	if c.SessionTimeout < time.Second {
		return fmt.Errorf("%w: SessionTimeout must be at least 1s", ErrInvalidConfig)
	}
	if c.LoginSuccessMessage == nil || c.LoginFailureMessage == nil || c.LogoutMessage == nil {
		return fmt.Errorf("%w: message functions must be set", ErrInvalidConfig)
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: Audit BufferSize must be > 0", ErrInvalidConfig)
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return fmt.Errorf("%w: latency histograms require metrics", ErrInvalidConfig)
	}
	return nil
}

/*
====================================
ENVIRONMENT
====================================
*/

type envConfig struct {
	LoginPath      string        `env:"SESSIONGATE_LOGIN_PATH"`
	LogoutPath     string        `env:"SESSIONGATE_LOGOUT_PATH"`
	SessionTimeout time.Duration `env:"SESSIONGATE_SESSION_TIMEOUT"`
	LoginSuccess   string        `env:"SESSIONGATE_LOGIN_SUCCESS_MESSAGE"`
	LoginFailure   string        `env:"SESSIONGATE_LOGIN_FAILURE_MESSAGE"`
	Logout         string        `env:"SESSIONGATE_LOGOUT_MESSAGE"`
}

// LoadEnv overlays SESSIONGATE_* environment variables onto base. Unset
// variables leave the corresponding key of base untouched.
func LoadEnv(base Config) (Config, error) {
	var env envConfig
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return base, fmt.Errorf("%w: decode environment: %w", ErrInvalidConfig, err)
	}

	override := Config{
		LoginPath:      env.LoginPath,
		LogoutPath:     env.LogoutPath,
		SessionTimeout: env.SessionTimeout,
	}
	if env.LoginSuccess != "" {
		override.LoginSuccessMessage = staticMessage(env.LoginSuccess)
	}
	if env.LoginFailure != "" {
		override.LoginFailureMessage = staticMessage(env.LoginFailure)
	}
	if env.Logout != "" {
		override.LogoutMessage = staticMessage(env.Logout)
	}
	return mergeConfig(base, override), nil
}
