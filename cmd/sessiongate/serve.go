package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/sessiongate"
	"github.com/MrEthical07/sessiongate/directory"
	"github.com/MrEthical07/sessiongate/jwt"
	promexport "github.com/MrEthical07/sessiongate/metrics/export/prometheus"
	"github.com/MrEthical07/sessiongate/password"
	"github.com/MrEthical07/sessiongate/session"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type serveOptions struct {
	addr             string
	redisAddr        string
	cookieSecret     string
	audit            bool
	throttleFailures int
	throttleWindow   time.Duration
	logLevel         string
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server",
		Long: `Run an HTTP server guarded by sessiongate.

The directory is seeded with a login account "david" (password "snowy") and
an API account "robot" (key "k3y"). Sessions live in Redis unless
--cookie-secret is set, in which case they are signed into the cookie.

Engine settings are read from SESSIONGATE_* environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	cmd.Flags().StringVar(&opts.cookieSecret, "cookie-secret", "", "HMAC secret for signed cookie sessions")
	cmd.Flags().BoolVar(&opts.audit, "audit", false, "write audit events as JSON to stdout")
	cmd.Flags().IntVar(&opts.throttleFailures, "throttle-failures", 5, "password failures per user before checks are refused; 0 disables")
	cmd.Flags().DurationVar(&opts.throttleWindow, "throttle-window", 15*time.Minute, "window for --throttle-failures")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client, closeRedis, err := openRedis(opts.redisAddr, os.Stderr)
	if err != nil {
		return err
	}
	defer closeRedis()

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	app, err := newApp(ctx, client, opts, logger, tp)
	if err != nil {
		return err
	}
	defer app.engine.Close()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           app.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", opts.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

type app struct {
	engine *sessiongate.Engine
	router http.Handler
}

// newApp seeds the directory and assembles engine, store and router.
func newApp(ctx context.Context, client redis.UniversalClient, opts serveOptions, logger *slog.Logger, tp *sdktrace.TracerProvider) (*app, error) {
	cfg, err := sessiongate.LoadEnv(sessiongate.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if opts.audit {
		cfg.Audit = sessiongate.AuditConfig{Enabled: true, BufferSize: 1024, DropIfFull: true}
	}

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return nil, err
	}
	accounts := directory.NewRedis(client, hasher, "")
	if err := seedAccounts(ctx, accounts); err != nil {
		return nil, err
	}

	var dir sessiongate.Directory = accounts
	if opts.throttleFailures > 0 {
		throttled, err := directory.NewThrottle(accounts, client, directory.ThrottleConfig{
			MaxFailures: opts.throttleFailures,
			Window:      opts.throttleWindow,
		})
		if err != nil {
			return nil, err
		}
		dir = throttled
	}

	b := sessiongate.New().
		WithConfig(cfg).
		WithDirectory(dir).
		WithLogger(logger).
		WithLatencyHistograms(true)
	if tp != nil {
		b.WithTracerProvider(tp)
	}
	if opts.audit {
		b.WithAuditSink(sessiongate.NewJSONWriterSink(os.Stdout))
	}
	engine, err := b.Build()
	if err != nil {
		return nil, err
	}

	store, err := newStore(client, opts)
	if err != nil {
		engine.Close()
		return nil, err
	}

	return &app{
		engine: engine,
		router: newRouter(engine, store, logger),
	}, nil
}

func seedAccounts(ctx context.Context, dir *directory.Redis) error {
	seed := []struct {
		account directory.Account
		secret  string
	}{
		{directory.Account{Username: "david", DisplayName: "David", Roles: []string{"admin"}}, "snowy"},
		{directory.Account{Username: "robot", DisplayName: "Build robot", APIEnabled: true}, "k3y"},
	}
	for _, s := range seed {
		if err := dir.Put(ctx, s.account, s.secret); err != nil {
			return fmt.Errorf("seed %s: %w", s.account.Username, err)
		}
	}
	return nil
}

func newStore(client redis.UniversalClient, opts serveOptions) (session.Store, error) {
	if opts.cookieSecret == "" {
		return session.NewRedisStore(client), nil
	}
	codec, err := jwt.NewManager(jwt.Config{
		SessionTTL:    30 * 24 * time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(opts.cookieSecret),
		Issuer:        "sessiongate",
		RequireIAT:    true,
	})
	if err != nil {
		return nil, err
	}
	return session.NewCookieStore(codec, session.DefaultCookieOptions()), nil
}

func metricsHandler(engine *sessiongate.Engine) http.Handler {
	return promexport.Handler(promexport.NewCollector(engine))
}
