package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/MrEthical07/sessiongate"
	"github.com/MrEthical07/sessiongate/session"
)

// ErrorHandler writes the response when the session store or the account
// directory fails before the handler runs.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type options struct {
	logger  *slog.Logger
	onError ErrorHandler
}

// Option configures [Authenticate].
type Option func(*options)

// WithLogger sets the logger for store failures. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithErrorHandler replaces the default 500 response.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) { o.onError = h }
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, _ error) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Authenticate evaluates every request with engine and persists the derived
// session attributes through store.
//
// The merged session is saved when the handler first writes its header or
// body, or when it returns without writing. A save failure at that point can
// no longer change the response, so it is logged.
func Authenticate(engine *sessiongate.Engine, store session.Store, opts ...Option) func(http.Handler) http.Handler {
	o := options{
		logger:  slog.New(slog.DiscardHandler),
		onError: defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loaded, err := store.Load(r)
			if err != nil {
				o.logger.ErrorContext(r.Context(), "session load failed", slog.Any("error", err))
				o.onError(w, r, err)
				return
			}

			ev, err := engine.Evaluate(r.Context(), ExtractView(r, loaded))
			if err != nil {
				o.onError(w, r, err)
				return
			}

			rs := newSession(loaded)
			ctx := context.WithValue(engine.Bind(r.Context(), ev), responseSessionKey{}, rs)
			r = r.WithContext(ctx)

			cw := &committingWriter{ResponseWriter: w}
			cw.commit = func() {
				merged := ev.Session.Apply(rs.result())
				if err := store.Save(w, r, merged); err != nil {
					o.logger.ErrorContext(ctx, "session save failed",
						slog.String("path", r.URL.Path),
						slog.Any("error", err),
					)
				}
			}

			next.ServeHTTP(cw, r)
			cw.commitOnce()
		})
	}
}

// committingWriter runs commit exactly once, before the first byte of the
// response leaves, so the session cookie can still be set.
type committingWriter struct {
	http.ResponseWriter
	once   sync.Once
	commit func()
}

func (w *committingWriter) commitOnce() {
	w.once.Do(w.commit)
}

func (w *committingWriter) WriteHeader(code int) {
	w.commitOnce()
	w.ResponseWriter.WriteHeader(code)
}

func (w *committingWriter) Write(p []byte) (int, error) {
	w.commitOnce()
	return w.ResponseWriter.Write(p)
}

// Flush sends the headers, so the session is committed first.
func (w *committingWriter) Flush() {
	w.commitOnce()
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *committingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
