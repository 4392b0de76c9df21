package main

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/sessiongate"
	"github.com/MrEthical07/sessiongate/directory"
	"github.com/MrEthical07/sessiongate/middleware"
	"github.com/MrEthical07/sessiongate/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

var loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<title>Sign in</title>
{{if .}}<p>{{.}}</p>{{end}}
<form method="post" action="/login">
  <label>Username <input name="username"></label>
  <label>Password <input name="password" type="password"></label>
  <label><input name="remember-me" type="checkbox"> Remember me</label>
  <button>Sign in</button>
</form>
`))

func newRouter(engine *sessiongate.Engine, store session.Store, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", metricsHandler(engine))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(engine, store, middleware.WithLogger(logger)))

		r.Get("/", handleHome)
		r.Get("/login", handleLoginForm)
		r.Post("/login", handleLogin)
		r.HandleFunc("/logout", handleLogout)

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.RequireAuthenticated)
			r.Get("/whoami", handleWhoami)
		})
	})

	return r
}

type homeResponse struct {
	User          string `json:"user"`
	Authenticated bool   `json:"authenticated"`
	Flash         string `json:"flash,omitempty"`
}

func handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, homeResponse{
		User:          displayName(sessiongate.CurrentUser(ctx)),
		Authenticated: sessiongate.Authenticated(ctx),
		Flash:         popFlash(r),
	})
}

func handleLoginForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = loginPage.Execute(w, popFlash(r))
}

// handleLogin only redirects; the engine has already checked the password
// and the flash message lands in the session on the way out.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if sessiongate.Authenticated(r.Context()) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func handleWhoami(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessiongate.CurrentUser(r.Context()))
}

// popFlash reads the flash message and removes it from the outgoing session.
func popFlash(r *http.Request) string {
	rs := middleware.ResponseSession(r.Context())
	if rs == nil {
		return ""
	}
	v, ok := rs.Get(session.KeyFlash)
	if !ok {
		return ""
	}
	rs.Delete(session.KeyFlash)
	msg, _ := v.(string)
	return msg
}

func displayName(v any) string {
	switch a := v.(type) {
	case directory.Account:
		if a.DisplayName != "" {
			return a.DisplayName
		}
		return a.Username
	default:
		return directory.Name(v)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
