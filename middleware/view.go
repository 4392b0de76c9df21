package middleware

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/sessiongate"
	"github.com/MrEthical07/sessiongate/session"
)

// Form and query parameter names read by ExtractView.
const (
	FieldUsername   = "username"
	FieldPassword   = "password"
	FieldRememberMe = "remember-me"
	FieldUID        = "uid"
	FieldKey        = "key"
)

// ExtractView projects r and its loaded session onto the engine's request
// view. Fields are read from the query string and, for form posts, the
// body. A field that is absent stays nil; an empty value is still present.
func ExtractView(r *http.Request, values session.Values) sessiongate.RequestView {
	view := sessiongate.RequestView{
		Path:    r.URL.Path,
		Method:  r.Method,
		Session: sessionState(values),
	}

	// A malformed body leaves whatever parsed; missing fields are simply absent.
	_ = r.ParseForm()

	view.Username = formField(r, FieldUsername)
	view.Password = formField(r, FieldPassword)
	view.UID = formField(r, FieldUID)
	view.Key = formField(r, FieldKey)
	if v := formField(r, FieldRememberMe); v != nil {
		view.RememberMe = truthy(*v)
	}
	return view
}

func sessionState(values session.Values) sessiongate.SessionState {
	var s sessiongate.SessionState
	if values == nil {
		return s
	}
	if ts, ok := values.Int64(session.KeyLastRequest); ok {
		s.LastRequest = &ts
	}
	s.User = values[session.KeyUser]
	if b, ok := values.Bool(session.KeyRemember); ok {
		s.Remember = &b
	}
	return s
}

func formField(r *http.Request, name string) *string {
	vs, ok := r.Form[name]
	if !ok || len(vs) == 0 {
		return nil
	}
	v := vs[0]
	return &v
}

// truthy accepts checkbox and boolean spellings.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off", "no":
		return false
	default:
		return true
	}
}
