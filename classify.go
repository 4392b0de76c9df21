package sessiongate

import "net/http"

// Classification is the single category a request falls into.
type Classification uint8

const (
	// ClassBadRequest matches no other category.
	ClassBadRequest Classification = iota
	// ClassLogin is a POST of username and password to the login path.
	ClassLogin
	// ClassLogout is any request to the logout path.
	ClassLogout
	// ClassActiveSession carries a timestamped, account-shaped session.
	ClassActiveSession
	// ClassPerRequestCredential carries a uid/key pair.
	ClassPerRequestCredential
)

func (c Classification) String() string {
	switch c {
	case ClassLogin:
		return "login"
	case ClassLogout:
		return "logout"
	case ClassActiveSession:
		return "active_session"
	case ClassPerRequestCredential:
		return "per_request_credential"
	default:
		return "bad_request"
	}
}

// Classify assigns view exactly one [Classification]. Each predicate negates
// every higher-precedence one, so the order below is the whole contract:
// login, logout, active session, per-request credential, bad request.
//
// The active-session check only asks the directory whether the session user
// looks like an account; whether it exists is decided later.
func Classify(view RequestView, cfg *Config, dir Directory) Classification {
	login := isLogin(view, cfg)
	logout := !login && view.Path == cfg.LogoutPath
	active := !login && !logout && isActiveSession(view, dir)
	credential := !login && !logout && !active && view.UID != nil && view.Key != nil

	switch {
	case login:
		return ClassLogin
	case logout:
		return ClassLogout
	case active:
		return ClassActiveSession
	case credential:
		return ClassPerRequestCredential
	default:
		return ClassBadRequest
	}
}

func isLogin(view RequestView, cfg *Config) bool {
	return view.Method == http.MethodPost &&
		view.Path == cfg.LoginPath &&
		view.Username != nil &&
		view.Password != nil
}

func isActiveSession(view RequestView, dir Directory) bool {
	if view.Session.LastRequest == nil || dir == nil {
		return false
	}
	return dir.IsAccount(view.Session.User)
}
