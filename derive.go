package sessiongate

import (
	"context"

	"github.com/MrEthical07/sessiongate/session"
)

// SessionAttributes are the four session fields the engine derives for a
// request. A nil field is absent: [SessionAttributes.Apply] leaves the
// corresponding session key alone.
type SessionAttributes struct {
	CurrentUser Account
	LastRequest *int64
	Remember    *bool
	Flash       *string
}

// Empty reports whether no attribute is present.
func (a SessionAttributes) Empty() bool {
	return a.CurrentUser == nil && a.LastRequest == nil && a.Remember == nil && a.Flash == nil
}

// Apply writes every present attribute into dst and returns it. Keys of dst
// without a matching present attribute are preserved. A nil dst is only
// allocated when there is something to write, so "no change" stays nil.
func (a SessionAttributes) Apply(dst session.Values) session.Values {
	if a.Empty() {
		return dst
	}
	if dst == nil {
		dst = session.Values{}
	}
	if a.CurrentUser != nil {
		dst[session.KeyUser] = a.CurrentUser
	}
	if a.LastRequest != nil {
		dst[session.KeyLastRequest] = *a.LastRequest
	}
	if a.Remember != nil {
		dst[session.KeyRemember] = *a.Remember
	}
	if a.Flash != nil {
		dst[session.KeyFlash] = *a.Flash
	}
	return dst
}

// derive computes the full evaluation from the trace. Every step that needs
// the authentication outcome goes through the trace memo.
func (t *trace) derive(ctx context.Context) (*Evaluation, error) {
	lastRequest := t.deriveLastRequest()

	remember, err := t.deriveRemember(ctx)
	if err != nil {
		return nil, err
	}

	identity, authenticated, err := t.deriveIdentity(ctx)
	if err != nil {
		return nil, err
	}

	flash, err := t.deriveFlash(ctx)
	if err != nil {
		return nil, err
	}

	attrs := SessionAttributes{
		LastRequest: lastRequest,
		Remember:    remember,
		Flash:       flash,
	}
	if authenticated && (t.class == ClassLogin || t.class == ClassActiveSession) {
		attrs.CurrentUser = identity
	}

	return &Evaluation{
		Classification: t.class,
		Identity:       identity,
		Authenticated:  authenticated,
		Session:        attrs,
	}, nil
}

// deriveIdentity returns the account to bind for the downstream handler.
func (t *trace) deriveIdentity(ctx context.Context) (Account, bool, error) {
	var (
		out outcome
		err error
	)
	switch t.class {
	case ClassLogin, ClassActiveSession:
		out, err = t.authenticated(ctx)
	case ClassPerRequestCredential:
		out, err = t.perRequestCredential(ctx)
	default:
		return t.directory.Anonymous(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !out.ok {
		return t.directory.Anonymous(), false, nil
	}
	return out.account, true, nil
}

// deriveLastRequest touches the timestamp for logins and sessions, whether
// or not the check succeeded.
func (t *trace) deriveLastRequest() *int64 {
	switch t.class {
	case ClassLogin, ClassActiveSession:
		now := t.now
		return &now
	default:
		return nil
	}
}

// deriveRemember carries an active session's flag over even when the
// session failed its check; the preference belongs to the session, not to
// one request.
func (t *trace) deriveRemember(ctx context.Context) (*bool, error) {
	switch t.class {
	case ClassActiveSession:
		if t.view.Session.Remember == nil {
			return nil, nil
		}
		v := *t.view.Session.Remember
		return &v, nil
	case ClassLogin:
		out, err := t.authenticated(ctx)
		if err != nil {
			return nil, err
		}
		if out.ok && t.view.RememberMe {
			v := true
			return &v, nil
		}
		return nil, nil
	default:
		return nil, nil
	}
}

func (t *trace) deriveFlash(ctx context.Context) (*string, error) {
	switch t.class {
	case ClassLogin:
		out, err := t.authenticated(ctx)
		if err != nil {
			return nil, err
		}
		msg := t.config.LoginFailureMessage(t.view)
		if out.ok {
			msg = t.config.LoginSuccessMessage(t.view)
		}
		return &msg, nil
	case ClassLogout:
		msg := t.config.LogoutMessage(t.view)
		return &msg, nil
	default:
		return nil, nil
	}
}
