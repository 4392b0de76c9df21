package sessiongate

import "context"

// outcome records why an authentication check ended the way it did. Only
// ok is visible to callers; the reason feeds metrics and audit events.
type outcome struct {
	account Account
	ok      bool
	reason  outcomeReason
}

type outcomeReason uint8

const (
	reasonNotApplicable outcomeReason = iota
	reasonAuthenticated
	reasonUnknownAccount
	reasonBadPassword
	reasonExpired
)

// trace is the evaluation context of a single request. It is created by
// Engine.Evaluate, owned by that call alone and dropped when it returns.
//
// login and credential are written at most once. Any reader after the first
// write sees the identical outcome; nothing re-queries the directory.
type trace struct {
	view      RequestView
	directory Directory
	config    *Config
	now       int64
	class     Classification

	login      *outcome
	credential *outcome
}

func newTrace(view RequestView, dir Directory, cfg *Config, now int64) *trace {
	return &trace{
		view:      view,
		directory: dir,
		config:    cfg,
		now:       now,
		class:     Classify(view, cfg, dir),
	}
}

// authenticated returns the memoized login/session outcome, computing it on
// first use. Only ClassLogin and ClassActiveSession ever authenticate. A
// directory fault is returned without being cached.
func (t *trace) authenticated(ctx context.Context) (outcome, error) {
	if t.login != nil {
		return *t.login, nil
	}

	var (
		out outcome
		err error
	)
	switch t.class {
	case ClassLogin:
		out, err = t.checkLogin(ctx)
	case ClassActiveSession:
		out, err = t.checkSession(ctx)
	default:
		out = outcome{reason: reasonNotApplicable}
	}
	if err != nil {
		return outcome{}, err
	}

	t.login = &out
	return out, nil
}

// perRequestCredential returns the memoized uid/key outcome.
func (t *trace) perRequestCredential(ctx context.Context) (outcome, error) {
	if t.credential != nil {
		return *t.credential, nil
	}
	if t.class != ClassPerRequestCredential {
		out := outcome{reason: reasonNotApplicable}
		t.credential = &out
		return out, nil
	}

	out, err := t.checkCredential(ctx)
	if err != nil {
		return outcome{}, err
	}
	t.credential = &out
	return out, nil
}
