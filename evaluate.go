package sessiongate

import (
	"context"
	"fmt"
	"time"
)

func (t *trace) checkLogin(ctx context.Context) (outcome, error) {
	account, found, err := t.directory.FindLoginAccount(ctx, *t.view.Username)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: find login account: %w", ErrDirectory, err)
	}
	if !found {
		return outcome{reason: reasonUnknownAccount}, nil
	}

	ok, err := t.directory.VerifyPassword(ctx, account, *t.view.Password)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: verify password: %w", ErrDirectory, err)
	}
	if !ok {
		return outcome{reason: reasonBadPassword}, nil
	}
	return outcome{account: account, ok: true, reason: reasonAuthenticated}, nil
}

// checkSession resolves the session user against the directory and then
// applies the idle timeout. A remembered session never expires.
func (t *trace) checkSession(ctx context.Context) (outcome, error) {
	account, found, err := t.directory.FindLoginAccount(ctx, t.view.Session.User)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: find session account: %w", ErrDirectory, err)
	}
	if !found {
		return outcome{reason: reasonUnknownAccount}, nil
	}

	if remembered(t.view.Session) {
		return outcome{account: account, ok: true, reason: reasonAuthenticated}, nil
	}

	if idleTooLong(t.now, *t.view.Session.LastRequest, timeoutSeconds(t.config.SessionTimeout)) {
		return outcome{reason: reasonExpired}, nil
	}
	return outcome{account: account, ok: true, reason: reasonAuthenticated}, nil
}

func (t *trace) checkCredential(ctx context.Context) (outcome, error) {
	uid := *t.view.UID

	account, found, err := t.directory.FindActiveAccount(ctx, uid)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: find active account: %w", ErrDirectory, err)
	}
	if !found {
		return outcome{reason: reasonUnknownAccount}, nil
	}

	ok, err := t.directory.VerifyPassword(ctx, uid, *t.view.Key)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: verify key: %w", ErrDirectory, err)
	}
	if !ok {
		return outcome{reason: reasonBadPassword}, nil
	}
	return outcome{account: account, ok: true, reason: reasonAuthenticated}, nil
}

func remembered(s SessionState) bool {
	return s.Remember != nil && *s.Remember
}

// idleTooLong reports whether more than timeout seconds passed between last
// and now. A timestamp from the future is not expired. When now-last does
// not fit in an int64 the gap is larger than any timeout.
func idleTooLong(now, last, timeout int64) bool {
	if last >= now {
		return false
	}
	elapsed := now - last
	return elapsed < 0 || elapsed > timeout
}

// timeoutSeconds truncates d to whole seconds. Elapsed time is counted in
// whole seconds, so elapsed <= d and elapsed <= timeoutSeconds(d) agree.
func timeoutSeconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
