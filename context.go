package sessiongate

import "context"

type identityContextKey struct{}

type boundIdentity struct {
	account       Account
	authenticated bool
}

// WithIdentity returns a child of ctx carrying account as the request's
// acting user. The binding lives exactly as long as the returned context is
// used; nothing is stored outside it, so concurrent requests on pooled
// goroutines never see each other's identity.
func WithIdentity(ctx context.Context, account Account) context.Context {
	return withIdentity(ctx, account, false)
}

func withIdentity(ctx context.Context, account Account, authenticated bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityContextKey{}, boundIdentity{
		account:       account,
		authenticated: authenticated,
	})
}

// IdentityFromContext returns the account bound by the engine. ok is false
// when ctx was never bound, which downstream code should treat as a wiring
// error rather than as anonymous.
func IdentityFromContext(ctx context.Context) (Account, bool) {
	if ctx == nil {
		return nil, false
	}
	b, ok := ctx.Value(identityContextKey{}).(boundIdentity)
	if !ok {
		return nil, false
	}
	return b.account, true
}

// Authenticated reports whether the bound identity came from a successful
// login, session or credential check.
func Authenticated(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	b, _ := ctx.Value(identityContextKey{}).(boundIdentity)
	return b.authenticated
}

// CurrentUser is IdentityFromContext without the ok flag.
func CurrentUser(ctx context.Context) Account {
	account, _ := IdentityFromContext(ctx)
	return account
}
