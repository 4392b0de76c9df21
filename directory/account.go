package directory

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidAccount is returned when storing an account without a username.
	ErrInvalidAccount = errors.New("account requires a username")
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("account directory unavailable")
)

// Account is the identity a directory hands to the engine. It is what the
// session stores as the logged-in user, so it never carries the password hash.
type Account struct {
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	APIEnabled  bool     `json:"api_enabled,omitempty"`
}

// Anonymous is the placeholder identity for unauthenticated requests.
var Anonymous = Account{DisplayName: "anonymous"}

func (a Account) clone() Account {
	a.Roles = slices.Clone(a.Roles)
	return a
}

// HasRole reports whether the account carries role.
func (a Account) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// IsAccount reports whether v is shaped like a stored account: an Account,
// a non-nil *Account, or a decoded map, each with a non-empty username.
func IsAccount(v any) bool {
	switch a := v.(type) {
	case Account:
		return a.Username != ""
	case *Account:
		return a != nil && a.Username != ""
	case map[string]any:
		name, ok := a["username"].(string)
		return ok && name != ""
	default:
		return false
	}
}

// Identifier extracts the username v refers to. Plain strings are taken as
// usernames; anything else must pass IsAccount.
func Identifier(v any) (string, bool) {
	switch a := v.(type) {
	case string:
		return a, a != ""
	case Account:
		return a.Username, a.Username != ""
	case *Account:
		if a == nil {
			return "", false
		}
		return a.Username, a.Username != ""
	case map[string]any:
		name, ok := a["username"].(string)
		return name, ok && name != ""
	default:
		return "", false
	}
}

// Name renders an account for logs and audit events.
func Name(v any) string {
	name, _ := Identifier(v)
	return name
}

// shape supplies the structural half of the engine's directory contract,
// shared by every implementation in this package.
type shape struct{}

func (shape) IsAccount(v any) bool { return IsAccount(v) }

func (shape) Anonymous() any { return Anonymous }

func (shape) AccountName(v any) string { return Name(v) }
