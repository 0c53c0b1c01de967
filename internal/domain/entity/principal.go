package entity

// PrincipalKind tags who is behind a request.
type PrincipalKind int

const (
	KindAnonymous PrincipalKind = iota
	KindAuthenticated
)

// Principal is either Anonymous or Authenticated(User). The zero value is Anonymous.
type Principal struct {
	kind PrincipalKind
	user *User
}

func Anonymous() Principal { return Principal{kind: KindAnonymous} }

// Authenticated wraps u. A nil user yields Anonymous.
func Authenticated(u *User) Principal {
	if u == nil {
		return Anonymous()
	}
	return Principal{kind: KindAuthenticated, user: u}
}

func (p Principal) Kind() PrincipalKind { return p.kind }

func (p Principal) IsAuthenticated() bool { return p.kind == KindAuthenticated }

// User returns the wrapped account; ok is false for Anonymous.
func (p Principal) User() (*User, bool) {
	if p.kind != KindAuthenticated {
		return nil, false
	}
	return p.user, true
}

func (p Principal) Can(perm Permission) bool {
	switch p.kind {
	case KindAuthenticated:
		return p.user.Can(perm)
	default:
		return false
	}
}

func (p Principal) IsAdministrator() bool {
	return p.Can(PermAdminister)
}
