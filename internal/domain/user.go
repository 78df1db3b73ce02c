package domain

import "time"

// Role is a user's access level on the bidding platform.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleBidder  Role = "BIDDER"
	RoleAdmin   Role = "ADMIN"
)

// User is the authenticated identity as returned by the auth endpoints.
type User struct {
	ID       int64
	Name     string
	Email    string
	Phone    string
	Role     Role
	Verified bool
}

// IsBidder reports whether the user may place bids. Students are the bidders
// on this platform; admins implicitly may.
func (u User) IsBidder() bool {
	return u.Role == RoleStudent || u.Role == RoleBidder || u.Role == RoleAdmin
}

// Session is the explicit authentication context passed to components that
// need identity. There is no ambient global session; whoever needs one is
// handed it (or a SessionStore) at construction time.
type Session struct {
	Token     string
	User      User
	ExpiresAt time.Time
}

// Valid reports whether the session carries a token that has not expired at
// the given instant. A zero ExpiresAt means the backend issued no expiry.
func (s Session) Valid(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	if s.ExpiresAt.IsZero() {
		return true
	}
	return now.Before(s.ExpiresAt)
}
