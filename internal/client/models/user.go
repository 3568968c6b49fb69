// Package models defines the client-side data model for the speaker portal:
// users and their roles, notifications, notification preferences, and the
// persisted token pair.
package models

// Known role names. A user may hold several roles at once.
const (
	RoleSpeaker = "speaker"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// Role is a named capability grouping attached to a user.
type Role struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// User is the authenticated identity as reported by GET /auth/profile.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Roles     []Role `json:"roles"`
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Registration is the payload for POST /auth/register. Organization, Phone
// and Bio are optional.
type Registration struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Organization string `json:"organization,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Bio          string `json:"bio,omitempty"`
}
