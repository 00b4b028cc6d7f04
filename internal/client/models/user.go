package models

import "time"

// User is a manager account, stored as users/<username>.json.
type User struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Branch   string `json:"branch,omitempty"`
	Rank     string `json:"rank,omitempty"`

	// PasswordHash is a bcrypt hash written and verified only by the
	// proxy's fast-path handlers; it never travels back to clients.
	PasswordHash string `json:"passwordHash,omitempty"`

	Role string `json:"role,omitempty"`

	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
}

// PublicUser is the shape returned to clients: everything except the hash.
type PublicUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Branch   string `json:"branch,omitempty"`
	Rank     string `json:"rank,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Public strips server-side fields from a User.
func (u *User) Public() PublicUser {
	return PublicUser{
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Branch:   u.Branch,
		Rank:     u.Rank,
		Role:     u.Role,
	}
}

// AuthResponse is the payload embedded in a correlated auth-response issue
// body, and also the JSON returned by the proxy's fast-path auth handlers.
type AuthResponse struct {
	Success  bool        `json:"success"`
	Error    string      `json:"error,omitempty"`
	User     *PublicUser `json:"user,omitempty"`
	UserID   string      `json:"userId,omitempty"`
	Username string      `json:"username,omitempty"`
	Token    string      `json:"token,omitempty"`
}
