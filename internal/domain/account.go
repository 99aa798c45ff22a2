package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary strips everything the login and /me responses are allowed to
// expose. The password hash never leaves the account store.
func (a *Account) Summary() map[string]any {
	return map[string]any{
		"id":    a.ID,
		"email": a.Email,
		"role":  a.Role,
	}
}
