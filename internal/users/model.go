package users

import "time"

// User is a local account. PasswordHash is a bcrypt hash and never serialized.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public is the account shape returned to clients.
type Public struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Public strips credentials and timestamps.
func (u User) Public() Public {
	return Public{ID: u.ID, Username: u.Username, Email: u.Email}
}
