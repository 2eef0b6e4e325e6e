package models

import "time"

// Account is a row of the users table. Password holds the bcrypt hash.
type Account struct {
	UserID    string    `json:"user_id"`
	Password  string    `json:"-"`
	UserName  string    `json:"user_name"`
	Role      string    `json:"role"`
	Locked    bool      `json:"account_locked"`
	Deleted   bool      `json:"del_flg"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName falls back to the user ID when no user name is recorded.
func (a *Account) DisplayName() string {
	if a.UserName != "" {
		return a.UserName
	}
	return a.UserID
}

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)
