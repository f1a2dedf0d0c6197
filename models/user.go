package models

import "time"

// User is an account identity. Password is empty for externally
// authenticated accounts and is always blanked before serialization.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
