package domain

import "time"

// User is an authenticated account. ID is the uid handed to the cart core.
type User struct {
	ID           string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
