// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is a registered user. PasswordHash and Salt are hex strings; the
// plaintext password is never kept.
type Account struct {
	ID           string
	DisplayName  string
	Handle       string
	Email        string
	PasswordHash string
	Salt         string
	// PasswordAlgo names the hasher that produced PasswordHash (see cryptox.ForAlgo).
	PasswordAlgo string
	Phone        int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicAccount is the part of an Account safe to hand to clients.
type PublicAccount struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Handle      string    `json:"handle"`
	Email       string    `json:"email"`
	Phone       int64     `json:"phone"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (a *Account) Public() *PublicAccount {
	return &PublicAccount{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Handle:      a.Handle,
		Email:       a.Email,
		Phone:       a.Phone,
		CreatedAt:   a.CreatedAt,
	}
}
