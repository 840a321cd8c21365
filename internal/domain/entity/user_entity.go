package entity

import (
	"time"
)

// User is the authentication record behind a Profile.
// Passwords are stored as bcrypt hashes in Password.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Password         string     `json:"-"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsConfirmed reports whether the user finished email confirmation.
func (u *User) IsConfirmed() bool {
	return u != nil && u.EmailConfirmedAt != nil
}

// Profile is the public identity of a user. Its ID equals the user ID.
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Username    string    `json:"username"`
	AvatarURL   string    `json:"avatar_url"`
	Bio         string    `json:"bio"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfilePatch carries the editable profile fields; nil means unchanged.
type ProfilePatch struct {
	DisplayName *string `json:"display_name"`
	Username    *string `json:"username"`
	AvatarURL   *string `json:"avatar_url"`
	Bio         *string `json:"bio"`
	IsPublic    *bool   `json:"is_public"`
}

func (p ProfilePatch) Apply(pr *Profile) {
	if p.DisplayName != nil {
		pr.DisplayName = *p.DisplayName
	}
	if p.Username != nil {
		pr.Username = *p.Username
	}
	if p.AvatarURL != nil {
		pr.AvatarURL = *p.AvatarURL
	}
	if p.Bio != nil {
		pr.Bio = *p.Bio
	}
	if p.IsPublic != nil {
		pr.IsPublic = *p.IsPublic
	}
}
