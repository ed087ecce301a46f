package model

import "time"

type User struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	WorkOSID  *string   `json:"workos_id,omitempty"`
	// ProviderToken is the user's GitLab personal access token, stored once
	// validated through the connect flow. Nil until connected.
	ProviderToken  *string `json:"-"`
	ProviderUserID *int64  `json:"provider_user_id,omitempty"`
	ID             int64   `json:"id"`
}

// Connected reports whether the user has a validated provider credential.
func (u *User) Connected() bool {
	return u.ProviderToken != nil && *u.ProviderToken != "" && u.ProviderUserID != nil
}
