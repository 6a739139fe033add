package models

import (
	"strings"
	"time"
)

// User is the profile of an author as returned by the content API.
type User struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName"`
	Bio         string    `json:"bio,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (u *User) GetName() string {
	if u == nil {
		return "Unknown"
	}
	if len(strings.TrimSpace(u.DisplayName)) > 0 {
		return u.DisplayName
	} else if len(u.Username) > 0 {
		return u.Username
	} else if len(u.Email) > 0 {
		return u.Email
	}
	return "Unknown"
}

func (u *User) GetIdentity() string {
	if u == nil {
		return ""
	}
	if len(u.Username) > 0 {
		return u.Username
	}
	return u.Email
}
