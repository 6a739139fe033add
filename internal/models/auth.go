package models

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// AuthResponse is returned by both the login and the registration exchange.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// IsComplete reports whether the response carries both halves of a session.
func (r *AuthResponse) IsComplete() bool {
	return r != nil && len(r.Token) > 0 && r.User != nil
}

type ProfileResponse struct {
	User *User `json:"user"`
}
