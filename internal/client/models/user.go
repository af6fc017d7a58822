package models

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// AuthResponse is the payload of auth/login and auth/register.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
