package models

import "github.com/golang-jwt/jwt/v5"

// RegisterRequest creates a new account. Accounts start unverified and must
// be approved by an admin before they can use the journal.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name"`
	Password string `json:"password" validate:"required,min=4"`
	Role     string `json:"role" validate:"required,oneof=admin teacher student"`
	GroupID  string `json:"group_id"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// TokenResponse is the OAuth2-style token payload returned by /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginResponse returns the issued token together with the user profile.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

// Claims is the JWT payload. The token deliberately carries only the subject
// (username); the principal is always re-resolved from storage per request.
type Claims struct {
	jwt.RegisteredClaims
}
