package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenPayload is what a caller supplies when minting.
type AccessTokenPayload struct {
	UserID   uint
	Username string
	JTI      string
}

// AccessTokenClaims is the decoded access token.
type AccessTokenClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}
