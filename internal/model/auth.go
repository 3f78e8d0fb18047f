package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are JWT claims identifying an interviewer or a joined candidate
type UserClaims struct {
	UserID string `json:"userId"`
	Host   bool   `json:"host,omitempty"` // logged in as interviewer
	jwt.RegisteredClaims
}

// MagicLinkClaims are JWT claims for a room invitation
type MagicLinkClaims struct {
	RoomID string `json:"roomId"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for interviewer login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// JoinRequest redeems a magic link
type JoinRequest struct {
	Token string `json:"token"`
}

// JoinResponse is returned when a candidate joins a room
type JoinResponse struct {
	Token  string `json:"token,omitempty"`
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
	Role   Role   `json:"role"`
}
