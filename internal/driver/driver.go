// Package driver arbitrates the single-writer token over a room's shared editor.
//
// Every operation is a total function over the current token value. Acquire
// never checks for a current holder: concurrent acquirers resolve
// last-write-wins in the shared store.
package driver

import (
	"paircode/internal/model"
	"paircode/internal/phase"
)

// Token names the participant currently allowed to edit. Empty means nobody.
type Token struct {
	DriverID string `json:"driverId"`
}

// Held reports whether anyone is driving
func (t Token) Held() bool {
	return t.DriverID != ""
}

// Acquire hands the token to identity, overwriting any current holder
func Acquire(t Token, identity string) Token {
	if identity == "" {
		return t
	}
	return Token{DriverID: identity}
}

// Release clears the token only when identity holds it
func Release(t Token, identity string) Token {
	if identity == "" || t.DriverID != identity {
		return t
	}
	return Token{}
}

// ForceTake lets the interviewer take the token from anyone
func ForceTake(t Token, identity string, role model.Role) (Token, error) {
	if role != model.RoleInterviewer {
		return t, model.ErrUnauthorized
	}
	return Token{DriverID: identity}, nil
}

// IsDriver reports whether identity holds the token
func IsDriver(t Token, identity string) bool {
	return identity != "" && t.DriverID == identity
}

// CanEdit reports whether identity may edit shared files in phase p
func CanEdit(t Token, identity string, p model.Phase) bool {
	return IsDriver(t, identity) && !phase.LocksEditor(p)
}
