package service

import (
	"errors"
	"testing"
	"time"

	"paircode/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

func TestLogin(t *testing.T) {
	auth := NewAuthService("host", "secret", "key")

	if _, err := auth.Login("host", "wrong"); !errors.Is(err, model.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}

	first, err := auth.Login("host", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	second, _ := auth.Login("host", "secret")
	if first.UserID != second.UserID {
		t.Fatalf("interviewer id should be stable: %s vs %s", first.UserID, second.UserID)
	}

	claims, err := auth.ValidateUserToken(first.Token)
	if err != nil || claims.UserID != first.UserID || !claims.Host {
		t.Fatalf("validate: %+v %v", claims, err)
	}

	candidate, _ := auth.GenerateUserToken("u1", time.Hour)
	if claims, err := auth.ValidateUserToken(candidate); err != nil || claims.Host {
		t.Fatalf("candidate token must not be a host token: %+v %v", claims, err)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	auth := NewAuthService("host", "secret", "key")

	link, err := auth.GenerateMagicLink("room-1")
	if err != nil {
		t.Fatalf("magic link: %v", err)
	}
	if _, err := auth.ValidateUserToken(link); !errors.Is(err, model.ErrInvalidToken) {
		t.Fatalf("magic link used as user token: want ErrInvalidToken, got %v", err)
	}

	user, _ := auth.GenerateUserToken("u1", time.Hour)
	if _, err := auth.ValidateMagicLink(user); !errors.Is(err, model.ErrInvalidToken) {
		t.Fatalf("user token used as magic link: want ErrInvalidToken, got %v", err)
	}

	claims, err := auth.ValidateMagicLink(link)
	if err != nil || claims.RoomID != "room-1" || claims.Role != model.RoleCandidate {
		t.Fatalf("validate link: %+v %v", claims, err)
	}
}

func TestExpiredMagicLink(t *testing.T) {
	auth := NewAuthService("host", "secret", "key")
	past := time.Now().Add(-time.Hour)
	claims := &model.MagicLinkClaims{
		RoomID: "room-1",
		Role:   model.RoleCandidate,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(past),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := auth.ValidateMagicLink(token); !errors.Is(err, model.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
	if _, err := auth.ValidateUserToken("garbage"); !errors.Is(err, model.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}
