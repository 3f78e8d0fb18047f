package service

import (
	"time"

	"paircode/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	magicLinkTTL = 24 * time.Hour
	candidateTTL = 24 * time.Hour
)

// AuthService handles interviewer login, candidate invitations and user tokens
type AuthService struct {
	hostUsername string
	hostPassword string
	jwtSecret    []byte
}

// NewAuthService creates a new auth service
func NewAuthService(username, password, secret string) *AuthService {
	return &AuthService{
		hostUsername: username,
		hostPassword: password,
		jwtSecret:    []byte(secret),
	}
}

// InterviewerID derives a stable identity from the login name, so rooms
// created in earlier sessions stay owned by the same interviewer.
func InterviewerID(username string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("paircode:interviewer:"+username)).String()
}

// Login validates credentials and returns a permanent token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.hostUsername || password != s.hostPassword {
		return nil, model.ErrInvalidCredentials
	}

	userID := InterviewerID(username)
	token, err := s.issue(userID, true, 0)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:  token,
		UserID: userID,
	}, nil
}

// GenerateUserToken signs a candidate identity token. A zero ttl means no expiry.
func (s *AuthService) GenerateUserToken(userID string, ttl time.Duration) (string, error) {
	return s.issue(userID, false, ttl)
}

func (s *AuthService) issue(userID string, host bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &model.UserClaims{
		UserID: userID,
		Host:   host,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateUserToken validates a user JWT and returns claims
func (s *AuthService) ValidateUserToken(tokenString string) (*model.UserClaims, error) {
	claims := &model.UserClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, model.ErrInvalidToken
	}
	return claims, nil
}

// GenerateMagicLink creates a room-scoped invitation for a candidate
func (s *AuthService) GenerateMagicLink(roomID string) (string, error) {
	now := time.Now()
	claims := &model.MagicLinkClaims{
		RoomID: roomID,
		Role:   model.RoleCandidate,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(magicLinkTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateMagicLink validates an invitation and returns claims
func (s *AuthService) ValidateMagicLink(tokenString string) (*model.MagicLinkClaims, error) {
	claims := &model.MagicLinkClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.RoomID == "" || claims.Role != model.RoleCandidate {
		return nil, model.ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return model.ErrInvalidToken
	}
	return nil
}
