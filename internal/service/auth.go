package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrAuthDisabled = errors.New("no JWT secret configured")

// AuthService verifies the bearer tokens issued by the host application's login flow.
// It only resolves who the actor is; access decisions live elsewhere.
type AuthService struct {
	jwtSecret string
}

func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{jwtSecret: jwtSecret}
}

// Enabled reports whether tokens can be verified at all.
func (s *AuthService) Enabled() bool {
	return s.jwtSecret != ""
}

// GenerateJWT signs a token for subject. Used for local and scripted access.
func (s *AuthService) GenerateJWT(subject string, expiry time.Duration) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": subject,
		"sub":     subject,
		"exp":     now.Add(expiry).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ActorID extracts the user id from verified claims, preferring user_id over sub.
func ActorID(claims jwt.MapClaims) (string, bool) {
	if id, ok := claims["user_id"].(string); ok && id != "" {
		return id, true
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}
