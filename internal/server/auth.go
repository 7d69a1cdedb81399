package server

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenValidity = 24 * time.Hour

var errInvalidToken = errors.New("invalid token")

type adminClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// issueAdminToken signs a 24-hour HS256 token whose subject is the
// admin identifier.
func (s *Server) issueAdminToken(adminID, email string) (string, error) {
	now := time.Now()
	claims := adminClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenValidity)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// verifyAdminToken parses and validates a token, returning its claims.
// Expired, malformed, or foreign-signed tokens all come back as
// errInvalidToken.
func (s *Server) verifyAdminToken(raw string) (*adminClaims, error) {
	claims := &adminClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}
