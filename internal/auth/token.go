package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"airg/internal/models"
)

// Claims is the session token payload: subject is the user id.
type Claims struct {
	Email string          `json:"email"`
	Role  models.UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string { return c.Subject }

// Session is what a successful login or registration returns.
type Session struct {
	Token     string               `json:"access_token"`
	ExpiresAt time.Time            `json:"expires_at"`
	User      models.PublicProfile `json:"user"`
}

// IssueSession signs a stateless HS256 token for user. Nothing is stored.
func (s *Service) IssueSession(user models.PublicProfile) (Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)

	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	return Session{Token: signed, ExpiresAt: exp, User: user}, nil
}

// VerifyToken parses and validates a session token. Expiry is enforced by
// the jwt library.
func (s *Service) VerifyToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
