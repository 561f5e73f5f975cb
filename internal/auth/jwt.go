package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles recognized by the credential service.
const (
	RoleStudent  = "student"
	RoleLecturer = "lecturer"
	RoleAdmin    = "admin"
)

// Identity is the authenticated caller as asserted by the credential
// service. Number carries the student or staff id; it may be empty for
// admins.
type Identity struct {
	ID     string
	Name   string
	Number string
	Email  string
	Role   string
}

// Claims represents the JWT payload issued by the credential service.
type Claims struct {
	Role   string `json:"role"`
	Name   string `json:"name"`
	Number string `json:"number,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts claims into the caller identity.
func (c Claims) Identity() Identity {
	return Identity{
		ID:     c.Subject,
		Name:   c.Name,
		Number: c.Number,
		Email:  c.Email,
		Role:   c.Role,
	}
}

// Issue signs an access token for the given identity. The credential
// service issues tokens in production; this helper backs the dev token
// endpoint and tests.
func Issue(id Identity, issuer, key string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := Claims{
		Role:   id.Role,
		Name:   id.Name,
		Number: id.Number,
		Email:  id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Parse validates a token and returns its claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	switch claims.Role {
	case RoleStudent, RoleLecturer, RoleAdmin:
	default:
		return Claims{}, errors.New("unknown role")
	}
	return *claims, nil
}
