package security

import (
	"errors"
	"fmt"
	"time"

	"univote/contexts/campus-elections/election-service/domain/entities"

	"github.com/golang-jwt/jwt/v4"
)

var errInvalidToken = errors.New("invalid session token")

type sessionClaims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTIssuer signs session tokens with HS256.
type JWTIssuer struct {
	Secret []byte
	Issuer string
}

func NewJWTIssuer(secret string, issuer string) (JWTIssuer, error) {
	if len(secret) < 16 {
		return JWTIssuer{}, errors.New("jwt secret must be at least 16 bytes")
	}
	return JWTIssuer{Secret: []byte(secret), Issuer: issuer}, nil
}

func (j JWTIssuer) Issue(principal entities.Principal, expiresAt time.Time) (string, error) {
	claims := sessionClaims{
		Role: string(principal.Role),
		Name: principal.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt.UTC()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.Secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates signature, algorithm and expiry and returns the principal.
func (j JWTIssuer) Parse(token string) (entities.Principal, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return j.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return entities.Principal{}, errInvalidToken
	}
	role := entities.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return entities.Principal{}, errInvalidToken
	}
	return entities.Principal{
		ID:          claims.Subject,
		Role:        role,
		DisplayName: claims.Name,
	}, nil
}
