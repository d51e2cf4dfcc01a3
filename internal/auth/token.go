package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"live-quiz-service/internal/domain"
)

// Verifier mints and checks HS256 tokens carrying the caller identity.
// Any malformed, expired, or mis-signed token maps to ErrAuthRequired so the
// transport layer can prompt for login instead of leaking parser details.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Mint issues a token for the given identity, valid for ttl.
func (v *Verifier) Mint(identity domain.Identity, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   identity.ParticipantID,
		"name":  identity.DisplayName,
		"admin": identity.Admin,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Identify resolves a raw token to the caller identity.
func (v *Verifier) Identify(raw string) (domain.Identity, error) {
	if raw == "" {
		return domain.Identity{}, domain.ErrAuthRequired
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Identity{}, domain.ErrAuthRequired
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, domain.ErrAuthRequired
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return domain.Identity{}, domain.ErrAuthRequired
	}
	name, _ := claims["name"].(string)
	admin, _ := claims["admin"].(bool)
	return domain.Identity{ParticipantID: sub, DisplayName: name, Admin: admin}, nil
}
