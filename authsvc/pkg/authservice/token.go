package authservice

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/ichigozero/taskmgr/authsvc"
)

// ErrInvalidToken covers bad signatures, malformed and expired tokens alike.
var ErrInvalidToken = errors.New("invalid token")

type Tokenizer interface {
	Generate(id authsvc.Identity) (string, error)
	Verify(token string) (authsvc.Identity, error)
}

type Claims struct {
	UserID string       `json:"id"`
	Email  string       `json:"email"`
	Role   authsvc.Role `json:"role"`
	jwt.RegisteredClaims
}

type tokenizer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenizer(secret string, expiry time.Duration) Tokenizer {
	return &tokenizer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

func (t *tokenizer) Generate(id authsvc.Identity) (string, error) {
	now := t.now()
	claims := Claims{
		UserID: id.ID,
		Email:  id.Email,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}

	hash, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return hash, nil
}

func (t *tokenizer) Verify(token string) (authsvc.Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, t.keyFunc)
	if err != nil || !parsed.Valid {
		return authsvc.Identity{}, ErrInvalidToken
	}

	// jwt/v4 accepts a token without exp as never expiring.
	if claims.ExpiresAt == nil || claims.UserID == "" || !claims.Role.Valid() {
		return authsvc.Identity{}, ErrInvalidToken
	}

	return authsvc.Identity{ID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

func (t *tokenizer) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return t.secret, nil
}
