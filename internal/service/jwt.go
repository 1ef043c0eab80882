package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"task_tracker/internal/domain"
)

// TokenIssuer signs and checks HS256 session tokens carrying a user_id claim.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (ti *TokenIssuer) Generate(userID int64) (string, error) {
	now := ti.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(ti.ttl).Unix(),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Parse validates the token and returns its user id. Errors wrap domain.ErrUnauthorized.
func (ti *TokenIssuer) Parse(tokenString string) (int64, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	token, err := parser.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("%w: invalid claims", domain.ErrUnauthorized)
	}
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return 0, fmt.Errorf("%w: user_id not found", domain.ErrUnauthorized)
	}

	return int64(userID), nil
}
