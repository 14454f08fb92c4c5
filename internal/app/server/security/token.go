package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 8 * 24 * time.Hour

var ErrEmptySecret = errors.New("jwt secret is empty")

// Tokens выпускает и проверяет подписанные HS256 токены доступа
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL - время жизни токена по умолчанию
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue подписывает токен с sub=subject. ttl <= 0 означает значение из конфигурации.
func (t *Tokens) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = t.ttl
	}

	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify возвращает subject валидного токена. Ошибок наружу не отдаёт.
func (t *Tokens) Verify(token string) (string, bool) {
	var claims jwt.RegisteredClaims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", false
	}

	return claims.Subject, true
}
