package authservice

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/twinj/uuid"
)

// Tokenizer issues and resolves the bearer credential bound to a user.
type Tokenizer interface {
	Issue(userID uint64) (string, error)
	Resolve(token string) (uint64, error)
}

type tokenizer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenizer returns an HS256 Tokenizer. A non-positive ttl falls back to
// AccessTokenExpiry.
func NewTokenizer(secret []byte, ttl time.Duration) Tokenizer {
	if ttl <= 0 {
		ttl = AccessTokenExpiry()
	}
	return &tokenizer{secret: secret, ttl: ttl}
}

var (
	uuidV4 = uuid.NewV4
	now    = time.Now
)

func (t *tokenizer) Issue(userID uint64) (string, error) {
	if userID == 0 {
		return "", authsvc.ErrUserIDContextMissing
	}

	issuedAt := now()
	claims := jwt.MapClaims{
		"jti":     uuidV4().String(),
		"user_id": strconv.FormatUint(userID, 10),
		"iat":     issuedAt.Unix(),
		"exp":     issuedAt.Add(t.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *tokenizer) Resolve(token string) (uint64, error) {
	if token == "" {
		return 0, authsvc.ErrUnauthorized
	}

	parsed, err := jwt.Parse(token, func(tk *jwt.Token) (interface{}, error) {
		if tk.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", tk.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, authsvc.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, authsvc.ErrUnauthorized
	}

	raw, ok := claims["user_id"].(string)
	if !ok {
		return 0, authsvc.ErrUnauthorized
	}

	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || userID == 0 {
		return 0, authsvc.ErrUnauthorized
	}

	return userID, nil
}

func AccessTokenExpiry() time.Duration {
	return time.Minute * 15
}
