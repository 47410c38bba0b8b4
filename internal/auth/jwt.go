package auth

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Roma7-7-7/linguatune/internal/config"
)

type JWTProcessor struct {
	issuer         string
	audience       []string
	accessExpireIn time.Duration

	secret []byte
}

func NewJWTProcessor(conf config.JWT, accessExpireIn time.Duration) *JWTProcessor {
	return &JWTProcessor{
		issuer:         conf.Issuer,
		audience:       conf.Audience,
		accessExpireIn: accessExpireIn,

		secret: []byte(conf.Secret),
	}
}

func (p *JWTProcessor) ToAccessToken(userID int64) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    p.issuer,
		Subject:   strconv.FormatInt(userID, 10),
		Audience:  p.audience,
		ExpiresAt: jwt.NewNumericDate(now.Add(p.accessExpireIn)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.New().String(),
	})

	signedString, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signedString, nil
}

func (p *JWTProcessor) ParseAccessToken(token string) (int64, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return 0, errors.New("invalid token claims")
	}
	if !containsAll(claims.Audience, p.audience) {
		return 0, errors.New("invalid audience")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse subject: %w", err)
	}
	return userID, nil
}

// containsAll returns true if all elements in required are present in actual
func containsAll(actual, required []string) bool {
	for _, r := range required {
		if !slices.Contains(actual, r) {
			return false
		}
	}
	return true
}
