package jwtutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrNotConfigured = errors.New("JWT configuration not provided")
)

// Claims is what a verified token says about its bearer. HasEmail separates a
// missing e-mail claim from an empty one.
type Claims struct {
	Subject  string
	Email    string
	HasEmail bool
}

// Verifier turns a raw bearer token into the caller's claims
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Claims, error)
}

// JWTConfig holds HMAC JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
	Audience        string
}

// UserClaims represents the JWT claims for user authentication.
// Email is a pointer so an absent claim can be told apart from an empty one.
type UserClaims struct {
	Email *string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTUtil signs and validates HS256 tokens
type JWTUtil struct {
	config *JWTConfig
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *JWTConfig) *JWTUtil {
	return &JWTUtil{
		config: config,
	}
}

// GenerateToken creates a token for subject; an empty email omits the e-mail claim
func (j *JWTUtil) GenerateToken(subject, email string) (string, error) {
	if j.config == nil {
		return "", ErrNotConfigured
	}

	now := time.Now()
	claims := UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(j.config.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if email != "" {
		claims.Email = &email
	}
	if j.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{j.config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.config.SigningKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates and parses the JWT token
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	if j.config == nil {
		return nil, ErrNotConfigured
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if j.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(j.config.Audience))
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Verify implements Verifier
func (j *JWTUtil) Verify(_ context.Context, rawToken string) (Claims, error) {
	claims, err := j.ValidateToken(rawToken)
	if err != nil {
		return Claims{}, err
	}
	return claims.bearer(), nil
}

func (c *UserClaims) bearer() Claims {
	out := Claims{Subject: c.Subject}
	if c.Email != nil {
		out.Email = *c.Email
		out.HasEmail = true
	}
	return out
}
