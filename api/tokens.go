package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	purposeSession = "session"
	purposeNonce   = "nonce"
)

var errTokenPurpose = errors.New("token has the wrong purpose")

// Claims are carried by both session tokens and nonces; Purpose tells them apart.
type Claims struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 session tokens and request nonces.
type Tokens struct {
	secret        []byte
	tokenDuration time.Duration
	nonceDuration time.Duration
}

func NewTokens(secret string, tokenDuration, nonceDuration time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), tokenDuration: tokenDuration, nonceDuration: nonceDuration}
}

func (t *Tokens) IssueSession(userID int64, email string) (string, error) {
	return t.sign(Claims{UserID: userID, Email: email, Purpose: purposeSession}, t.tokenDuration)
}

// IssueNonce returns an anti-forgery token bound to userID.
func (t *Tokens) IssueNonce(userID int64) (string, error) {
	return t.sign(Claims{UserID: userID, Purpose: purposeNonce}, t.nonceDuration)
}

func (t *Tokens) sign(c Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

func (t *Tokens) parse(tokenString, purpose string) (*Claims, error) {
	var c Claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if c.Purpose != purpose {
		return nil, errTokenPurpose
	}

	return &c, nil
}

// ParseSession validates a session token and returns its claims.
func (t *Tokens) ParseSession(tokenString string) (*Claims, error) {
	c, err := t.parse(tokenString, purposeSession)
	if err != nil {
		return nil, err
	}
	if c.UserID <= 0 {
		return nil, errors.New("token has no user")
	}
	return c, nil
}

// VerifyNonce checks that nonce is valid and was issued to userID.
func (t *Tokens) VerifyNonce(nonce string, userID int64) error {
	c, err := t.parse(nonce, purposeNonce)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return errors.New("nonce issued to another user")
	}
	return nil
}
