package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avinasha18/interview-proctor/internal/models"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// ParticipantClaims bind a websocket participant to one interview room and role.
type ParticipantClaims struct {
	InterviewID string      `json:"interviewId"`
	Role        models.Role `json:"role"`
	Email       string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IssueParticipantToken signs an HS256 token for the given room and role.
func IssueParticipantToken(secret []byte, interviewID string, role models.Role, email string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", models.ErrValidation, role)
	}
	now := time.Now()
	claims := ParticipantClaims{
		InterviewID: interviewID,
		Role:        role,
		Email:       email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseParticipantToken validates signature, expiry and role.
func ParseParticipantToken(secret []byte, tokenStr string) (*ParticipantClaims, error) {
	claims := &ParticipantClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.InterviewID == "" || !claims.Role.Valid() {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
