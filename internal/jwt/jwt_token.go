package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrEmptySecret = errors.New("jwt: secret is empty")
	ErrEmptyToken  = errors.New("jwt: token string is empty")
)

// CreateToken signs an HS256 agent token valid for ttl from now.
func CreateToken(secret string, agent Agent, ttl time.Duration, now time.Time) (TokenResponse, error) {
	if secret == "" {
		return TokenResponse{}, ErrEmptySecret
	}
	if agent.ID == "" {
		return TokenResponse{}, fmt.Errorf("jwt: agent id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	expires := now.Add(ttl).Unix()

	claims := jwt.MapClaims{
		"sub":  agent.ID,
		"name": agent.Name,
		"role": string(RoleAgent),
		"iat":  now.Unix(),
		"exp":  expires,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{AccessToken: tokenString, ExpiresAt: expires}, nil
}

func ParseToken(secret, tokenString string) (Agent, error) {
	if secret == "" {
		return Agent{}, ErrEmptySecret
	}
	if len(tokenString) == 0 {
		return Agent{}, ErrEmptyToken
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Agent{}, fmt.Errorf("unauthorized: %v", err)
	}
	if !token.Valid {
		return Agent{}, fmt.Errorf("token is not valid - unauthorized")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Agent{}, fmt.Errorf("claims of unauthorized type")
	}
	if role, _ := claims["role"].(string); role != string(RoleAgent) {
		return Agent{}, fmt.Errorf("invalid role in token")
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return Agent{}, fmt.Errorf("token has no expiry")
	}
	id, _ := claims["sub"].(string)
	if id == "" {
		return Agent{}, fmt.Errorf("token has no subject")
	}
	name, _ := claims["name"].(string)

	return Agent{ID: id, Name: name, ExpiresAt: time.Unix(int64(exp), 0)}, nil
}
