package jwt

import "time"

type Role string

const RoleAgent Role = "agent"

const DefaultTTL = 12 * time.Hour

// Agent is the staff identity carried by an agent token.
type Agent struct {
	ID        string
	Name      string
	ExpiresAt time.Time
}

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   int64  `json:"expiresAt"`
}
