package middleware

import (
	"context"
	"net/http"
	"strings"

	internaljwt "dealer-support-chat/internal/jwt"
)

type ctxKey int

const agentKey ctxKey = iota

// AgentFromContext returns the agent authenticated by ValidateAgentJWT.
func AgentFromContext(ctx context.Context) (internaljwt.Agent, bool) {
	agent, ok := ctx.Value(agentKey).(internaljwt.Agent)
	return agent, ok
}

func WithAgent(ctx context.Context, agent internaljwt.Agent) context.Context {
	return context.WithValue(ctx, agentKey, agent)
}

// ValidateAgentJWT rejects requests without a valid agent bearer token.
func ValidateAgentJWT(secret string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "Unauthorized")
				return
			}

			agent, err := internaljwt.ParseToken(secret, strings.TrimSpace(header[len("Bearer "):]))
			if err != nil {
				unauthorized(w, "Unauthorized")
				return
			}

			next(w, r.WithContext(WithAgent(r.Context(), agent)))
		}
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":"` + msg + `"}`))
}
