package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"dealer-support-chat/internal/env"
	internaljwt "dealer-support-chat/internal/jwt"
)

// agent-token mints a bearer token for the staff dashboard.
func main() {
	_ = godotenv.Load()

	secret := flag.String("secret", env.Get(env.AgentJWTSecret), "signing secret, defaults to "+env.AgentJWTSecret)
	agentID := flag.StringP("agent", "a", "", "agent id (required)")
	name := flag.StringP("name", "n", "", "agent display name")
	ttl := flag.Duration("ttl", internaljwt.DefaultTTL, "token lifetime")
	flag.Parse()

	if *agentID == "" {
		fmt.Fprintln(os.Stderr, "agent-token: --agent is required")
		flag.Usage()
		os.Exit(2)
	}

	token, err := internaljwt.CreateToken(*secret, internaljwt.Agent{ID: *agentID, Name: *name}, *ttl, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "agent-token: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(token); err != nil {
		fmt.Fprintf(os.Stderr, "agent-token: %v\n", err)
		os.Exit(1)
	}
}
