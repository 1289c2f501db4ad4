package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/storesync/backend/internal/infrastructure/auth"
	"github.com/storesync/backend/internal/infrastructure/config"
)

// token issues a bearer token for the admin API using the configured secret.
//
//	token -sub ops@example.com -scopes sync,orders -ttl 720h
func main() {
	var (
		subject string
		scopes  string
		ttl     time.Duration
	)
	flag.StringVar(&subject, "sub", "", "Token subject, e.g. the operator's email (required)")
	flag.StringVar(&scopes, "scopes", strings.Join(auth.AllScopes, ","), "Comma separated scopes")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var granted []string
	for _, s := range strings.Split(scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			granted = append(granted, s)
		}
	}

	issued, err := auth.NewJWTService(cfg.Admin).GenerateToken(subject, granted, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(issued); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write token: %v\n", err)
		os.Exit(1)
	}
}
