// Command token mints a bearer token for the write endpoints.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"thoughtnet/internal/config"
	"thoughtnet/internal/middleware"
)

func main() {
	sub := flag.String("sub", "", "Subject to embed in the token, usually a user id")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *sub == "" {
		log.Fatal("-sub is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	token, err := middleware.IssueToken(cfg.JWTSecret, *sub, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
