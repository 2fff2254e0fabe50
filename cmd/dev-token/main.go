// Command dev-token prints a signed learner token for local testing against
// a running quiz server. It reads the same configuration as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/config"
	"github.com/phrazzld/scry-quiz/internal/service/auth"
)

func main() {
	learner := flag.String("learner", "", "learner UUID (a random one is generated when empty)")
	flag.Parse()

	learnerID := uuid.New()
	if *learner != "" {
		parsed, err := uuid.Parse(*learner)
		if err != nil {
			log.Fatalf("Invalid learner ID %q: %v", *learner, err)
		}
		learnerID = parsed
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	token, err := tokens.GenerateToken(context.Background(), learnerID)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Printf("Learner: %s\nLifetime: %d minutes\nToken: %s\n", learnerID, cfg.Auth.TokenLifetimeMinutes, token)
}
