// Command devtoken mints a bearer token signed with the configured auth secret
// so the API can be exercised locally without the identity provider.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/musaabMD/expoiosweb/internal/config"
	"github.com/musaabMD/expoiosweb/internal/service/auth"
)

func main() {
	subject := flag.String("subject", "", "Identity provider subject to put in the token (required)")
	email := flag.String("email", "", "Optional email claim")
	flag.Parse()

	if *subject == "" {
		log.Fatal("devtoken: -subject is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("devtoken: failed to load configuration: %v", err)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		log.Fatalf("devtoken: failed to initialize JWT service: %v", err)
	}

	token, err := jwtService.GenerateToken(context.Background(), *subject, *email)
	if err != nil {
		log.Fatalf("devtoken: failed to generate token: %v", err)
	}
	fmt.Println(token)
}
