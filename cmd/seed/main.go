// Command seed provisions the operator-managed records: users, static clients
// and domains.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/manorfm/cpa-auth/internal/application"
	"github.com/manorfm/cpa-auth/internal/infrastructure/config"
	"github.com/manorfm/cpa-auth/internal/infrastructure/database"
	"github.com/manorfm/cpa-auth/internal/infrastructure/jwt"
	"github.com/manorfm/cpa-auth/internal/infrastructure/repository"
	"github.com/manorfm/cpa-auth/internal/infrastructure/token"
	"go.uber.org/zap"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  seed user   -username NAME -password PASS [-display-name NAME]
  seed client -name NAME [-id ID] [-redirect-uri URI]
  seed domain -name HOST [-display-name NAME]
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	oauthRepo := repository.NewOAuth2Repository(db, logger)
	registration := application.NewRegistrationService(oauthRepo, token.NewGenerator(logger), cfg, nil, logger)

	flags := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	switch os.Args[1] {
	case "user":
		username := flags.String("username", "", "Login name")
		password := flags.String("password", "", "Password")
		displayName := flags.String("display-name", "", "Display name")
		flags.Parse(os.Args[2:])

		sessions := jwt.NewSessionManager(cfg.SessionSecret, cfg.SessionDuration, logger)
		authService := application.NewAuthService(repository.NewUserRepository(db, logger), sessions, logger)
		user, err := authService.Register(ctx, *username, *displayName, *password)
		if err != nil {
			logger.Fatal("Failed to create user", zap.Error(err))
		}
		fmt.Printf("user_id=%s\n", user.ID)
	case "client":
		id := flags.String("id", "", "Client id, generated when empty")
		name := flags.String("name", "", "Client display name")
		redirectURI := flags.String("redirect-uri", "", "Registered redirect URI")
		flags.Parse(os.Args[2:])

		client, err := registration.CreateStaticClient(ctx, *id, *name, *redirectURI)
		if err != nil {
			logger.Fatal("Failed to create client", zap.Error(err))
		}
		fmt.Printf("client_id=%s\nclient_secret=%s\n", client.ID, client.Secret)
	case "domain":
		name := flags.String("name", "", "Domain name")
		displayName := flags.String("display-name", "", "Display name")
		flags.Parse(os.Args[2:])

		d, err := registration.CreateDomain(ctx, *name, *displayName)
		if err != nil {
			logger.Fatal("Failed to create domain", zap.Error(err))
		}
		fmt.Printf("domain_id=%s\naccess_token=%s\n", d.ID, d.AccessToken)
	default:
		usage()
	}
}
