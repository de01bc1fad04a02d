// Package main initializes and starts the identity server, setting up
// configuration, logging, the document store, repositories, services and
// handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/cristianszwarc/ludmin/internal/config"
	"github.com/cristianszwarc/ludmin/internal/db"
	"github.com/cristianszwarc/ludmin/internal/logger"
	"github.com/cristianszwarc/ludmin/internal/repository"
	"github.com/cristianszwarc/ludmin/internal/security"
	"github.com/cristianszwarc/ludmin/internal/server/handler/http"
	"github.com/cristianszwarc/ludmin/internal/service"
	"github.com/cristianszwarc/ludmin/internal/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	zapLogger, err := logger.New("Info")
	if err != nil {
		panic(err)
	}
	defer func() { _ = zapLogger.Sync() }()

	for _, warning := range options.Warnings() {
		zapLogger.Warn(warning)
	}

	// Connect to the document store.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	database, disconnect, err := db.Connect(ctx, options.DatabaseDSN, options.DatabaseName)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer disconnect()

	// Initialize repositories for users and reset requests.
	userRepo := repository.NewMongoUserRepository(database.Collection(db.UsersCollection))
	resetRepo := repository.NewMongoResetRepository(database.Collection(db.ResetRequestsCollection))

	// Token signing and password hashing.
	tokens := token.NewService(options.SecretKey, options.TokenTimeout)
	hasher := security.NewHasher(bcrypt.DefaultCost)

	// Initialize business-logic services.
	sessionService := service.NewSessionService(userRepo, tokens, hasher)
	userService := service.NewUserService(userRepo, hasher)
	resetService := service.NewResetService(userRepo, resetRepo, hasher)

	// Create HTTP handlers for the session, account and reset endpoints.
	tokensHandler := &http.TokensHandler{Sessions: sessionService}
	usersHandler := &http.UsersHandler{Users: userService}
	resetHandler := &http.ResetHandler{Resets: resetService}

	// Build the router with middleware and routes.
	router := http.NewRouter(tokensHandler, usersHandler, resetHandler, tokens, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
