package api

import (
	"log/slog"

	"github.com/gorilla/mux"

	"github.com/garnizeh/bidwright/internal/config"
	"github.com/garnizeh/bidwright/pkg/repository"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Store     repository.Store
	Generator BidGenerator
}

func SetupRoutes(cfg *config.Config, version, buildTime string, deps Deps) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(BodyLimitMiddleware(cfg.Upload.MaxRequestBytes()))

	tokens := NewTokens(cfg.JWTSecret, cfg.TokenDuration, cfg.NonceDuration)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(deps.Store, tokens)
	clientConfigHandler := NewClientConfigHandler(tokens, cfg.DashboardSlug)
	bidsHandler := NewBidsHandler(deps.Store, deps.Generator, tokens, cfg.Upload)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddleware(tokens))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	apiV1.HandleFunc("/client-config", clientConfigHandler.Get).Methods("GET")

	// Bid actions
	apiV1.HandleFunc("/actions/{action}", bidsHandler.Dispatch).Methods("GET", "POST")
	logger.Info("bid actions registered", slog.Any("actions", bidsHandler.Actions()))

	return r
}
