package main

import (
	"context"
	"log"
	"net/http"

	httpapi "github.com/rsehgal/wayfarer/internal/adapters/http"
	"github.com/rsehgal/wayfarer/internal/adapters/llm"
	firestorestore "github.com/rsehgal/wayfarer/internal/adapters/storage/firestore"
	memstore "github.com/rsehgal/wayfarer/internal/adapters/storage/memory"
	"github.com/rsehgal/wayfarer/internal/app/trip"
	"github.com/rsehgal/wayfarer/internal/config"
	"github.com/rsehgal/wayfarer/internal/domain"
	"github.com/rsehgal/wayfarer/internal/observability"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	logger := observability.Component("main")

	var (
		llmClient domain.LLMClient
		err       error
	)

	if cfg.UseMockLLM {
		logger.Info("using mock LLM client")
		llmClient = llm.NewMockLLM()
	} else {
		logger.Info("using Vertex LLM client", "model", cfg.ModelName)
		llmClient, err = llm.NewVertexClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing Vertex LLM client: %v", err)
		}
	}

	// Storage: Firestore or Memory
	var (
		sessionStore domain.SessionStore
		messageStore domain.MessageStore
		tripStore    domain.TripStore
		profileStore domain.ProfileStore
	)

	switch cfg.StorageBackend {
	case "firestore":
		if cfg.GCPProjectID == "" {
			log.Fatal("WAYFARER_GCP_PROJECT is required for the Firestore storage backend")
		}

		logger.Info("using Firestore storage", "project", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}

		// 1 store, implements 4 interfaces
		sessionStore = fsStore
		messageStore = fsStore
		tripStore = fsStore
		profileStore = fsStore

	default:
		logger.Info("using in-memory storage")
		sessionStore = memstore.NewSessionStore()
		messageStore = memstore.NewMessageStore()
		tripStore = memstore.NewTripStore()
		profileStore = memstore.NewProfileStore()
	}

	svc := trip.NewService(llmClient, sessionStore, messageStore, tripStore, profileStore)

	// Token verification is opt-in; local runs skip it.
	var verifier httpapi.TokenVerifier
	if cfg.VerifyTokens && cfg.GCPProjectID != "" {
		verifier, err = httpapi.NewFirebaseVerifier(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing token verifier: %v", err)
		}
		logger.Info("bearer token verification enabled")
	}

	handler := httpapi.NewServer(svc, verifier)

	addr := ":" + cfg.Port
	logger.Info("wayfarer API listening", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
