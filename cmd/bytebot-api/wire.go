package main

import (
	"context"
	"fmt"
	"net/http"

	httpadapter "github.com/PabloGalante/loan-agent/internal/adapters/http"
	"github.com/PabloGalante/loan-agent/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/loan-agent/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/loan-agent/internal/adapters/storage/memory"
	redisstore "github.com/PabloGalante/loan-agent/internal/adapters/storage/redis"
	"github.com/PabloGalante/loan-agent/internal/app/agentflow"
	"github.com/PabloGalante/loan-agent/internal/app/catalog"
	"github.com/PabloGalante/loan-agent/internal/app/conversation"
	"github.com/PabloGalante/loan-agent/internal/app/fallback"
	"github.com/PabloGalante/loan-agent/internal/app/lending"
	"github.com/PabloGalante/loan-agent/internal/app/pool"
	"github.com/PabloGalante/loan-agent/internal/app/tools"
	"github.com/PabloGalante/loan-agent/internal/config"
	"github.com/PabloGalante/loan-agent/internal/domain"
	"github.com/PabloGalante/loan-agent/internal/observability"
)

type app struct {
	loans   domain.LoanStore
	catalog *catalog.Service
	handler http.Handler
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func wireApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	log := observability.Logger()

	loans, closeLoans, err := newLoanStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.loans = loans
	a.closers = append(a.closers, closeLoans)

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeSessions)

	backends := newBackends(ctx, cfg)
	p, err := pool.New(backends...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("no usable model backend for provider %s: %w", cfg.Provider, err)
	}
	log.Info("model backends ready", "provider", cfg.Provider, "backends", p.Names())

	a.catalog = catalog.NewService(loans)
	a.catalog.Reload(ctx)

	registry := tools.NewLoanRegistry(loans)
	orchestrator := agentflow.NewOrchestrator(p, registry, cfg.ModelTimeout)
	responder := fallback.NewLoanResponder(loans, lending.NewApprover(loans))

	svc := conversation.NewService(sessions, orchestrator, responder, func() string {
		return llm.BuildSystemPrompt(a.catalog.Context())
	})

	a.handler = httpadapter.NewServer(svc, loans, a.catalog, cfg.FrontendOrigins)
	return a, nil
}

func newLoanStore(ctx context.Context, cfg *config.Config) (domain.LoanStore, func(), error) {
	switch cfg.StorageBackend {
	case "firestore":
		store, err := firestorestore.NewStore(ctx, firestorestore.Config{
			ProjectID:       cfg.GCPProjectID,
			CredentialsJSON: cfg.FirebaseCredentials,
			CredentialsFile: cfg.FirebaseCredentialsPath,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing Firestore store: %w", err)
		}
		observability.Logger().Info("using Firestore loan store", "project", cfg.GCPProjectID)
		return store, func() { _ = store.Close() }, nil

	default:
		observability.Logger().Info("using in-memory loan store")
		return memstore.NewLoanStore(), func() {}, nil
	}
}

func newSessionStore(ctx context.Context, cfg *config.Config) (domain.SessionStore, func(), error) {
	switch cfg.SessionBackend {
	case "redis":
		store, err := redisstore.NewSessionStore(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.SessionTTL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing Redis session store: %w", err)
		}
		observability.Logger().Info("using Redis session store", "addr", cfg.RedisAddr)
		return store, func() { _ = store.Close() }, nil

	default:
		observability.Logger().Info("using in-memory session store", "max_sessions", cfg.MaxSessions)
		return memstore.NewSessionStore(cfg.MaxSessions, cfg.SessionTTL), func() {}, nil
	}
}

// newBackends builds one backend per API key. Keys that fail to initialize
// are skipped; an empty result is reported by pool.New.
func newBackends(ctx context.Context, cfg *config.Config) []domain.ModelBackend {
	log := observability.WithFields("provider", cfg.Provider)
	var out []domain.ModelBackend

	switch cfg.Provider {
	case config.ProviderGemini:
		for i, key := range cfg.APIKeys {
			b, err := llm.NewGeminiBackend(ctx, llm.GeminiConfig{
				Name:   fmt.Sprintf("gemini-%d", i),
				APIKey: key,
				Model:  cfg.ModelName,
			})
			if err != nil {
				log.Error("skipping Gemini key", "index", i, "error", err)
				continue
			}
			out = append(out, b)
		}

	case config.ProviderVertex:
		b, err := llm.NewGeminiBackend(ctx, llm.GeminiConfig{
			Name:     "vertex",
			Project:  cfg.GCPProjectID,
			Location: cfg.GCPLocation,
			Model:    cfg.ModelName,
		})
		if err != nil {
			log.Error("failed to initialize Vertex backend", "error", err)
			break
		}
		out = append(out, b)

	case config.ProviderOpenAI:
		for i, key := range cfg.APIKeys {
			out = append(out, llm.NewOpenAIBackend(llm.OpenAIConfig{
				Name:    fmt.Sprintf("openai-%d", i),
				APIKey:  key,
				BaseURL: cfg.OpenAIBaseURL,
				Model:   cfg.ModelName,
			}))
		}

	default:
		log.Info("using MOCK model backend")
		out = append(out, llm.NewMockLLM())
	}
	return out
}
