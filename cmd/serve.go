package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wildquest-ai/wildquest/internal/amadeus"
	"github.com/wildquest-ai/wildquest/internal/api"
	"github.com/wildquest-ai/wildquest/internal/auth"
	"github.com/wildquest-ai/wildquest/internal/chat"
	"github.com/wildquest-ai/wildquest/internal/config"
	"github.com/wildquest-ai/wildquest/internal/gbif"
	"github.com/wildquest-ai/wildquest/internal/provider"
	"github.com/wildquest-ai/wildquest/internal/session"
	"github.com/wildquest-ai/wildquest/internal/user"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if addrFlag != "" {
				cfg.Addr = addrFlag
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (overrides config)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if cfg.Auth.SecretKey == "" {
		return fmt.Errorf("auth secret key is not set (WILDQUEST_SECRET_KEY or auth.secret_key)")
	}

	sessions, users, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer sessions.Close()
	defer users.Close()

	llm, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	issuer := auth.NewIssuer(cfg.Auth.SecretKey, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	species := gbif.NewClient(cfg.GBIF.BaseURL, cfg.GBIF.Limit)
	activities := amadeus.NewClient(cfg.Amadeus.BaseURL, cfg.Amadeus.ClientID, cfg.Amadeus.ClientSecret)

	svc := chat.NewService(sessions, llm, species, activities, logger, chat.Config{
		ConversationBudget: cfg.Context.ConversationBudget,
		PromptBudget:       cfg.Context.PromptBudget,
		RadiusKm:           cfg.GBIF.RadiusKm,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(users, issuer, svc, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "store", cfg.Store.Driver, "provider", llm.Name())
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-stop:
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config) (session.Store, user.Store, error) {
	switch cfg.Store.Driver {
	case "", "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			var err error
			path, err = config.DefaultSQLitePath()
			if err != nil {
				return nil, nil, err
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, err
		}
		sessions, err := session.NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		users, err := user.NewSQLiteStore(path)
		if err != nil {
			sessions.Close()
			return nil, nil, err
		}
		return sessions, users, nil

	case "mongo":
		sessions, err := session.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		users, err := user.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			sessions.Close()
			return nil, nil, err
		}
		return sessions, users, nil

	case "memory":
		return session.NewMemoryStore(), user.NewMemoryStore(), nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func buildProvider(cfg *config.Config) (provider.Provider, error) {
	pc := cfg.GetProviderConfig(cfg.Provider)
	model := cfg.Model
	if model == "" {
		model = pc.Model
	}

	switch cfg.Provider {
	case "", "openai":
		if pc.APIKey == "" {
			return nil, fmt.Errorf("no API key configured for provider openai (set LLM_API_KEY)")
		}
		return provider.NewOpenAIProvider(pc.APIKey, pc.BaseURL, model), nil
	case "anthropic":
		if pc.APIKey == "" {
			return nil, fmt.Errorf("no API key configured for provider anthropic (set ANTHROPIC_API_KEY)")
		}
		return provider.NewAnthropicProvider(pc.APIKey, model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
