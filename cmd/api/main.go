package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"brandify/internal/agentapi"
	"brandify/internal/diag"
	"brandify/internal/http/handlers"
	httpapi "brandify/internal/http/httpapi"
	"brandify/internal/infra"
	"brandify/internal/providers/gemini"
	"brandify/internal/storage"
	"brandify/internal/transform"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Envelope diagnostics persistence is optional.
	var dbpool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		dbpool, err = infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
	}

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize asset storage")
	}

	var (
		uploader transform.Uploader
		invoker  transform.Invoker
	)
	if cfg.UseAgentPlatform() {
		client := agentapi.NewClient(agentapi.Options{
			BaseURL: cfg.AgentBaseURL,
			APIKey:  cfg.AgentAPIKey,
			Store:   store,
		})
		uploader, invoker = client, client
		logger.Info().Str("base_url", cfg.AgentBaseURL).Str("agent_id", cfg.AgentID).
			Msg("using agent platform backend")
	} else {
		geminiInvoker, err := gemini.NewInvoker(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, store, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize gemini backend")
		}
		uploader, invoker = gemini.NewStagingUploader(store), geminiInvoker
		logger.Info().Str("model", cfg.GeminiModel).Msg("using direct gemini backend")
	}

	app := &handlers.App{
		Logger:   logger,
		Sessions: transform.NewRegistry(),
		Store:    store,
		Uploader: uploader,
		Invoker:  invoker,
		Capturer: diag.NewRecorder(dbpool, logger),
		AgentID:  cfg.AgentID,
		Origins:  cfg.AllowedOrigins,
	}

	router := httpapi.NewRouter(app, cfg)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
