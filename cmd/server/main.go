package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"voicechat/backend/internal/cache"
	"voicechat/backend/internal/chat"
	"voicechat/backend/internal/config"
	"voicechat/backend/internal/embedding"
	"voicechat/backend/internal/llm"
	"voicechat/backend/internal/log"
	"voicechat/backend/internal/retriever"
	"voicechat/backend/internal/server"
	"voicechat/backend/internal/speech"
	"voicechat/backend/internal/storage"
)

const shutdownGraceTimeout = 15 * time.Second

// newRetriever builds document retrieval when search is configured. Any
// failure disables retrieval instead of stopping the server.
func newRetriever(ctx context.Context, cfg *config.Config) *retriever.Retriever {
	if !cfg.Search.Enabled() {
		if cfg.Search.Partial() {
			log.Logger.Warn("Azure AI Search is partially configured; document retrieval disabled")
		} else {
			log.Logger.Info("Azure AI Search not configured; document retrieval disabled")
		}
		return retriever.New(nil, nil)
	}

	embedder, err := embedding.NewEmbedderFactory(cfg).CreateEmbedder(ctx)
	if err != nil {
		log.Logger.Errorw("could not create embedder; document retrieval disabled", "error", err)
		return retriever.New(nil, nil)
	}
	log.Logger.Infow("document retrieval enabled", "index", cfg.Search.IndexName, "dimensions", embedder.GetDimensions())
	return retriever.New(embedder, storage.NewAzureSearchStore(cfg.Search))
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Logger.Warnw("could not read .env file", "error", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := log.Init(cfg.Server.LogFormat); err != nil {
		return err
	}
	defer log.Sync()

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	synth := speech.NewSynthesizer(speech.NewAzureEngine(cfg.Speech), speech.Options{
		Enabled:    cfg.Audio.Enabled,
		MaxRetries: cfg.Audio.MaxRetries,
		RetryDelay: cfg.Audio.RetryDelay,
	})

	opts := chat.DefaultOptions()
	opts.AudioEnabled = cfg.Audio.Enabled
	opts.Voice = cfg.Audio.Voice
	orchestrator := chat.NewOrchestrator(newRetriever(ctx, cfg), llm.New(cfg.LLM), synth, opts)

	srv := server.New(orchestrator, speech.NewTokenIssuer(cfg.Speech, cache.NewInMemoryCache()), server.Options{
		StaticDir:          cfg.Server.StaticDir,
		AudioEnabled:       cfg.Audio.Enabled,
		SpeechRegion:       cfg.Speech.Region,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Logger.Infow("starting server", "addr", httpServer.Addr, "audio", cfg.Audio.Enabled, "llm_provider", cfg.LLM.Provider)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGraceTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Logger.Info("server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

func main() {
	if err := run(); err != nil {
		log.Logger.Errorw("server exited", "error", err)
		log.Sync()
		os.Exit(1)
	}
}
