package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/view-avocats/assistant/internal/repository/transcript"
	chiTransport "github.com/view-avocats/assistant/internal/transport/chi"
	"github.com/view-avocats/assistant/internal/usecase/conversation"
	healthuc "github.com/view-avocats/assistant/internal/usecase/health"
	usageuc "github.com/view-avocats/assistant/internal/usecase/usage"
	"github.com/view-avocats/assistant/internal/version"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and widget",
		Long: `Start the HTTP server. When the knowledge base is enabled the index is
built in the background; /health reports it as pending until it is ready.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, configPath(cmd))
		},
	}
}

func runServe(ctx context.Context, cfgPath string) error {
	a, err := newApp(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, logger := a.cfg, a.logger

	build := version.Get()
	logger.Info("Starting assistant API server",
		zap.String("version", build.Version),
		zap.String("commit", build.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("chat_provider", cfg.Chat.Provider),
		zap.Bool("knowledge", cfg.Knowledge.Enabled),
	)

	// Missing knowledge file must fail startup, so load it before serving.
	chunks, err := a.loadKnowledgeIfEnabled()
	if err != nil {
		return err
	}

	sessions := conversation.New(a.responder, conversation.Config{
		FallbackMessage: cfg.Chat.FallbackMessage,
		MaxMessageChars: cfg.Chat.MaxMessageChars,
		IdleTTL:         time.Duration(cfg.Session.IdleTTLSec) * time.Second,
		MaxSessions:     cfg.Session.MaxSessions,
	}, logger)
	if cfg.Session.Transcript {
		ttl := time.Duration(cfg.Session.TranscriptTTLSec) * time.Second
		sessions.WithTranscripts(transcript.New(a.store, ttl))
	}

	healthOpts := []healthuc.Option{
		healthuc.WithChat(a.chatHealth),
		healthuc.WithTimeout(time.Duration(cfg.HTTP.HealthTimeoutSec) * time.Second),
	}
	// Pass nil interface (not typed nil pointer) when the knowledge base is disabled.
	var index chiTransport.IndexStats
	if a.retriever != nil {
		healthOpts = append(healthOpts,
			healthuc.WithEmbedding(a.embedHealth),
			healthuc.WithIndex(a.retriever),
		)
		index = a.retriever
	}
	healthSvc := healthuc.New(a.store, healthOpts...)

	server := chiTransport.NewServer(a.responder, sessions, healthSvc, index, chiTransport.Options{
		APIKeys:          cfg.Auth.APIKeys,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: *cfg.CORS.AllowCredentials,
		MaxMessageChars:  cfg.Chat.MaxMessageChars,
		Widget: chiTransport.WidgetConfig{
			FallbackMessage: cfg.Chat.FallbackMessage,
		},
	}, logger)
	if a.budget != nil {
		server.WithUsage(usageuc.New(a.budget))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.retriever != nil {
		g.Go(func() error {
			if err := a.buildIndex(gctx, chunks); err != nil {
				logger.Error("Knowledge index build failed", zap.Error(err))
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		sessions.RunJanitor(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal", zap.Int("open_sessions", sessions.Count()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		logger.Info("Server exited")
		return nil
	})

	return g.Wait()
}
