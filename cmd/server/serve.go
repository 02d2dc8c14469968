package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"aira/internal/handler"
	"aira/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sugar := log.Sugar()
	sugar.Infof("AIRA Backend")
	sugar.Infof("Version: %s", Version)
	sugar.Infof("Build Time: %s", BuildTime)
	sugar.Infof("Git Commit: %s", GitCommit)

	if cfg.InsecureJWTSecret() {
		sugar.Warn("⚠️  JWT_SECRET is the built-in development key - set a private secret before exposing this server")
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	llm, err := service.NewLLMClient(ctx, &cfg.LLM, log)
	if err != nil {
		return err
	}
	if llm.IsEnabled() {
		sugar.Infof("✅ LLM client initialized (provider: %s)", cfg.LLM.Provider)
	} else {
		sugar.Warnf("⚠️  LLM provider %s has no API key - advisor and chat will return fallback answers", cfg.LLM.Provider)
	}

	pinata := service.NewPinataClient(&cfg.Pinata, log)
	if !pinata.IsEnabled() {
		sugar.Warn("⚠️  PINATA_JWT is not set - image uploads will fail")
	}

	embedder := embedderFor(llm, st)
	vectors := st.vectors
	if embedder == nil {
		vectors = nil
	}

	// Initialize services
	properties, err := service.NewPropertyService(ctx, st.properties, vectors, embedder, pinata, cfg.Pinata.GatewayURL, log)
	if err != nil {
		return err
	}
	defer properties.Close()

	advisor := service.NewAdvisorService(st.properties, llm, cfg.Advisor.TopPicks, log)
	chat := service.NewChatService(llm, cfg.Chat.HistoryWindow, log)
	auth := service.NewAuthService(st.users, st.nonces, &cfg.Auth, log)

	log.Info("✅ Services initialized")

	router := handler.NewRouter(handler.Handlers{
		Advisor:  handler.NewAdvisorHandler(advisor, log),
		Chat:     handler.NewChatHandler(chat),
		Property: handler.NewPropertyHandler(properties, log),
		Auth:     handler.NewAuthHandler(auth, log),
	}, auth, cfg.Server.AllowedOrigins, handler.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sugar.Infof("🚀 Starting server on %s", addr)
		sugar.Infof("📝 API: http://localhost:%d/api/v1", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		purgeNonces(gctx, st, cfg.Auth.NonceTTL, log)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("🛑 Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}
	log.Info("✅ Server stopped")
	return nil
}
