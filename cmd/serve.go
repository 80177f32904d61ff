package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/pcb-lookup/pkg/audit"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
	"github.com/ekaya-inc/pcb-lookup/pkg/handlers"
	"github.com/ekaya-inc/pcb-lookup/pkg/middleware"
	"github.com/ekaya-inc/pcb-lookup/pkg/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP lookup API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("source", cfg.Source.Type),
		zap.Duration("query_timeout", cfg.Source.QueryTimeout),
		zap.Strings("cors_origins", cfg.CORS.AllowedOrigins))

	svc, src, err := openService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Error("Failed to close lookup source", zap.Error(err))
		}
	}()

	awaitSource(ctx, src, cfg.Source.QueryTimeout, logger)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      newRouter(cfg, svc, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting pcb-lookup", zap.String("addr", srv.Addr), zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// newRouter registers every route and wraps the mux in the middleware chain.
func newRouter(cfg *config.Config, svc services.LookupService, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, svc, logger).RegisterRoutes(mux)
	handlers.NewLookupHandler(svc, audit.NewSecurityAuditor(logger), logger).RegisterRoutes(mux)
	handlers.NewStatsHandler(svc, logger).RegisterRoutes(mux)
	handlers.NewIndexHandler(cfg, logger).RegisterRoutes(mux)

	var h http.Handler = mux
	h = middleware.CORS(cfg.CORS.AllowedOrigins)(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.RequestID(h)
	return h
}
