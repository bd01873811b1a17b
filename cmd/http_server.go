package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/frahmantamala/club-management/api"
	"github.com/frahmantamala/club-management/internal/transport/rest"
	"github.com/frahmantamala/club-management/internal/transport/swagger"
	"github.com/frahmantamala/club-management/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var withScheduler bool

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func init() {
	httpServerCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "also run the suspension schedule in this process")
}

func startHTTPServer() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	if _, err := swagger.Load(context.Background(), api.OpenAPI); err != nil {
		lg.Error("openapi document is invalid", "error", err)
		os.Exit(1)
	}

	a, err := newApp(context.Background(), cfg, lg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, a.handlers(), rest.RouterConfig{
		CORSOrigins: strings.Split(cfg.Server.AllowedOrigins, ","),
		OpenAPI:     api.OpenAPI,
	}, lg)

	var stopScheduler func(context.Context)
	if withScheduler {
		stopScheduler, err = startSuspensionSchedule(a)
		if err != nil {
			lg.Error("failed to start suspension schedule", "error", err)
			os.Exit(1)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	lg.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("Received signal, shutting down...", "signal", sig)
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			lg.Error("Server failed", "error", err)
			a.close(context.Background())
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		lg.Error("Server shutdown error", "error", err)
	}
	if stopScheduler != nil {
		stopScheduler(ctx)
	}
	a.close(ctx)

	lg.Info("Server stopped")
}
