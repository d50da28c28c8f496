package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	shopifyadapter "github.com/evalyhq/shoplens/internal/adapter/driven/shopify"
	sqliteadapter "github.com/evalyhq/shoplens/internal/adapter/driven/sqlite"
	httphandler "github.com/evalyhq/shoplens/internal/adapter/driving/http"
	webhandler "github.com/evalyhq/shoplens/internal/adapter/driving/web"
	"github.com/evalyhq/shoplens/internal/application"
	"github.com/evalyhq/shoplens/internal/config"
	"github.com/evalyhq/shoplens/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"api_version", cfg.APIVersion,
		"refresh_interval", cfg.RefreshInterval,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	productStore := sqliteadapter.NewProductRepo(db)
	analysisStore := sqliteadapter.NewAnalysisRepo(db)
	credentialStore := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	if cfg.SecretKey == nil {
		slog.Info("no secret key configured, credentials will not be persisted")
	}

	// 6. Create the hot-swap provider and connector service first; the
	// connector resolves stored credentials for the startup client.
	newClient := func(domain, token string) driven.ShopClient {
		return shopifyadapter.NewClient(domain, token, cfg.APIVersion, cfg.RateLimit)
	}
	provider := application.NewShopClientProvider(nil)
	connectorSvc := application.NewConnectorService(provider, credentialStore, newClient)

	// 6b. Resolve shop credentials: stored credentials take priority over env
	// vars so a pair saved through the panel survives restarts.
	stored, err := connectorSvc.StoredCredentials(ctx)
	if err != nil {
		return err
	}
	shopDomain := cfg.ShopDomain
	accessToken := cfg.AccessToken
	if stored.Domain != "" {
		shopDomain = stored.Domain
	}
	if stored.Token != "" {
		accessToken = stored.Token
	}

	if shopDomain != "" && accessToken != "" {
		client := newClient(shopDomain, accessToken)
		provider.Replace(client)
		slog.Info("shop client created", "shop", client.ShopDomain())
	} else {
		slog.Info("no shop credentials configured, catalog disabled until credentials are provided via panel")
	}

	// 7. Create the remaining services and start the catalog loop.
	catalogSvc := application.NewCatalogService(provider, productStore, cfg.RefreshInterval)
	analyzerSvc := application.NewAnalyzerService(analysisStore, productStore)
	go catalogSvc.Start(ctx)

	// 7.5. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(connectorSvc, catalogSvc, analyzerSvc, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	// 7.6. Register panel routes.
	webhandler.RegisterRoutes(mux)

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 8. Log startup complete.
	slog.Info("shoplens started",
		"listen_addr", cfg.ListenAddr,
		"refresh_interval", cfg.RefreshInterval,
	)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
