package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/salesdesk/order-engine/internal/cep"
	"github.com/salesdesk/order-engine/internal/domain/order"
	"github.com/salesdesk/order-engine/internal/handler"
	"github.com/salesdesk/order-engine/internal/kanban"
	"github.com/salesdesk/order-engine/internal/notify"
	"github.com/salesdesk/order-engine/internal/storage/postgres"
	"github.com/salesdesk/order-engine/pkg/health"
	"github.com/salesdesk/order-engine/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	// Repositories.
	catalogRepo := postgres.NewCatalogRepository(pool)
	directoryRepo := postgres.NewDirectoryRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)

	// Domain services.
	fees, err := cfg.Shipping.feeTable()
	if err != nil {
		return errors.Wrap(err, "shipping fees")
	}
	notifier := notify.NewLogNotifier(lg)
	orderService := order.NewService(orderRepo, catalogRepo, movementRepo, fees, notifier)
	board := kanban.NewController(orderRepo, orderService)
	resolver := cep.NewClient(cfg.CEPBaseURL)

	// HTTP handlers.
	h := handler.NewHandler(catalogRepo, directoryRepo, resolver, orderRepo, movementRepo, orderService, board)
	security := handler.NewSecurity(apikeyRepo, []byte(cfg.APIKeyPepper))

	api := http.NewServeMux()
	h.Register(api)

	// Mux: health endpoints open, API routes behind API key auth.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", security.Middleware(api))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "api_key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("order-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
