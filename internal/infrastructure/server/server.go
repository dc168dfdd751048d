package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AtlasOS/backend/internal/api/http"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/api/middleware"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/api/ws"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/hardware"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/kernel"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/recovery"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/monitoring"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router      *gin.Engine
	kernel      *kernel.Kernel
	broadcaster *session.Broadcaster
	logger      *logging.Logger
	config      *config.Config
	metrics     *monitoring.Metrics
}

// NewServer creates a new server instance. The kernel is assembled and
// seeded but not started until Serve.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing AtlasOS Server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	opts, err := KernelOptions(cfg)
	if err != nil {
		return nil, err
	}

	k, err := kernel.New(opts, logger.Component("kernel"), metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble kernel: %w", err)
	}

	streamCfg := session.DefaultConfig()
	streamCfg.Interval = cfg.Stream.BroadcastInterval
	broadcaster := session.NewBroadcaster(
		session.SourcesFromKernel(k), streamCfg, logger.Component("session"),
	).WithMetrics(metrics)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limits.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
	}

	wsHandler := ws.NewHandler(broadcaster, logger.Component("ws")).WithMetrics(metrics)
	handlers := apihttp.NewHandlers(k, broadcaster, wsHandler.HandleConnection, metrics, logger.Component("http"))

	// Register routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/stream", wsHandler.HandleConnection)

	api := router.Group("/api")
	{
		api.GET("/status", handlers.Status)
		api.GET("/state", handlers.State)
		api.GET("/processes", handlers.ListProcesses)
		api.GET("/schedule", handlers.ScheduleNext)
		api.GET("/events", handlers.GetEvents)
		api.GET("/messages", handlers.GetMessages)
		api.GET("/artifacts", handlers.GetArtifacts)
		api.GET("/metrics", handlers.Metrics)
	}

	// Prometheus exposition
	promHandler := metrics.Handler()
	router.GET("/metrics", func(c *gin.Context) {
		metrics.RefreshUptime()
		promHandler.ServeHTTP(c.Writer, c.Request)
	})

	logger.Info("Server initialized successfully")

	return &Server{
		router:      router,
		kernel:      k,
		broadcaster: broadcaster,
		logger:      logger,
		config:      cfg,
		metrics:     metrics,
	}, nil
}

// KernelOptions maps configuration onto kernel options, loading the seed
// file when one is configured.
func KernelOptions(cfg *config.Config) (kernel.Options, error) {
	opts := kernel.Options{
		ActivityInterval: cfg.Kernel.ActivityInterval,
		MessageCapacity:  cfg.Kernel.MessageCapacity,
		Recovery: recovery.Config{
			WatchdogInterval: cfg.Kernel.WatchdogInterval,
			Staleness:        cfg.Kernel.HeartbeatStaleness,
			RestartDelay:     cfg.Kernel.RestartDelay,
			EventCapacity:    cfg.Kernel.EventCapacity,
		},
		Hardware: hardware.Config{
			Interval: cfg.Kernel.CaptureInterval,
			Warmup:   cfg.Kernel.CaptureWarmup,
			Capacity: cfg.Kernel.ArtifactCapacity,
		},
		Seeds: kernel.DefaultSeeds(),
	}

	if cfg.Kernel.SeedFile != "" {
		seeds, err := kernel.LoadSeeds(cfg.Kernel.SeedFile)
		if err != nil {
			return kernel.Options{}, err
		}
		opts.Seeds = seeds
	}
	return opts, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Kernel returns the kernel served by s
func (s *Server) Kernel() *kernel.Kernel {
	return s.kernel
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
}

// Run binds the configured address and serves until ctx is cancelled.
// A bind failure is returned before the kernel starts.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve starts the kernel and serves on ln until ctx is cancelled, then
// shuts the HTTP server down and stops the kernel.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.kernel.Start(ctx)
	defer s.kernel.Stop()

	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases resources held outside Serve
func (s *Server) Close() error {
	s.kernel.Stop()
	// Sync logger before exit
	_ = s.logger.Sync()
	return nil
}
