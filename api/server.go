package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/machinemind/predictive-maintenance/api/handlers"
	"github.com/machinemind/predictive-maintenance/api/middleware"
	"github.com/machinemind/predictive-maintenance/api/websocket"
	"github.com/machinemind/predictive-maintenance/internal/auth"
	"github.com/machinemind/predictive-maintenance/internal/events"
	"github.com/machinemind/predictive-maintenance/internal/ratelimit"
	"github.com/machinemind/predictive-maintenance/pkg/config"
	"github.com/machinemind/predictive-maintenance/pkg/database"
	"github.com/machinemind/predictive-maintenance/pkg/database/queries"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Dependencies are the pipeline components the API exposes.
type Dependencies struct {
	DB         *database.DB
	Classifier handlers.ClassifierChecker
	Processor  handlers.BatchRunner
	Generator  handlers.DataGenerator
	EventBus   *events.EventBus
}

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      config.APIConfig
	deps        Dependencies
	authService *auth.Service
	rateLimiter *ratelimit.Limiter
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
	stopCleanup chan struct{}
}

func NewServer(cfg config.APIConfig, deps Dependencies) *Server {
	if cfg.JWTSecret == "" || cfg.JWTSecret == "change-me-in-production" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	authService := auth.NewService(cfg.JWTSecret, cfg.JWTDuration)
	wsHub := websocket.NewHub(0)

	s := &Server{
		router:      router,
		config:      cfg,
		deps:        deps,
		authService: authService,
		rateLimiter: ratelimit.New(cfg.RateLimit, time.Minute),
		wsHub:       wsHub,
		stopCleanup: make(chan struct{}),
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()
	go s.cleanupLoop()

	if deps.EventBus != nil {
		s.wsBridge = websocket.NewEventBridge(wsHub, deps.EventBus.SubscribeAll())
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.RequestSizeLimit(maxRequestBody))
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.TraceID())

	s.router.Use(middleware.RateLimit(s.rateLimiter))
}

// cleanupLoop drops rate-limiter keys that have aged out of the window.
func (s *Server) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.rateLimiter.Cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Server) setupRoutes() {
	userRepo := queries.NewUserRepository(s.deps.DB.DB)
	machineRepo := queries.NewMachineRepository(s.deps.DB.DB)
	readingRepo := queries.NewReadingRepository(s.deps.DB.DB)
	predictionRepo := queries.NewPredictionRepository(s.deps.DB)

	healthHandler := handlers.NewHealthHandler(s.deps.DB, s.deps.Classifier)
	authHandler := handlers.NewAuthHandler(userRepo, s.authService)
	machineHandler := handlers.NewMachineHandler(machineRepo)
	readingHandler := handlers.NewReadingHandler(readingRepo, machineRepo)
	predictionHandler := handlers.NewPredictionHandler(predictionRepo, machineRepo)
	jobHandler := handlers.NewJobHandler(s.deps.Processor, s.deps.Generator)

	// Public routes
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	s.router.POST("/auth/login", middleware.AuthRateLimiter(), authHandler.Login)

	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	// Read routes
	s.router.GET("/machines", machineHandler.List)
	s.router.GET("/machines/:id", machineHandler.Get)
	s.router.GET("/machines/:id/readings", readingHandler.ListByMachine)
	s.router.GET("/machines/:id/predictions", predictionHandler.ListByMachine)

	s.router.GET("/readings", readingHandler.List)
	s.router.GET("/readings/unprocessed", readingHandler.ListUnprocessed)
	s.router.GET("/readings/:id", readingHandler.Get)
	s.router.GET("/readings/:id/prediction", predictionHandler.GetByReading)

	s.router.GET("/predictions", predictionHandler.List)
	s.router.GET("/predictions/failures", predictionHandler.ListFailures)
	s.router.GET("/predictions/:id", predictionHandler.Get)

	s.router.GET("/jobs/status", jobHandler.Status)

	// Mutating routes require a valid token
	endpointLimiter := middleware.NewEndpointRateLimiter()
	endpointLimiter.AddEndpoint("/jobs/process", 10, time.Minute)
	endpointLimiter.AddEndpoint("/jobs/generate", 10, time.Minute)

	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService))
	protected.Use(endpointLimiter.Middleware())
	{
		protected.POST("/machines", machineHandler.Create)
		protected.POST("/readings", readingHandler.Create)
		protected.POST("/jobs/process", jobHandler.RunBatch)
		protected.POST("/jobs/generate", jobHandler.RunGeneration)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stopCleanup)

	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
