package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/throughput-autoscaler/api/handlers"
	"github.com/OldStager01/throughput-autoscaler/api/middleware"
	"github.com/OldStager01/throughput-autoscaler/api/websocket"
	"github.com/OldStager01/throughput-autoscaler/internal/auth"
	"github.com/OldStager01/throughput-autoscaler/internal/events"
	"github.com/OldStager01/throughput-autoscaler/internal/metrics"
	"github.com/OldStager01/throughput-autoscaler/pkg/config"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

const maxRequestBody = 1 << 16

// Dependencies are the parts of the autoscaler the API exposes. Decisions,
// Bus and Metrics may be nil.
type Dependencies struct {
	Runs      handlers.RunTrigger
	Decisions handlers.DecisionStore
	Checks    map[string]handlers.HealthCheck
	Bus       *events.EventBus
	Metrics   *metrics.Metrics
}

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      config.APIConfig
	deps        Dependencies
	authService *auth.Service
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
	wsEvents    <-chan *models.Event
}

func NewServer(cfg config.APIConfig, wsCfg *config.WebSocketConfig, deps Dependencies) *Server {
	if cfg.JWTSecret == "" || cfg.JWTSecret == "change-me-in-production" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	duration := cfg.JWTDuration
	if duration <= 0 {
		duration = 24 * time.Hour
	}

	s := &Server{
		router:      gin.New(),
		config:      cfg,
		deps:        deps,
		authService: auth.NewService(cfg.JWTSecret, duration, cfg.JWTIssuer),
		wsHub:       websocket.NewHub(wsCfg),
	}

	s.setupMiddleware()
	s.setupRoutes()

	go s.wsHub.Run()

	if deps.Bus != nil {
		s.wsEvents = deps.Bus.SubscribeAll()
		s.wsBridge = websocket.NewEventBridge(s.wsHub, s.wsEvents)
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestLogger(s.deps.Metrics, "/health", "/health/live", "/health/ready", "/metrics"))
	s.router.Use(middleware.RequestSizeLimit(maxRequestBody))
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.deps.Checks)
	authHandler := handlers.NewAuthHandler(s.authService, s.config.OperatorUser, s.config.OperatorPasswordHash)
	runHandler := handlers.NewRunHandler(s.deps.Runs)
	decisionHandler := handlers.NewDecisionHandler(s.deps.Decisions, &s.config)

	runLimiter := middleware.NewRateLimiter(s.config.RateLimit, time.Minute)

	// Public routes
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	s.router.POST("/auth/login", middleware.AuthRateLimiter(), authHandler.Login)

	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	s.router.GET("/runs/last", runHandler.Last)

	// Protected routes
	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService))
	{
		protected.POST("/runs", middleware.RateLimit(runLimiter), runHandler.Trigger)
		protected.GET("/runs/:id/decisions", decisionHandler.ByRun)
		protected.GET("/decisions", decisionHandler.List)
	}
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.wsBridge != nil {
		s.wsBridge.Stop()
		s.deps.Bus.Unsubscribe(s.wsEvents)
	}
	s.wsHub.Stop()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) AuthService() *auth.Service {
	return s.authService
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
