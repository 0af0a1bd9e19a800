package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"gotix/internal/cache"
	"gotix/internal/config"
	"gotix/internal/database"
	"gotix/internal/handlers"
	"gotix/internal/logger"
	"gotix/internal/messaging"
	"gotix/internal/middleware"
	"gotix/internal/repository"
	"gotix/internal/search"
	"gotix/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API server with all its backing connections.
type Server struct {
	router      *gin.Engine
	config      *config.Config
	db          *database.DB
	nats        *messaging.NATSClient
	cacheClient *cache.Client
	esClient    *search.ElasticsearchClient
	services    *service.Services
	repos       *repository.Repositories
}

// NewServer wires the full server. Postgres and NATS are required;
// Elasticsearch and Redis are optional and the server degrades to store
// queries and uncached listings without them.
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}

	var esClient *search.ElasticsearchClient
	if cfg.Elasticsearch.Enabled() {
		esClient, err = search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			slog.Error("Failed to connect to Elasticsearch, proximity search falls back to Postgres", "error", err)
			esClient = nil
		}
	}

	var cacheClient *cache.Client
	cacheClient, err = cache.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis, event listings are uncached", "error", err)
		cacheClient = nil
	}

	repos := repository.NewRepositories(db)

	var index service.EventIndex
	if esClient != nil {
		index = esClient
	}
	services := service.NewServices(cfg, repos, index, natsClient)

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:      router,
		config:      cfg,
		db:          db,
		nats:        natsClient,
		cacheClient: cacheClient,
		esClient:    esClient,
		services:    services,
		repos:       repos,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.cacheClient)

	api := s.router.Group("/api")
	{
		events := api.Group("/events")
		{
			events.POST("", h.CreateEvent)
			events.GET("", h.ListEvents)
			events.GET("/:id", h.GetEvent)
		}

		tickets := api.Group("/tickets")
		{
			tickets.POST("", h.ReserveTicket)
			tickets.GET("/:id", h.GetTicket)
			tickets.POST("/:id/pay", h.PayTicket)
		}

		users := api.Group("/users")
		{
			users.POST("", h.CreateUser)
			users.GET("/:id", h.GetUser)
			users.GET("/:id/relevant-events", h.RelevantEvents)
			users.GET("/:id/tickets", h.UserTickets)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":  "ok",
		"service": "gotix-api",
		"version": "1.0.0",
	}

	if err := s.db.Ping(); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = err.Error()
	}

	if s.esClient != nil {
		if err := s.esClient.HealthCheck(c.Request.Context()); err != nil {
			body["elasticsearch"] = err.Error()
		}
	}

	c.JSON(status, body)
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter returns the router for testing.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes all backing connections.
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.cacheClient != nil {
		if err := s.cacheClient.Close(); err != nil {
			slog.Error("Error closing Redis connection", "error", err)
		}
	}

	if s.db != nil {
		return s.db.Close()
	}

	return nil
}
