// internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"loan-decision-pipeline/internal/common/config"
	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/models"
	"loan-decision-pipeline/internal/notify"
	"loan-decision-pipeline/internal/orchestrator"
	"loan-decision-pipeline/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Processor runs one decision pipeline pass. The orchestrator satisfies it;
// tests substitute fakes.
type Processor interface {
	Process(ctx context.Context, req *orchestrator.Request) (*models.OrchestratorResponse, error)
}

// Server exposes the pipeline over HTTP: one processing endpoint plus
// health and metrics.
type Server struct {
	cfg         *config.Config
	engine      *gin.Engine
	httpServer  *http.Server
	pipeline    Processor
	assessments *store.AssessmentStore
	signals     *store.SignalIndexer
	notifier    *notify.EscalationNotifier
	logger      logger.Logger
}

func New(
	cfg *config.Config,
	pipeline Processor,
	assessments *store.AssessmentStore,
	signals *store.SignalIndexer,
	notifier *notify.EscalationNotifier,
	log logger.Logger,
) *Server {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:         cfg,
		engine:      gin.New(),
		pipeline:    pipeline,
		assessments: assessments,
		signals:     signals,
		notifier:    notifier,
		logger:      log.WithFields(map[string]interface{}{"component": "server"}),
	}

	s.engine.Use(gin.Recovery())
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.engine.POST("/orchestrator/process", s.handleProcess)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("http server starting", map[string]interface{}{"addr": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
