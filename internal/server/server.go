// Package server exposes the pipeline over HTTP: submit a topic, poll the
// per-stage status, fetch the finished post. Concurrent submissions run
// independent pipeline invocations sharing only the job registry.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lamim/blogforge/internal/config"
	"github.com/lamim/blogforge/internal/pipeline"
	"github.com/lamim/blogforge/pkg/models"
)

// Runner runs one pipeline invocation
type Runner interface {
	Run(ctx context.Context, topic string) models.PipelineOutcome
}

// RunnerFactory builds a Runner wired with the given lifecycle hooks.
// A fresh Runner per job keeps concurrent invocations independent.
type RunnerFactory func(hooks pipeline.Hooks) Runner

// Server is the HTTP entry point for interactive use
type Server struct {
	cfg       *config.Config
	newRunner RunnerFactory
	jobs      *jobStore
	logger    *slog.Logger
	baseCtx   context.Context
}

// New creates a server. baseCtx bounds the lifetime of async pipeline runs.
func New(baseCtx context.Context, cfg *config.Config, newRunner RunnerFactory, logger *slog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		newRunner: newRunner,
		jobs:      newJobStore(),
		logger:    logger,
		baseCtx:   baseCtx,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	if s.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	api := r.Group("/api")
	{
		api.POST("/posts", s.submitPost)
		api.GET("/posts", s.listPosts)
		api.GET("/posts/:id", s.getPost)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// ListenAndServe runs the HTTP server until the context is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.cfg.Server.Port,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type submitRequest struct {
	Topic string `json:"topic"`
}

func (s *Server) submitPost(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic is required"})
		return
	}

	id := uuid.New().String()
	s.jobs.create(id, topic)

	runner := s.newRunner(pipeline.Hooks{
		OnStageStart: func(role models.Role) {
			s.jobs.setStageStatus(id, role, models.StageRequested, "")
		},
		OnStageDone: func(result models.StageResult) {
			s.jobs.setStageStatus(id, result.Role, result.Status, result.RejectionReason)
		},
	})

	go func() {
		outcome := runner.Run(s.baseCtx, topic)
		s.jobs.finish(id, outcome)
		s.logger.Info("Job finished",
			"job_id", id,
			"success", outcome.Success,
			"duration", outcome.Duration)
	}()

	s.logger.Info("Job submitted", "job_id", id, "topic", topic)
	c.JSON(http.StatusAccepted, gin.H{"id": id})
}

func (s *Server) listPosts(c *gin.Context) {
	c.JSON(http.StatusOK, s.jobs.list())
}

func (s *Server) getPost(c *gin.Context) {
	job, ok := s.jobs.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}
