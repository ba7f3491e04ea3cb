package main

import (
	"context"
	"fmt"

	"github.com/gorilla/mux"

	"github.com/tableprep/tableprep-go/pkg/analytics"
	"github.com/tableprep/tableprep-go/pkg/config"
	"github.com/tableprep/tableprep-go/pkg/metadatastore"
	"github.com/tableprep/tableprep-go/pkg/pipeline"
	"github.com/tableprep/tableprep-go/pkg/queue"
	"github.com/tableprep/tableprep-go/pkg/scheduler"
	"github.com/tableprep/tableprep-go/pkg/storage"
	"github.com/tableprep/tableprep-go/utils"
)

// Server wires the HTTP API to the metadata store, the dataset files,
// the job queue and the background services.
type Server struct {
	router   *mux.Router
	config   *config.Config
	store    metadatastore.MetadataStore
	files    *storage.FileStore
	jobs     queue.Queue
	runner   *pipeline.Service
	pool     *pipeline.Pool
	sweeper  *scheduler.Sweeper
	recorder *analytics.Recorder
}

// NewServer creates a server from configuration. With REDIS_URL unset,
// jobs run on an in-process worker pool; otherwise they are pushed to
// Redis for the worker deployment to pick up.
func NewServer(cfg *config.Config) (*Server, error) {
	store, err := metadatastore.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	files, err := storage.NewFileStore(cfg.UploadDir, cfg.DataDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to prepare data directories: %w", err)
	}

	recorder := analytics.NewRecorder(store)

	runner := pipeline.NewService(store, files, recorder)
	runner.EncodeDistinctLimit = cfg.EncodeLimit

	s := &Server{
		router:   mux.NewRouter(),
		config:   cfg,
		store:    store,
		files:    files,
		runner:   runner,
		recorder: recorder,
		sweeper:  scheduler.NewSweeper(store, files, cfg.RetentionSchedule, cfg.RetentionDays),
	}

	if cfg.Distributed() {
		rq, err := queue.NewRedisQueue(cfg.RedisURL)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		s.jobs = rq
		utils.GetLogger().Info("Job queue backed by Redis",
			utils.String("addr", cfg.RedisURL),
			utils.Component("server"))
	} else {
		s.jobs = queue.NewMemoryQueue()
		s.pool = pipeline.NewPool(s.jobs, runner, cfg.WorkerConcurrency)
		s.pool.Start()
	}

	if err := s.sweeper.Start(); err != nil {
		utils.GetLogger().Error("Failed to start retention sweeper", err, utils.Component("server"))
	}

	s.setupRoutes()

	return s, nil
}

// Shutdown gracefully shuts down the background services. In-flight jobs
// on the in-process pool are allowed to finish before the stores close.
func (s *Server) Shutdown(ctx context.Context) error {
	utils.GetLogger().Info("Initiating graceful shutdown", utils.Component("server"))

	shutdownComplete := make(chan struct{})

	go func() {
		defer close(shutdownComplete)

		s.sweeper.Stop()

		if s.pool != nil {
			s.pool.Stop()
		}

		if err := s.jobs.Close(); err != nil {
			utils.GetLogger().Error("Failed to close job queue", err, utils.Component("server"))
		}

		if err := s.store.Close(); err != nil {
			utils.GetLogger().Error("Failed to close metadata store", err, utils.Component("server"))
		}

		utils.GetLogger().Info("Graceful shutdown completed", utils.Component("server"))
	}()

	select {
	case <-shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
