// Worker process for tableprep
// Runs preparation jobs from the shared Redis queue, or a single job
// when JOB_ID is set (dedicated workers spawned by the orchestrator)
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tableprep/tableprep-go/pkg/analytics"
	"github.com/tableprep/tableprep-go/pkg/config"
	"github.com/tableprep/tableprep-go/pkg/metadatastore"
	"github.com/tableprep/tableprep-go/pkg/pipeline"
	"github.com/tableprep/tableprep-go/pkg/queue"
	"github.com/tableprep/tableprep-go/pkg/storage"
	"github.com/tableprep/tableprep-go/utils"
)

const workerVersion = "v0.2.0"

// Worker consumes preparation jobs and runs them to completion
type Worker struct {
	id      string
	cfg     *config.Config
	store   metadatastore.MetadataStore
	queue   *queue.RedisQueue
	service *pipeline.Service
	logger  *utils.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWorker wires a worker against the shared store and queue
func NewWorker(cfg *config.Config) (*Worker, error) {
	store, err := metadatastore.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	files, err := storage.NewFileStore(cfg.UploadDir, cfg.DataDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to prepare data directories: %w", err)
	}

	q, err := queue.NewRedisQueue(cfg.RedisURL)
	if err != nil {
		store.Close()
		return nil, err
	}

	service := pipeline.NewService(store, files, analytics.NewRecorder(store))
	service.EncodeDistinctLimit = cfg.EncodeLimit

	hostname, _ := os.Hostname()
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:      fmt.Sprintf("worker-%s-%d", hostname, os.Getpid()),
		cfg:     cfg,
		store:   store,
		queue:   q,
		service: service,
		logger:  utils.GetLogger(),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// RunJob runs one job from the store. Dedicated workers spawned with
// JOB_ID use this and exit once the job reaches a terminal status.
func (w *Worker) RunJob(jobID string) error {
	job, err := w.store.GetJob(jobID)
	if err != nil {
		return err
	}
	if job.Terminal() {
		w.logger.Info("Job already finished, nothing to do",
			utils.Component("worker"),
			utils.String("job_id", job.ID),
			utils.String("status", string(job.Status)))
		return nil
	}
	return w.service.Run(job)
}

// Start consumes the shared queue until the worker is stopped. At most
// WorkerConcurrency jobs run at once; the semaphore slot is taken before
// the blocking pop so a full worker stops pulling work.
func (w *Worker) Start() error {
	w.logger.Info("Worker starting",
		utils.Component("worker"),
		utils.String("worker_id", w.id),
		utils.String("redis", w.cfg.RedisURL),
		utils.Int("concurrency", w.cfg.WorkerConcurrency))

	sem := make(chan struct{}, w.cfg.WorkerConcurrency)

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("Worker shutting down", utils.Component("worker"))
			return nil
		default:
			sem <- struct{}{}

			job, err := w.queue.DequeueBlocking(w.ctx, 5*time.Second)
			if err != nil {
				<-sem
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.logger.Error("Failed to pop from queue", err, utils.Component("worker"))
				time.Sleep(1 * time.Second)
				continue
			}
			if job == nil {
				// pop timed out with an empty queue
				<-sem
				continue
			}

			go func() {
				defer func() { <-sem }()
				w.processJob(job.ID)
			}()
		}
	}
}

// processJob reloads the job from the store and runs it. The stored
// record wins over the queue payload so cancellations are respected.
func (w *Worker) processJob(jobID string) {
	job, err := w.store.GetJob(jobID)
	if err != nil {
		w.logger.Error("Failed to load queued job", err,
			utils.Component("worker"),
			utils.String("job_id", jobID))
		return
	}
	if job.Terminal() {
		w.logger.Info("Skipping finished job",
			utils.Component("worker"),
			utils.String("job_id", job.ID),
			utils.String("status", string(job.Status)))
		return
	}

	// Run persists and logs its own outcome
	w.service.Run(job)
}

// Stop stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker", utils.Component("worker"))
	w.cancel()
	w.queue.Close()
	w.store.Close()
}

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println("tableprep worker version:", workerVersion)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = "localhost:6379"
	}

	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	worker, err := NewWorker(cfg)
	if err != nil {
		log.Fatalf("Failed to create worker: %v", err)
	}

	// Dedicated workers run exactly one job and exit
	if jobID := os.Getenv("JOB_ID"); jobID != "" {
		err := worker.RunJob(jobID)
		worker.Stop()
		if err != nil {
			log.Fatalf("Job %s failed: %v", jobID, err)
		}
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := worker.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Println("Received shutdown signal")
		worker.Stop()
	case err := <-errChan:
		log.Fatalf("Worker error: %v", err)
	}

	log.Println("Worker stopped")
}
