package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tableprep/tableprep-go/pkg/config"
	"github.com/tableprep/tableprep-go/pkg/k8s"
	"github.com/tableprep/tableprep-go/pkg/metadatastore"
	"github.com/tableprep/tableprep-go/pkg/models"
	"github.com/tableprep/tableprep-go/pkg/queue"
	"github.com/tableprep/tableprep-go/utils"
)

const orchestratorVersion = "v0.2.0"

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println("tableprep orchestrator version:", orchestratorVersion)
		return
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = "localhost:6379"
	}

	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	logger := utils.GetLogger()

	logger.Info("Starting orchestrator",
		utils.String("environment", cfg.Environment),
		utils.String("version", orchestratorVersion))

	// The orchestrator drains the same Redis list the API server enqueues to
	q, err := queue.NewRedisQueue(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	logger.Info("Connected to Redis", utils.String("addr", cfg.RedisURL))

	k8sClient, err := k8s.NewClient(cfg.K8sNamespace)
	if err != nil {
		log.Fatalf("Failed to initialize Kubernetes client: %v", err)
	}
	logger.Info("Connected to Kubernetes cluster", utils.String("namespace", cfg.K8sNamespace))

	store, err := metadatastore.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open metadata store: %v", err)
	}
	logger.Info("Opened metadata store", utils.String("path", cfg.DatabasePath))

	spawner := NewWorkerSpawner(q, k8sClient, store, cfg)
	go spawner.Run()

	logger.Info("Orchestrator started successfully")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down orchestrator...")
	spawner.Stop()
	if err := q.Close(); err != nil {
		logger.Warn("Failed to close queue", utils.Error(err))
	}
	if err := store.Close(); err != nil {
		logger.Warn("Failed to close metadata store", utils.Error(err))
	}
	logger.Info("Orchestrator stopped")
}

// WorkerSpawner turns queued preparation jobs into dedicated Kubernetes
// worker Jobs, scaling between the configured worker bounds.
type WorkerSpawner struct {
	queue     *queue.RedisQueue
	k8sClient *k8s.Client
	store     metadatastore.MetadataStore
	config    *config.Config
	logger    *utils.Logger
	stop      chan struct{}
}

// NewWorkerSpawner creates a new worker spawner
func NewWorkerSpawner(q *queue.RedisQueue, k8sClient *k8s.Client, store metadatastore.MetadataStore, cfg *config.Config) *WorkerSpawner {
	return &WorkerSpawner{
		queue:     q,
		k8sClient: k8sClient,
		store:     store,
		config:    cfg,
		logger:    utils.GetLogger(),
		stop:      make(chan struct{}),
	}
}

// Run starts the worker spawning loop
func (ws *WorkerSpawner) Run() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ws.stop:
			return
		case <-ticker.C:
			ws.processQueue()
		}
	}
}

// Stop ends the spawning loop
func (ws *WorkerSpawner) Stop() {
	close(ws.stop)
}

// processQueue checks the queue and spawns workers as needed
func (ws *WorkerSpawner) processQueue() {
	queueLength, err := ws.queue.QueueLength()
	if err != nil {
		ws.logger.Warn("Failed to read queue length", utils.Error(err))
		return
	}

	if queueLength == 0 {
		return
	}

	activeWorkers, err := ws.k8sClient.GetActiveWorkerCount()
	if err != nil {
		ws.logger.Warn("Failed to count active workers", utils.Error(err))
		return
	}

	if !ws.shouldSpawnWorker(queueLength, activeWorkers) {
		ws.logger.Debug("Scaling decision: not spawning",
			utils.Int("queue", int(queueLength)),
			utils.Int("active", activeWorkers),
			utils.Int("min_workers", ws.config.MinWorkers),
			utils.Int("max_workers", ws.config.MaxWorkers),
			utils.Int("queue_threshold", ws.config.QueueThreshold))
		return
	}

	ws.logger.Info("Scaling decision: spawning worker",
		utils.Int("queue", int(queueLength)),
		utils.Int("active", activeWorkers))

	queued, err := ws.queue.Dequeue()
	if err != nil {
		ws.logger.Warn("Failed to dequeue job", utils.Error(err))
		return
	}
	if queued == nil {
		return
	}

	// The stored record wins over the queue payload so cancellations are
	// respected.
	job, err := ws.store.GetJob(queued.ID)
	if err != nil {
		ws.logger.Warn("Dequeued job has no stored record",
			utils.String("job_id", queued.ID), utils.Error(err))
		return
	}
	if job.Terminal() {
		ws.logger.Info("Job already finished, not spawning a worker",
			utils.String("job_id", job.ID),
			utils.String("status", string(job.Status)))
		return
	}

	if err := ws.store.UpdateJobStatus(job.ID, models.JobStatusScheduled, ""); err != nil {
		ws.logger.Warn("Failed to mark job scheduled",
			utils.String("job_id", job.ID), utils.Error(err))
	}

	if err := ws.k8sClient.CreateWorkerJob(job, ws.config.WorkerImage, ws.config.RedisURL); err != nil {
		ws.logger.Error("Failed to create worker job", err,
			utils.String("job_id", job.ID))
		if updateErr := ws.store.UpdateJobStatus(job.ID, models.JobStatusFailed, "failed to spawn worker: "+err.Error()); updateErr != nil {
			ws.logger.Warn("Failed to mark job failed",
				utils.String("job_id", job.ID), utils.Error(updateErr))
		}
		return
	}

	job.Status = models.JobStatusSpawned
	job.KubernetesJobName = k8s.WorkerJobName(job.ID)
	if err := ws.store.SaveJob(job); err != nil {
		ws.logger.Warn("Failed to record spawned worker",
			utils.String("job_id", job.ID), utils.Error(err))
	}

	ws.logger.Info("Spawned worker",
		utils.String("job_id", job.ID),
		utils.String("kubernetes_job", job.KubernetesJobName))
}

// shouldSpawnWorker determines if a new worker should be spawned
func (ws *WorkerSpawner) shouldSpawnWorker(queueLength int64, activeWorkers int) bool {
	// Always maintain minimum workers
	if activeWorkers < ws.config.MinWorkers && queueLength > 0 {
		return true
	}

	// Don't exceed max workers
	if activeWorkers >= ws.config.MaxWorkers {
		return false
	}

	// Scale based on queue depth
	if queueLength > int64(ws.config.QueueThreshold) {
		return true
	}

	return false
}
