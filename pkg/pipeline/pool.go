package pipeline

import (
	"sync"
	"time"

	"github.com/tableprep/tableprep-go/pkg/models"
	"github.com/tableprep/tableprep-go/pkg/queue"
	"github.com/tableprep/tableprep-go/utils"
)

// pollInterval is how long the pool sleeps when the queue is empty.
const pollInterval = 500 * time.Millisecond

// Pool drains a job queue with a bounded number of concurrent runs. It
// backs the single-process deployment mode where the API server executes
// jobs itself.
type Pool struct {
	queue       queue.Queue
	service     *Service
	concurrency int

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPool creates a worker pool over the given queue
func NewPool(q queue.Queue, service *Service, concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{
		queue:       q,
		service:     service,
		concurrency: concurrency,
		stop:        make(chan struct{}),
	}
}

// Start launches the dispatch loop
func (p *Pool) Start() {
	p.wg.Add(1)
	go p.run()

	utils.GetLogger().Info("Started worker pool",
		utils.Component("pipeline"),
		utils.Int("concurrency", p.concurrency))
}

func (p *Pool) run() {
	defer p.wg.Done()

	sem := make(chan struct{}, p.concurrency)
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		job, err := p.queue.Dequeue()
		if err != nil {
			utils.GetLogger().Error("Error popping from queue", err,
				utils.Component("pipeline"))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			time.Sleep(pollInterval)
			continue
		}

		sem <- struct{}{}
		p.wg.Add(1)
		go func(j *models.Job) {
			defer p.wg.Done()
			defer func() { <-sem }()
			// Run persists and logs its own outcome
			p.service.Run(j)
		}(job)
	}
}

// Stop halts dispatch and waits for in-flight jobs to finish
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
}
