package queue

import (
	"container/heap"
	"fmt"
	"sync"
	"time"

	"github.com/tableprep/tableprep-go/pkg/models"
)

// Queue is the job queue used to hand preprocessing jobs to workers.
// The memory implementation backs single-process deployments; the Redis
// implementation backs distributed ones. Job status lives in the metadata
// store, not here.
type Queue interface {
	Enqueue(job *models.Job) error
	Dequeue() (*models.Job, error)
	QueueLength() (int64, error)
	Close() error
}

// MemoryQueue provides in-memory job queue operations with priority support
type MemoryQueue struct {
	mu       sync.RWMutex
	pq       *priorityQueue
	payloads map[string]*models.Job
}

// NewMemoryQueue creates a new in-memory queue instance
func NewMemoryQueue() *MemoryQueue {
	pq := make(priorityQueue, 0)
	heap.Init(&pq)

	return &MemoryQueue{
		pq:       &pq,
		payloads: make(map[string]*models.Job),
	}
}

// Enqueue adds a job to the queue
func (q *MemoryQueue) Enqueue(job *models.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Lower score = higher priority, older first
	score := float64(time.Now().Unix()) / float64(job.Priority+1)

	heap.Push(q.pq, &queueItem{
		JobID: job.ID,
		Score: score,
	})
	q.payloads[job.ID] = job

	return nil
}

// Dequeue retrieves the next job from the queue, or nil when empty
func (q *MemoryQueue) Dequeue() (*models.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pq.Len() == 0 {
		return nil, nil
	}

	item := heap.Pop(q.pq).(*queueItem)

	job, ok := q.payloads[item.JobID]
	if !ok {
		return nil, fmt.Errorf("job payload not found: %s", item.JobID)
	}
	delete(q.payloads, item.JobID)

	return job, nil
}

// QueueLength returns the current number of queued jobs
func (q *MemoryQueue) QueueLength() (int64, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return int64(q.pq.Len()), nil
}

// Close closes the queue (no-op for in-memory implementation)
func (q *MemoryQueue) Close() error {
	return nil
}

// queueItem represents an item in the priority queue
type queueItem struct {
	JobID string
	Score float64 // Lower value = higher priority
	index int     // Index in heap
}

// priorityQueue implements heap.Interface
type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	// Lower score value = higher priority
	return pq[i].Score < pq[j].Score
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	n := len(*pq)
	item := x.(*queueItem)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // avoid memory leak
	item.index = -1 // for safety
	*pq = old[0 : n-1]
	return item
}
