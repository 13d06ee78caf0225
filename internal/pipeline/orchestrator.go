package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/articleflow/internal/config"
	"github.com/dgallion1/articleflow/internal/parser"
	"github.com/dgallion1/articleflow/internal/reflow"
)

// Orchestrator manages the article render pipeline.
type Orchestrator struct {
	jobs      *JobStore
	queue     chan *Job
	store     Store
	log       *slog.Logger
	cfg       config.Config
	reflowCfg reflow.Config
	stats     *RenderStats

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. store may be nil, in which case
// renders are kept on the job only.
func NewOrchestrator(cfg config.Config, store Store, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:      NewJobStore(cfg.JobTTL),
		queue:     make(chan *Job, cfg.MaxQueueSize),
		store:     store,
		log:       log,
		cfg:       cfg,
		reflowCfg: cfg.Reflow(),
		stats:     NewRenderStats(time.Hour),
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	opts := parser.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext}
	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.store, o.log, o.reflowCfg, o.cfg.SlotCount, opts, o.stats)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the publishing store, or nil when publishing is disabled.
func (o *Orchestrator) Store() Store {
	return o.store
}

// Stats returns the segmentation latency tracker.
func (o *Orchestrator) Stats() *RenderStats {
	return o.stats
}

// ReflowConfig returns the engine settings workers use.
func (o *Orchestrator) ReflowConfig() reflow.Config {
	return o.reflowCfg
}
