package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/articleflow/internal/parser"
	"github.com/dgallion1/articleflow/internal/pathstore"
	"github.com/dgallion1/articleflow/internal/reflow"
)

// Store is the subset of the pathstore client the pipeline and API use.
type Store interface {
	PutNode(ctx context.Context, key string, req pathstore.NodeRequest) error
	GetNode(ctx context.Context, key string) (*pathstore.NodeResponse, error)
	DeleteNode(ctx context.Context, key string, recursive bool) error
	ListChildren(ctx context.Context, key string, limit int) ([]pathstore.ListChildrenResponse, error)
}

// UserPrefix is the pathstore prefix holding a user's articles.
func UserPrefix(userID string) string {
	return fmt.Sprintf("articles/users/%s", userID)
}

// RenderKey is where a rendered article is published.
func RenderKey(userID, docID string) string {
	return fmt.Sprintf("%s/%s/render", UserPrefix(userID), docID)
}

// HashKey is the dedup index entry for an article's content hash.
func HashKey(userID, hash, docID string) string {
	return fmt.Sprintf("%s/by_hash/%s/%s", UserPrefix(userID), hash, docID)
}

// Worker processes a single render job.
type Worker struct {
	store      Store // nil disables publishing
	log        *slog.Logger
	reflowCfg  reflow.Config
	slotCount  int
	parserOpts parser.Options
	stats      *RenderStats
	backoff    func(attempt int) time.Duration
}

func NewWorker(store Store, log *slog.Logger, reflowCfg reflow.Config, slotCount int, parserOpts parser.Options, stats *RenderStats) *Worker {
	return &Worker{
		store:      store,
		log:        log,
		reflowCfg:  reflowCfg,
		slotCount:  slotCount,
		parserOpts: parserOpts,
		stats:      stats,
		backoff:    Backoff,
	}
}

// Process runs the full render pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "user_id", job.UserID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		doc.Title = job.Title
	}
	job.ContentHash = ContentHashHex([]byte(doc.HTML))

	// Phase 1.5: Dedup check
	if !job.Force {
		exists, existingDocID, err := w.checkDuplicate(ctx, job)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if exists {
			log.Info("duplicate article, skipping", "existing_doc_id", existingDocID)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 2: Segment
	job.SetStatus(StatusSegmenting, "segmenting")
	start := time.Now()
	render, err := RenderDocument(doc, w.slotCount, w.reflowCfg)
	if err != nil {
		log.Error("render failed", "error", err)
		job.AddError(fmt.Sprintf("render: %s", err))
		job.SetStatus(StatusFailed, "segmenting")
		return
	}
	if w.stats != nil {
		w.stats.Record(time.Since(start), render.Used, render.Total)
	}
	job.SetTitle(doc.Title)
	job.SetRender(render)
	log.Info("segmented article",
		"chunks", len(render.Chunks),
		"used", render.Used,
		"total", render.Total,
		"overflow_blocks", len(render.Overflow),
	)

	if w.store == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 3: Publish
	job.SetStatus(StatusPublishing, "publishing")
	err = w.putWithRetry(ctx, log, RenderKey(job.UserID, job.DocID), pathstore.NodeRequest{
		Value: map[string]any{
			"filename":     job.Filename,
			"title":        render.Title,
			"content_hash": job.ContentHash,
			"page":         render.Page,
			"slots":        render.Slots,
			"overflow":     render.Overflow,
			"used":         render.Used,
			"total":        render.Total,
			"created_at":   job.CreatedAt.Format(time.RFC3339),
		},
		Source: "articleflow:" + job.DocID,
	})
	if err != nil {
		log.Error("publish failed", "error", err)
		job.AddError(fmt.Sprintf("publish: %s", err))
		job.SetStatus(StatusPartial, "publishing")
		return
	}
	job.MarkPublished()

	// Write hash index for dedup.
	hashErr := w.store.PutNode(ctx, HashKey(job.UserID, job.ContentHash, job.DocID), pathstore.NodeRequest{
		Value: map[string]any{
			"filename":   job.Filename,
			"created_at": job.CreatedAt.Format(time.RFC3339),
		},
		Source: "articleflow:" + job.DocID,
	})
	if hashErr != nil {
		log.Error("hash index write failed", "error", hashErr)
	}

	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) putWithRetry(ctx context.Context, log *slog.Logger, key string, req pathstore.NodeRequest) error {
	return retry(ctx, w.backoff,
		func(attempt int, err error) {
			log.Warn("retryable publish error", "key", key, "attempt", attempt, "error", err)
		},
		func() error { return w.store.PutNode(ctx, key, req) },
	)
}

// checkDuplicate checks if this content hash already exists for the user.
func (w *Worker) checkDuplicate(ctx context.Context, job *Job) (bool, string, error) {
	if w.store == nil {
		return false, "", nil
	}
	hashPrefix := fmt.Sprintf("%s/by_hash/%s", UserPrefix(job.UserID), job.ContentHash)
	children, err := w.store.ListChildren(ctx, hashPrefix, 1)
	if err != nil {
		return false, "", err
	}
	if len(children) > 0 {
		return true, lastSegment(children[0].Key), nil
	}
	return false, "", nil
}

// lastSegment returns the final element of a key path.
func lastSegment(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '.' })
	if len(parts) == 0 {
		return key
	}
	return parts[len(parts)-1]
}
