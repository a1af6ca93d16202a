// Package embedding backfills missing record embeddings in the
// background. Records are created without an embedding so ingestion
// never blocks on the model; this runner sweeps each record kind on an
// interval and attaches vectors best-effort.
package embedding

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finchbot/finch/plugin/ai"
	"github.com/finchbot/finch/store"
)

var recordKinds = []store.RecordKind{
	store.RecordKindMessage,
	store.RecordKindKnowledge,
	store.RecordKindMemory,
}

type Runner struct {
	store            *store.Store
	embeddingService ai.EmbeddingService
	interval         time.Duration
	batchSize        int
}

// NewRunner creates an embedding backfill runner.
func NewRunner(st *store.Store, embeddingService ai.EmbeddingService) *Runner {
	return &Runner{
		store:            st,
		embeddingService: embeddingService,
		interval:         time.Minute,
		batchSize:        16,
	}
}

// Run sweeps once at startup, then on every tick until the context is
// canceled.
func (r *Runner) Run(ctx context.Context) {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("embedding runner stopped")
			return
		}
	}
}

// RunOnce processes one backfill sweep across all record kinds. The
// kinds are independent, so they run concurrently; a failure in one
// kind does not stop the others.
func (r *Runner) RunOnce(ctx context.Context) {
	if !r.embeddingService.Ready() {
		slog.Debug("embedding runner skipping sweep, provider not ready")
		return
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, kind := range recordKinds {
		kind := kind
		group.Go(func() error {
			r.processKind(gctx, kind)
			return nil
		})
	}
	_ = group.Wait()
}

func (r *Runner) processKind(ctx context.Context, kind store.RecordKind) {
	pending, err := r.store.ListPendingEmbeddings(ctx, kind, r.batchSize*10)
	if err != nil {
		slog.Error("failed to list pending embeddings", "kind", kind, "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	slog.Info("backfilling embeddings", "kind", kind, "count", len(pending))

	for start := 0; start < len(pending); start += r.batchSize {
		select {
		case <-ctx.Done():
			slog.Info("embedding backfill canceled", "kind", kind, "processed", start)
			return
		default:
		}

		end := start + r.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		r.processBatch(ctx, kind, pending[start:end])
	}
}

// processBatch embeds one batch and attaches results per item. A failed
// attach leaves the row pending, so the next sweep retries it; attach is
// a no-op for rows that gained an embedding in the meantime.
func (r *Runner) processBatch(ctx context.Context, kind store.RecordKind, batch []*store.PendingEmbedding) {
	texts := make([]string, len(batch))
	for i, item := range batch {
		texts[i] = item.Content
	}

	vectors, err := r.embeddingService.EmbedBatch(ctx, texts)
	if err != nil {
		slog.Error("failed to embed batch", "kind", kind, "count", len(batch), "error", err)
		return
	}
	if len(vectors) != len(batch) {
		slog.Error("embed batch size mismatch", "kind", kind, "want", len(batch), "got", len(vectors))
		return
	}

	attached := 0
	for i, item := range batch {
		if len(vectors[i]) == 0 {
			continue
		}
		if err := r.store.AttachEmbedding(ctx, kind, item.ID, vectors[i]); err != nil {
			slog.Error("failed to attach embedding", "kind", kind, "id", item.ID, "error", err)
			continue
		}
		attached++
	}
	slog.Debug("embedding batch processed", "kind", kind, "attached", attached, "batch", len(batch))
}
