package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"doc-chunker/internal/app"
	"doc-chunker/internal/chunker"
	"doc-chunker/internal/httputil"
	"doc-chunker/internal/queue"
	"doc-chunker/internal/store"
)

type chunkTaskPayload struct {
	DocumentID string   `json:"document_id"`
	Filename   string   `json:"filename"`
	Pages      []string `json:"pages"`
}

func main() {
	deps, err := app.BuildWorker()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("chunk worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeChunk, func(ctx context.Context, task queue.Task) error {
			var payload chunkTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleChunk(ctx, deps, payload)
		})
	})

	g.Go(func() error {
		return httputil.ServeHealth(ctx, deps.Log, fmt.Sprintf(":%d", deps.Config.Port), "worker")
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("chunk worker stopped", "err", err)
	}
}

func handleChunk(ctx context.Context, deps app.Deps, payload chunkTaskPayload) error {
	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return err
	}
	log := deps.Log.With("document_id", docID, "filename", payload.Filename)

	texts, err := deps.Chunker.ExtractAndChunk(payload.Pages, deps.Config.ChunkOptions())
	if errors.Is(err, chunker.ErrNoContent) {
		log.Warn("no content extracted")
		return deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusEmpty)
	}
	if err != nil {
		return err
	}

	chunks := deps.Chunker.Annotate(texts)
	storeChunks := make([]store.Chunk, len(chunks))
	for i, c := range chunks {
		storeChunks[i] = store.Chunk{
			Index:      c.Index,
			Text:       c.Text,
			TokenCount: c.TokenCount,
		}
	}
	if _, err := deps.Store.SaveChunks(ctx, docID, storeChunks); err != nil {
		return err
	}
	if err := deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusChunked); err != nil {
		return err
	}
	log.Info("document chunked", "pages", len(payload.Pages), "chunks", len(chunks))

	body, err := json.Marshal(map[string]any{"document_id": docID.String()})
	if err != nil {
		return err
	}
	task := queue.Task{Type: queue.TaskTypeEmbed, Payload: body, NotBefore: time.Now()}
	return queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond)
}
