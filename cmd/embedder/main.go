package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"doc-chunker/internal/app"
	"doc-chunker/internal/httputil"
	"doc-chunker/internal/queue"
	"doc-chunker/internal/store"
)

type embedTaskPayload struct {
	DocumentID string `json:"document_id"`
}

func main() {
	deps, err := app.BuildEmbedder()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("embedding worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeEmbed, func(ctx context.Context, task queue.Task) error {
			var payload embedTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleEmbed(ctx, deps, payload)
		})
	})

	g.Go(func() error {
		return httputil.ServeHealth(ctx, deps.Log, fmt.Sprintf(":%d", deps.Config.Port), "embedder")
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("embedding worker stopped", "err", err)
	}
}

func handleEmbed(ctx context.Context, deps app.EmbedderDeps, payload embedTaskPayload) error {
	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return err
	}

	doc, err := deps.Store.GetDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	chunks, err := deps.Store.ListChunks(ctx, docID)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusReady)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		// Prefix the filename so chunks carry document context.
		texts[i] = fmt.Sprintf("Document: %s\n\n%s", doc.Filename, c.Text)
	}
	vectors, err := deps.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	embs := make([]store.Embedding, len(chunks))
	for i, c := range chunks {
		embs[i] = store.Embedding{
			ChunkID: c.ID,
			Vector:  vectors[i],
			Model:   deps.Config.EmbeddingModel,
		}
	}
	if err := deps.Store.SaveEmbeddings(ctx, embs); err != nil {
		return err
	}

	deps.Log.Info("document embedded", "document_id", docID, "chunks", len(chunks))
	return deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusReady)
}
