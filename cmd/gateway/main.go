package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"doc-chunker/internal/app"
	"doc-chunker/internal/cache"
	"doc-chunker/internal/chunker"
	"doc-chunker/internal/extract"
	"doc-chunker/internal/httputil"
	"doc-chunker/internal/queue"
	"doc-chunker/internal/store"
)

type chunkTaskPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
	Filename   string    `json:"filename"`
	Pages      []string  `json:"pages"`
}

type chunkRequest struct {
	Pages               []string `json:"pages" validate:"max=5000"`
	MaxTokens           int      `json:"max_tokens" validate:"omitempty,min=1,max=100000"`
	SplitIfExceedsLimit *bool    `json:"split_if_exceeds_limit"`
}

type chunkResponse struct {
	Chunks    []chunkView `json:"chunks"`
	NoContent bool        `json:"no_content,omitempty"`
	Cached    bool        `json:"cached"`
}

type chunkView struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Cache.Close()

	r := newRouter(deps)
	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log)
	r.Post("/api/documents/upload", uploadHandler(deps))
	r.Get("/api/documents/{id}/chunks", chunksHandler(deps))
	r.Post("/api/chunk", chunkHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	return r
}

func uploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+1<<20)

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		if extract.Detect(content, header.Filename) == extract.KindUnknown {
			httputil.Fail(deps.Log, w, "unsupported file type (only PDF, HTML and TXT allowed)", nil, http.StatusBadRequest)
			return
		}

		pages, err := deps.Extractor.Pages(content, header.Filename)
		if err != nil {
			httputil.Fail(deps.Log.With("filename", header.Filename), w, "failed to extract document text", err, http.StatusUnprocessableEntity)
			return
		}

		doc, err := deps.Store.CreateDocument(ctx, header.Filename, len(pages))
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to persist document", err, http.StatusInternalServerError)
			return
		}

		body, err := json.Marshal(chunkTaskPayload{
			DocumentID: doc.ID,
			Filename:   header.Filename,
			Pages:      pages,
		})
		if err != nil {
			fail(deps, ctx, w, "marshal payload failed", err, doc.ID, http.StatusInternalServerError, true)
			return
		}
		task := queue.Task{Type: queue.TaskTypeChunk, Payload: body}
		if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
			fail(deps, ctx, w, "failed to enqueue document; please retry", err, doc.ID, http.StatusInternalServerError, true)
			return
		}

		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"document_id": doc.ID.String(),
			"status":      doc.Status,
			"pages":       len(pages),
		})
	}
}

// fail is gateway-specific error handler that can mark documents as failed
func fail(deps app.Deps, ctx context.Context, w http.ResponseWriter, message string, err error, docID uuid.UUID, status int, markFailed bool) {
	log := deps.Log.With("document_id", docID)
	if markFailed && docID != uuid.Nil {
		if upErr := deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusFailed); upErr != nil {
			log.Error("failed to mark document failed", "err", upErr)
		}
	}

	httputil.Fail(log, w, message, err, status)
}

func chunksHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid document id", err, http.StatusBadRequest)
			return
		}
		doc, err := deps.Store.GetDocument(r.Context(), docID)
		if errors.Is(err, store.ErrDocumentNotFound) {
			httputil.Fail(deps.Log, w, "document not found", err, http.StatusNotFound)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load document", err, http.StatusInternalServerError)
			return
		}
		chunks, err := deps.Store.ListChunks(r.Context(), docID)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list chunks", err, http.StatusInternalServerError)
			return
		}

		views := make([]chunkView, len(chunks))
		for i, c := range chunks {
			views[i] = chunkView{Index: c.Index, Text: c.Text, TokenCount: c.TokenCount}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"document_id": doc.ID.String(),
			"filename":    doc.Filename,
			"status":      doc.Status,
			"pages":       doc.PageCount,
			"chunks":      views,
		})
	}
}

func chunkHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chunkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		opts := deps.Config.ChunkOptions()
		if req.MaxTokens > 0 {
			opts.MaxTokens = req.MaxTokens
		}
		if req.SplitIfExceedsLimit != nil {
			opts.SplitIfExceedsLimit = *req.SplitIfExceedsLimit
		}

		ctx := r.Context()
		key := cache.GenerateCacheKey(req.Pages, opts, deps.Config.TokenEncoding)
		if cached, err := deps.Cache.GetChunks(ctx, key); err != nil {
			deps.Log.Warn("cache lookup failed", "err", err)
		} else if cached != nil {
			httputil.WriteJSON(w, http.StatusOK, chunkResponse{Chunks: toViews(cached.Chunks), Cached: true})
			return
		}

		texts, err := deps.Chunker.ExtractAndChunk(req.Pages, opts)
		if errors.Is(err, chunker.ErrNoContent) {
			deps.Log.Warn("no content to chunk")
			httputil.WriteJSON(w, http.StatusOK, chunkResponse{Chunks: []chunkView{}, NoContent: true})
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "chunking failed", err, http.StatusInternalServerError)
			return
		}
		chunks := deps.Chunker.Annotate(texts)

		ttl := time.Duration(deps.Config.CacheTTL) * time.Second
		if err := deps.Cache.SetChunks(ctx, key, &cache.ChunkResult{Chunks: chunks}, ttl); err != nil {
			// Log cache write failure but don't fail the request
			deps.Log.Warn("failed to cache chunks", "err", err)
		}
		httputil.WriteJSON(w, http.StatusOK, chunkResponse{Chunks: toViews(chunks)})
	}
}

func toViews(chunks []chunker.Chunk) []chunkView {
	views := make([]chunkView, len(chunks))
	for i, c := range chunks {
		views[i] = chunkView{Index: c.Index, Text: c.Text, TokenCount: c.TokenCount}
	}
	return views
}
