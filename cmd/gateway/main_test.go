package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doc-chunker/internal/app"
	"doc-chunker/internal/cache"
	"doc-chunker/internal/chunker"
	"doc-chunker/internal/config"
	"doc-chunker/internal/extract"
	"doc-chunker/internal/logger"
	"doc-chunker/internal/queue"
	"doc-chunker/internal/segmenter"
	"doc-chunker/internal/store"
	"doc-chunker/internal/tokenizer"
)

// periodSentences splits after every period.
func periodSentences(text string) []string {
	var out []string
	for _, s := range strings.SplitAfter(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func newTestDeps(st store.Store, q queue.Queue, c cache.Cache) app.Deps {
	log := logger.Discard()
	return app.Deps{
		Store:     st,
		Queue:     q,
		Cache:     c,
		Extractor: extract.New(),
		Chunker:   chunker.New(tokenizer.Words{}, segmenter.Func(periodSentences), chunker.WithLogger(log)),
		Config: config.Config{
			MaxUploadSize: 1024 * 1024, // 1MB for tests
			MaxTokens:     1000,
			TokenEncoding: tokenizer.WordsEncoding,
			CacheTTL:      3600,
		},
		Log: log,
	}
}

func TestUploadHandler(t *testing.T) {
	validDocID := uuid.New()

	tests := []struct {
		name          string
		filename      string
		content       []byte
		setup         func(*store.MockStore, *queue.MockQueue)
		wantStatus    int
		checkResponse func(*testing.T, *http.Response)
	}{
		{
			name:     "successful upload",
			filename: "test.txt",
			content:  []byte("Hello\fWorld"),
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("CreateDocument", mock.Anything, "test.txt", 2).
					Return(store.Document{ID: validDocID, Status: store.StatusProcessing}, nil).Once()
				q.On("Enqueue", mock.Anything, mock.MatchedBy(func(task queue.Task) bool {
					if task.Type != queue.TaskTypeChunk {
						return false
					}
					var payload chunkTaskPayload
					if err := json.Unmarshal(task.Payload, &payload); err != nil {
						return false
					}
					return payload.DocumentID == validDocID && len(payload.Pages) == 2
				})).Return(nil).Once()
			},
			wantStatus: http.StatusAccepted,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
				assert.Equal(t, validDocID.String(), result["document_id"])
				assert.Equal(t, string(store.StatusProcessing), result["status"])
				assert.EqualValues(t, 2, result["pages"])
			},
		},
		{
			name:     "html upload",
			filename: "page.html",
			content:  []byte("<html><body><p>Hi</p></body></html>"),
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("CreateDocument", mock.Anything, "page.html", 1).
					Return(store.Document{ID: validDocID, Status: store.StatusProcessing}, nil).Once()
				q.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "file too large",
			filename:   "large.txt",
			content:    make([]byte, 2*1024*1024), // 2MB
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unsupported binary content",
			filename:   "blob.bin",
			content:    []byte{0x00, 0x01, 0x02, 0xff, 0xfe},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unreadable pdf",
			filename:   "broken.pdf",
			content:    []byte("definitely not a pdf"),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:     "CreateDocument failure",
			filename: "test.txt",
			content:  []byte("content"),
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("CreateDocument", mock.Anything, "test.txt", 1).
					Return(store.Document{}, errors.New("db error")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:     "Enqueue failure marks doc failed",
			filename: "test.txt",
			content:  []byte("content"),
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("CreateDocument", mock.Anything, "test.txt", 1).
					Return(store.Document{ID: validDocID, Status: store.StatusProcessing}, nil).Once()
				q.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("queue error")).Times(3)
				s.On("UpdateDocumentStatus", mock.Anything, validDocID, store.StatusFailed).Return(nil).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := new(store.MockStore)
			mockQueue := new(queue.MockQueue)
			if tt.setup != nil {
				tt.setup(mockStore, mockQueue)
			}

			handler := uploadHandler(newTestDeps(mockStore, mockQueue, cache.NewNoOpCache()))
			req, err := createMultipartRequest(tt.filename, tt.content)
			require.NoError(t, err)

			w := httptest.NewRecorder()
			handler(w, req)

			resp := w.Result()
			if resp.StatusCode != tt.wantStatus {
				body, _ := io.ReadAll(resp.Body)
				t.Errorf("Expected status %d, got %d. Body: %s", tt.wantStatus, resp.StatusCode, string(body))
			}
			if tt.checkResponse != nil {
				resp.Body = io.NopCloser(bytes.NewReader(w.Body.Bytes()))
				tt.checkResponse(t, resp)
			}

			mockStore.AssertExpectations(t)
			mockQueue.AssertExpectations(t)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		handler := uploadHandler(newTestDeps(new(store.MockStore), new(queue.MockQueue), cache.NewNoOpCache()))

		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", nil)
		req.Header.Set("Content-Type", "multipart/form-data")
		w := httptest.NewRecorder()
		handler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestChunkHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(*cache.MockCache)
		wantStatus int
		want       *chunkResponse
	}{
		{
			name: "splits oversized paragraph with overlap",
			body: `{"pages":["One two. Three four. Five six."],"max_tokens":4,"split_if_exceeds_limit":true}`,
			setup: func(c *cache.MockCache) {
				c.On("GetChunks", mock.Anything, mock.Anything).Return(nil, nil).Once()
				c.On("SetChunks", mock.Anything, mock.Anything, mock.MatchedBy(func(r *cache.ChunkResult) bool {
					return len(r.Chunks) == 2
				}), time.Hour).Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			want: &chunkResponse{Chunks: []chunkView{
				{Index: 0, Text: "One two. Three four.", TokenCount: 4},
				{Index: 1, Text: "Three four. Five six.", TokenCount: 4},
			}},
		},
		{
			name: "paragraphs returned whole without split",
			body: `{"pages":["One two. Three four.\n\nFive six."],"max_tokens":2}`,
			setup: func(c *cache.MockCache) {
				c.On("GetChunks", mock.Anything, mock.Anything).Return(nil, nil).Once()
				c.On("SetChunks", mock.Anything, mock.Anything, mock.Anything, time.Hour).Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			want: &chunkResponse{Chunks: []chunkView{
				{Index: 0, Text: "One two. Three four.", TokenCount: 4},
				{Index: 1, Text: "Five six.", TokenCount: 2},
			}},
		},
		{
			name: "cache hit skips chunking",
			body: `{"pages":["anything"]}`,
			setup: func(c *cache.MockCache) {
				c.On("GetChunks", mock.Anything, mock.Anything).
					Return(&cache.ChunkResult{Chunks: []chunker.Chunk{{Index: 0, Text: "cached", TokenCount: 1}}}, nil).Once()
			},
			wantStatus: http.StatusOK,
			want: &chunkResponse{
				Chunks: []chunkView{{Index: 0, Text: "cached", TokenCount: 1}},
				Cached: true,
			},
		},
		{
			name: "cache errors do not fail the request",
			body: `{"pages":["Alone."]}`,
			setup: func(c *cache.MockCache) {
				c.On("GetChunks", mock.Anything, mock.Anything).Return(nil, errors.New("redis down")).Once()
				c.On("SetChunks", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(errors.New("redis down")).Once()
			},
			wantStatus: http.StatusOK,
			want:       &chunkResponse{Chunks: []chunkView{{Index: 0, Text: "Alone.", TokenCount: 1}}},
		},
		{
			name: "no pages reports no content",
			body: `{"pages":[]}`,
			setup: func(c *cache.MockCache) {
				c.On("GetChunks", mock.Anything, mock.Anything).Return(nil, nil).Once()
			},
			wantStatus: http.StatusOK,
			want:       &chunkResponse{Chunks: []chunkView{}, NoContent: true},
		},
		{
			name:       "negative max_tokens rejected",
			body:       `{"pages":["x"],"max_tokens":-5}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"pages":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCache := new(cache.MockCache)
			if tt.setup != nil {
				tt.setup(mockCache)
			}

			handler := chunkHandler(newTestDeps(new(store.MockStore), new(queue.MockQueue), mockCache))
			req := httptest.NewRequest(http.MethodPost, "/api/chunk", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler(w, req)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.want != nil {
				var got chunkResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, *tt.want, got)
			}
			mockCache.AssertExpectations(t)
		})
	}
}

func TestChunksHandler(t *testing.T) {
	validDocID := uuid.New()

	tests := []struct {
		name          string
		docID         string
		setup         func(*store.MockStore)
		wantStatus    int
		checkResponse func(*testing.T, map[string]any)
	}{
		{
			name:  "lists stored chunks",
			docID: validDocID.String(),
			setup: func(s *store.MockStore) {
				s.On("GetDocument", mock.Anything, validDocID).
					Return(store.Document{ID: validDocID, Filename: "a.txt", Status: store.StatusChunked, PageCount: 3}, nil).Once()
				s.On("ListChunks", mock.Anything, validDocID).Return([]store.Chunk{
					{Index: 0, Text: "first", TokenCount: 1},
					{Index: 1, Text: "second", TokenCount: 1},
				}, nil).Once()
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, result map[string]any) {
				assert.Equal(t, "a.txt", result["filename"])
				assert.Equal(t, string(store.StatusChunked), result["status"])
				assert.EqualValues(t, 3, result["pages"])
				chunks, ok := result["chunks"].([]any)
				require.True(t, ok)
				assert.Len(t, chunks, 2)
			},
		},
		{
			name:       "invalid UUID",
			docID:      "not-a-uuid",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "document not found",
			docID: validDocID.String(),
			setup: func(s *store.MockStore) {
				s.On("GetDocument", mock.Anything, validDocID).
					Return(store.Document{}, fmt.Errorf("get: %w", store.ErrDocumentNotFound)).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:  "list failure",
			docID: validDocID.String(),
			setup: func(s *store.MockStore) {
				s.On("GetDocument", mock.Anything, validDocID).
					Return(store.Document{ID: validDocID}, nil).Once()
				s.On("ListChunks", mock.Anything, validDocID).Return(nil, errors.New("db error")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := new(store.MockStore)
			if tt.setup != nil {
				tt.setup(mockStore)
			}

			router := newRouter(newTestDeps(mockStore, new(queue.MockQueue), cache.NewNoOpCache()))
			req := httptest.NewRequest(http.MethodGet, "/api/documents/"+tt.docID+"/chunks", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.checkResponse != nil {
				var result map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
				tt.checkResponse(t, result)
			}
			mockStore.AssertExpectations(t)
		})
	}
}

func TestHealthz(t *testing.T) {
	router := newRouter(newTestDeps(new(store.MockStore), new(queue.MockQueue), cache.NewNoOpCache()))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func createMultipartRequest(filename string, content []byte) (*http.Request, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}
