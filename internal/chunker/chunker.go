package chunker

import (
	"errors"
	"io"
	"log/slog"
)

// DefaultMaxTokens is the token budget used when Options.MaxTokens is unset.
const DefaultMaxTokens = 1000

// ErrNoContent is returned alongside an empty result when there was nothing to chunk.
var ErrNoContent = errors.New("no content extracted")

// TokenCounter measures text length in tokens.
type TokenCounter interface {
	Count(text string) int
}

// Segmenter splits a paragraph into ordered sentences.
type Segmenter interface {
	Sentences(text string) []string
}

// ContinuationFunc reports whether a paragraph continues the previous one.
type ContinuationFunc func(paragraph string) bool

// Options controls how a document is chunked.
type Options struct {
	MaxTokens           int
	SplitIfExceedsLimit bool
}

func (o Options) withDefaults() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	return o
}

// Chunk is a chunk annotated with its position and size.
type Chunk struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
}

// Chunker turns page text into chunks. It holds no mutable state and is safe
// for concurrent use.
type Chunker struct {
	tokens       TokenCounter
	segmenter    Segmenter
	continuation ContinuationFunc
	log          *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithContinuation replaces the paragraph continuation heuristic.
func WithContinuation(fn ContinuationFunc) Option {
	return func(c *Chunker) {
		if fn != nil {
			c.continuation = fn
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Chunker) {
		if log != nil {
			c.log = log
		}
	}
}

// New builds a Chunker over the given collaborators.
func New(tokens TokenCounter, segmenter Segmenter, opts ...Option) *Chunker {
	c := &Chunker{
		tokens:       tokens,
		segmenter:    segmenter,
		continuation: IsContinuation,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Annotate attaches index and token count to each chunk.
func (c *Chunker) Annotate(chunks []string) []Chunk {
	out := make([]Chunk, len(chunks))
	for i, text := range chunks {
		out[i] = Chunk{
			Index:      i,
			Text:       text,
			TokenCount: c.tokens.Count(text),
		}
	}
	return out
}
