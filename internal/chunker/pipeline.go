package chunker

import (
	"context"
	"fmt"
)

// PageExtractor returns a document's text as ordered pages.
type PageExtractor interface {
	Pages(content []byte, filename string) ([]string, error)
}

// ExtractAndChunk assembles pages into paragraphs and, when
// opts.SplitIfExceedsLimit is set, splits paragraphs over opts.MaxTokens.
// An empty page sequence yields an empty result and ErrNoContent.
func (c *Chunker) ExtractAndChunk(pages []string, opts Options) ([]string, error) {
	if len(pages) == 0 {
		return []string{}, ErrNoContent
	}
	opts = opts.withDefaults()

	paragraphs := c.Assemble(pages)
	if !opts.SplitIfExceedsLimit {
		c.log.Debug("assembled paragraphs", "pages", len(pages), "paragraphs", len(paragraphs))
		return paragraphs, nil
	}

	chunks := make([]string, 0, len(paragraphs))
	split := 0
	for _, para := range paragraphs {
		if c.tokens.Count(para) <= opts.MaxTokens {
			chunks = append(chunks, para)
			continue
		}
		chunks = append(chunks, c.Split(para, opts.MaxTokens)...)
		split++
	}
	c.log.Debug("chunked paragraphs",
		"pages", len(pages),
		"paragraphs", len(paragraphs),
		"split_paragraphs", split,
		"chunks", len(chunks),
		"max_tokens", opts.MaxTokens,
	)
	return chunks, nil
}

// ChunkDocument extracts pages from raw document content and chunks them.
// The returned chunks are annotated with index and token count.
func (c *Chunker) ChunkDocument(ctx context.Context, ex PageExtractor, content []byte, filename string, opts Options) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := ex.Pages(content, filename)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}
	chunks, err := c.ExtractAndChunk(pages, opts)
	if err != nil {
		return []Chunk{}, err
	}
	return c.Annotate(chunks), nil
}
