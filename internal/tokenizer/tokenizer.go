package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultEncoding is the GPT-4o vocabulary.
	DefaultEncoding = "o200k_base"
	// WordsEncoding selects the whitespace word counter.
	WordsEncoding = "words"
)

// Counter measures text length in tokens.
type Counter interface {
	Count(text string) int
}

// Tiktoken counts BPE tokens with a tiktoken encoding.
type Tiktoken struct {
	encoding string
	tke      *tiktoken.Tiktoken
}

// NewTiktoken loads an encoding by name, or the encoding of a model name.
// The BPE ranks are fetched on first use and cached by tiktoken-go.
func NewTiktoken(encodingOrModel string) (*Tiktoken, error) {
	if encodingOrModel == "" {
		encodingOrModel = DefaultEncoding
	}
	tke, err := tiktoken.GetEncoding(encodingOrModel)
	if err != nil {
		var modelErr error
		tke, modelErr = tiktoken.EncodingForModel(encodingOrModel)
		if modelErr != nil {
			return nil, fmt.Errorf("load tokenizer %q: %w", encodingOrModel, err)
		}
	}
	return &Tiktoken{encoding: encodingOrModel, tke: tke}, nil
}

// Count returns the number of tokens in text.
func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.tke.Encode(text, nil, nil))
}

// Encoding returns the encoding or model name the counter was built with.
func (t *Tiktoken) Encoding() string {
	return t.encoding
}

// Words approximates tokens by whitespace-delimited words.
type Words struct{}

// Count returns the number of whitespace-delimited words in text.
func (Words) Count(text string) int {
	return len(strings.Fields(text))
}

// New returns the counter for an encoding name. WordsEncoding selects Words,
// anything else is resolved by tiktoken.
func New(encoding string) (Counter, error) {
	if strings.EqualFold(encoding, WordsEncoding) {
		return Words{}, nil
	}
	return NewTiktoken(encoding)
}
