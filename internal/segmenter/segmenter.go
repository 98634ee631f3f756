package segmenter

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Segmenter splits a paragraph into ordered sentences.
type Segmenter interface {
	Sentences(text string) []string
}

// Punkt segments English text with the pretrained Punkt model.
type Punkt struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunkt loads the embedded English training data.
func NewPunkt() (*Punkt, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load punkt model: %w", err)
	}
	return &Punkt{tokenizer: tok}, nil
}

// Sentences returns the trimmed, non-empty sentences of text in order.
func (p *Punkt) Sentences(text string) []string {
	var out []string
	for _, s := range p.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Func adapts a plain function to Segmenter.
type Func func(text string) []string

// Sentences calls f.
func (f Func) Sentences(text string) []string {
	return f(text)
}
