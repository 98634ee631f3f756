package chunker

import (
	"strings"
)

// wordCounter counts whitespace-delimited words, with per-word overrides.
type wordCounter map[string]int

func (w wordCounter) Count(text string) int {
	n := 0
	for _, word := range strings.Fields(text) {
		if v, ok := w[word]; ok {
			n += v
			continue
		}
		n++
	}
	return n
}

// pipeSegmenter treats "|" as the sentence boundary.
type pipeSegmenter struct{}

func (pipeSegmenter) Sentences(text string) []string {
	var out []string
	for _, s := range strings.Split(text, "|") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// periodSegmenter ends a sentence at ". ".
type periodSegmenter struct{}

func (periodSegmenter) Sentences(text string) []string {
	var out []string
	for _, s := range strings.SplitAfter(text, ". ") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
