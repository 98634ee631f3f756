package report

import (
	"fmt"
	"io"
	"strings"
)

const (
	previewLen = 200
	rule       = 80
)

// TokenCounter measures text length in tokens.
type TokenCounter interface {
	Count(text string) int
}

// Stats summarizes a chunk sequence.
type Stats struct {
	Chunks      int     `json:"chunks"`
	TotalTokens int     `json:"total_tokens"`
	AvgTokens   float64 `json:"avg_tokens"`
	MaxTokens   int     `json:"max_tokens"`
	MinTokens   int     `json:"min_tokens"`
	OverLimit   int     `json:"over_limit"`
}

// Summarize computes token statistics; OverLimit counts chunks above limit.
func Summarize(chunks []string, counter TokenCounter, limit int) Stats {
	s := Stats{Chunks: len(chunks)}
	for i, c := range chunks {
		n := counter.Count(c)
		s.TotalTokens += n
		if i == 0 || n > s.MaxTokens {
			s.MaxTokens = n
		}
		if i == 0 || n < s.MinTokens {
			s.MinTokens = n
		}
		if n > limit {
			s.OverLimit++
		}
	}
	if s.Chunks > 0 {
		s.AvgTokens = float64(s.TotalTokens) / float64(s.Chunks)
	}
	return s
}

// Preview truncates text to n runes, marking the cut with "...".
func Preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}

// PrintChunks writes the first n chunks with their token counts.
func PrintChunks(w io.Writer, chunks []string, counter TokenCounter, n int) {
	shown := max(0, min(n, len(chunks)))
	bar := strings.Repeat("=", rule)

	fmt.Fprintf(w, "\n%s\n", bar)
	fmt.Fprintf(w, "CHUNK SUMMARY - Showing first %d chunks out of %d total\n", shown, len(chunks))
	fmt.Fprintf(w, "%s\n", bar)
	for i, c := range chunks[:shown] {
		fmt.Fprintf(w, "\nChunk %d (%d tokens):\n", i+1, counter.Count(c))
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", 50))
		fmt.Fprintf(w, "%s\n", Preview(c, previewLen))
		fmt.Fprintf(w, "%s\n", bar)
	}
	if len(chunks) > shown {
		fmt.Fprintf(w, "\n... and %d more chunks\n", len(chunks)-shown)
	}
}

// PrintStats writes overall statistics.
func PrintStats(w io.Writer, s Stats, limit int) {
	fmt.Fprintf(w, "\nOVERALL STATISTICS:\n")
	fmt.Fprintf(w, "Total chunks: %d\n", s.Chunks)
	fmt.Fprintf(w, "Total tokens: %d\n", s.TotalTokens)
	fmt.Fprintf(w, "Average tokens per chunk: %.1f\n", s.AvgTokens)
	fmt.Fprintf(w, "Max chunk tokens: %d\n", s.MaxTokens)
	fmt.Fprintf(w, "Min chunk tokens: %d\n", s.MinTokens)
	fmt.Fprintf(w, "Chunks over %d tokens: %d\n", limit, s.OverLimit)
}
