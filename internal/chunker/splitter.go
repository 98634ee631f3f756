package chunker

import (
	"strings"
)

// overlapSentences is the widest overlap window carried into the next chunk.
const overlapSentences = 2

// Split breaks a paragraph into sentence-aligned chunks of at most maxTokens
// tokens. Consecutive chunks share up to two sentences. A sentence that alone
// exceeds maxTokens becomes its own chunk.
func (c *Chunker) Split(paragraph string, maxTokens int) []string {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	sentences := c.segmenter.Sentences(paragraph)
	counts := make([]int, len(sentences))
	for i, s := range sentences {
		counts[i] = c.tokens.Count(s)
	}

	var (
		chunks  []string
		current []string
		total   int
	)
	i := 0
	for i < len(sentences) {
		t := counts[i]
		switch {
		case total+t <= maxTokens:
			current = append(current, sentences[i])
			total += t
			i++
		case len(current) > 0:
			chunks = append(chunks, strings.Join(current, " "))
			// The window is taken from the global cursor, so it may reach
			// behind the chunk just emitted.
			from := max(0, i-overlapSentences)
			total = sum(counts[from:i])
			for from < i && total+t > maxTokens {
				total -= counts[from]
				from++
			}
			current = append([]string(nil), sentences[from:i]...)
			// i stays put: sentences[i] is retried against the overlap seed.
		default:
			c.log.Debug("sentence exceeds token budget", "tokens", t, "max_tokens", maxTokens)
			chunks = append(chunks, sentences[i])
			current = nil
			total = 0
			i++
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

func sum(counts []int) int {
	n := 0
	for _, v := range counts {
		n += v
	}
	return n
}
