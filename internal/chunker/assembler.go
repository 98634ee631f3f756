package chunker

import (
	"strings"
)

const paragraphSeparator = "\n\n"

// IsContinuation is the default continuation heuristic: a paragraph that
// starts with a lowercase ASCII letter or a quote continues the previous one.
func IsContinuation(paragraph string) bool {
	if paragraph == "" {
		return false
	}
	switch ch := paragraph[0]; {
	case ch >= 'a' && ch <= 'z':
		return true
	case ch == '"' || ch == '\'':
		return true
	default:
		return false
	}
}

// Assemble joins pages, collapses soft line wraps and returns the merged
// paragraphs in document order.
func (c *Chunker) Assemble(pages []string) []string {
	text := normalize(strings.Join(pages, "\n"))

	var merged []string
	var buf strings.Builder
	for _, raw := range strings.Split(text, paragraphSeparator) {
		para := strings.TrimSpace(raw)
		if para == "" {
			continue
		}
		if c.continuation(para) {
			buf.WriteByte(' ')
			buf.WriteString(para)
			continue
		}
		if buf.Len() > 0 {
			merged = append(merged, strings.TrimSpace(buf.String()))
		}
		buf.Reset()
		buf.WriteString(para)
	}
	if buf.Len() > 0 {
		if last := strings.TrimSpace(buf.String()); last != "" {
			merged = append(merged, last)
		}
	}
	return merged
}

// normalize replaces every lone line break with a space. Runs of two or more
// line breaks are kept so paragraph separators survive.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	b := []byte(text)
	out := make([]byte, len(b))
	for i, ch := range b {
		if ch == '\n' &&
			(i == 0 || b[i-1] != '\n') &&
			(i == len(b)-1 || b[i+1] != '\n') {
			out[i] = ' '
			continue
		}
		out[i] = ch
	}
	return string(out)
}
