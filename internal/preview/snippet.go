package preview

import (
	"strings"

	"github.com/neurosnap/sentences"
)

// maxSnippetLen bounds the fallback description derived from body text.
const maxSnippetLen = 240

// Snippet builds a short description from page text by accumulating
// whole sentences until the length budget runs out. Used when a page
// carries no usable meta description.
func Snippet(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	tokenizer := sentences.NewSentenceTokenizer(nil) // default locale
	if tokenizer == nil {
		return truncateAtWord(text, maxSnippetLen)
	}

	var parts []string
	total := 0
	for _, s := range tokenizer.Tokenize(text) {
		sentence := strings.TrimSpace(s.Text)
		if sentence == "" {
			continue
		}
		// Account for the joining space.
		next := total + len(sentence)
		if len(parts) > 0 {
			next++
		}
		if next > maxSnippetLen {
			break
		}
		parts = append(parts, sentence)
		total = next
	}

	if len(parts) == 0 {
		// The first sentence alone is over budget; cut it mid-sentence.
		return truncateAtWord(text, maxSnippetLen)
	}
	return strings.Join(parts, " ")
}

func truncateAtWord(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}
