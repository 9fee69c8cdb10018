// Package chunker splits normalized text into bounded, overlapping segments.
package chunker

import (
	"regexp"
	"strings"
)

// Default token budget and overlap, in estimated tokens.
const (
	DefaultMaxTokens = 600
	DefaultOverlap   = 80

	charsPerToken = 4
)

var (
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
	sentenceSplit  = regexp.MustCompile(`[^.!?]+[.!?]+`)
)

// EstimateTokens approximates the token count of text as ceil(len/4).
func EstimateTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// Chunker greedily packs paragraphs into chunks of at most maxTokens
// estimated tokens. A paragraph that alone exceeds the budget is split into
// sentences and packed at sentence granularity. Each new chunk is seeded
// with the trailing overlap words of the chunk it follows.
type Chunker struct {
	maxTokens int
	overlap   int
}

// New creates a chunker with the given token budget and overlap word count.
// Non-positive maxTokens falls back to DefaultMaxTokens; negative overlap is
// treated as zero.
func New(maxTokens, overlap int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{maxTokens: maxTokens, overlap: overlap}
}

// Split breaks text into chunks. Empty input yields no chunks. A single
// sentence with no terminating punctuation that exceeds the budget becomes
// one oversized chunk.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	budget := c.maxTokens * charsPerToken
	var chunks []string
	var cur strings.Builder

	add := func(unit string) {
		if cur.Len() > 0 && cur.Len()+1+len(unit) > budget {
			closed := cur.String()
			chunks = append(chunks, closed)
			cur.Reset()
			cur.WriteString(tailWords(closed, c.overlap))
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(unit)
	}

	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= budget {
			add(para)
			continue
		}
		sentences := sentenceSplit.FindAllString(para, -1)
		if len(sentences) == 0 {
			sentences = []string{para}
		}
		for _, s := range sentences {
			add(strings.TrimSpace(s))
		}
	}

	if rest := strings.TrimSpace(cur.String()); rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

// tailWords returns the last n whitespace-separated words of s.
func tailWords(s string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(s)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}
