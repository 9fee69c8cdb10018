// Package chat defines the boundary to an answer-generating surface. The
// retrieval core produces ranked sources; anything that turns them into
// conversational answers implements one of these interfaces and receives a
// prompt built here.
package chat

import (
	"context"
	"fmt"
	"strings"

	"sitesearch/internal/domain"
)

// CompletionProvider generates an answer from a system prompt and a user
// prompt, streaming text chunks to the callback as they arrive.
type CompletionProvider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, onChunk func(text string)) error
}

// Responder is the non-generative fallback shape: given a query and its
// retrieved sources, produce a canned answer without a completion call.
type Responder interface {
	Respond(ctx context.Context, query string, sources []domain.Source) (string, error)
}

// DefaultSystemPrompt constrains the provider to the retrieved material.
const DefaultSystemPrompt = `You are a helpful assistant answering questions about a website.
Answer using only the provided sources. Cite the source url when you rely on it.
If the sources do not contain the answer, say that you do not have that information.`

// BuildPrompt renders the user turn: the query plus the numbered source
// list. With no sources it instructs the provider to say it lacks the
// information rather than invent one.
func BuildPrompt(query string, sources []domain.Source) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(strings.TrimSpace(query))
	b.WriteString("\n\n")

	if len(sources) == 0 {
		b.WriteString("No sources were found for this question. ")
		b.WriteString("Say that you do not have that information.")
		return b.String()
	}

	b.WriteString("Sources:\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "%d. %s (%s)\n   %s\n", i+1, s.Title, s.URL, s.Snippet)
	}
	b.WriteString("\nAnswer the question using only these sources.")
	return b.String()
}
