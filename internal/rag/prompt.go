package rag

import (
	"fmt"
	"strings"

	"github.com/docsage/docsage/tools/retriever"
)

// Prompts are deliberately minimal. Verbose role scaffolding makes small
// instruction-tuned models echo the instructions back instead of answering,
// so each template is a short imperative plus the context and a trailing
// marker the sanitizer can anchor on.

const (
	answerMarker     = "Answer:"
	summaryMarker    = "Summary:"
	comparisonMarker = "Comparison:"

	askInstruction     = "Use the context to answer the question. Answer only from the context, without commentary."
	summaryInstruction = "Write a concise summary of the following text."
	compareInstruction = "Compare the following documents. Describe their key similarities and differences."
)

// BuildAskPrompt embeds the question and a page-annotated context block.
func BuildAskPrompt(items []retriever.Item, question string) string {
	var b strings.Builder
	b.WriteString(askInstruction)
	b.WriteString("\n\nContext:\n")
	b.WriteString(contextBlock(items, true))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n")
	b.WriteString(answerMarker)
	return b.String()
}

// BuildSummarizePrompt embeds the context block without page annotations.
func BuildSummarizePrompt(items []retriever.Item) string {
	var b strings.Builder
	b.WriteString(summaryInstruction)
	b.WriteString("\n\nText:\n")
	b.WriteString(contextBlock(items, false))
	b.WriteString("\n\n")
	b.WriteString(summaryMarker)
	return b.String()
}

// BuildComparePrompt lays the retrieved context out per document, in
// session-list order, so the model can synthesize across all of them.
func BuildComparePrompt(items []retriever.Item) string {
	var b strings.Builder
	b.WriteString(compareInstruction)

	var order []string
	grouped := make(map[string][]retriever.Item)
	for _, item := range items {
		if _, ok := grouped[item.SessionID]; !ok {
			order = append(order, item.SessionID)
		}
		grouped[item.SessionID] = append(grouped[item.SessionID], item)
	}
	for i, sid := range order {
		group := grouped[sid]
		b.WriteString(fmt.Sprintf("\n\nDocument %d (%s):\n", i+1, group[0].SourceFile))
		b.WriteString(contextBlock(group, false))
	}

	b.WriteString("\n\n")
	b.WriteString(comparisonMarker)
	return b.String()
}

// contextBlock concatenates chunk texts in retrieval order, joined by blank
// lines. With pages enabled each chunk is prefixed with its 1-indexed page
// number; chunks the extractor left unpaged get no prefix.
func contextBlock(items []retriever.Item, pages bool) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if pages && item.Chunk.Page >= 0 {
			parts = append(parts, fmt.Sprintf("[Page %d] %s", item.Chunk.Page+1, item.Chunk.Text))
		} else {
			parts = append(parts, item.Chunk.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
