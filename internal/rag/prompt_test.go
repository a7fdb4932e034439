package rag

import (
	"strings"
	"testing"

	"github.com/docsage/docsage/internal/chunk"
	"github.com/docsage/docsage/tools/retriever"
)

func retrieved(session, source, text string, page int) retriever.Item {
	return retriever.Item{
		Chunk:      chunk.Chunk{Text: text, SourceFile: source, Page: page},
		SourceFile: source,
		SessionID:  session,
	}
}

func TestBuildAskPrompt(t *testing.T) {
	items := []retriever.Item{
		retrieved("s1", "a.pdf", "water boils at 100C", 0),
		retrieved("s1", "a.pdf", "under pressure it boils higher", 2),
	}
	prompt := BuildAskPrompt(items, "When does water boil?")

	if !strings.Contains(prompt, "[Page 1] water boils at 100C") {
		t.Errorf("first chunk missing or page not 1-indexed:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[Page 3] under pressure it boils higher") {
		t.Errorf("second chunk missing or page not 1-indexed:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Question: When does water boil?") {
		t.Errorf("question missing:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, answerMarker) {
		t.Errorf("prompt must end with the answer marker:\n%s", prompt)
	}
	if strings.Index(prompt, "[Page 1]") > strings.Index(prompt, "[Page 3]") {
		t.Errorf("retrieval order not preserved:\n%s", prompt)
	}
}

func TestBuildAskPrompt_Deterministic(t *testing.T) {
	items := []retriever.Item{retrieved("s1", "a.pdf", "some text", 0)}
	if BuildAskPrompt(items, "q") != BuildAskPrompt(items, "q") {
		t.Fatal("ask prompt must be deterministic")
	}
}

func TestBuildSummarizePrompt_NoPageAnnotations(t *testing.T) {
	items := []retriever.Item{retrieved("s1", "a.pdf", "chapter one content", 4)}
	prompt := BuildSummarizePrompt(items)
	if strings.Contains(prompt, "[Page") {
		t.Errorf("summarize context must not carry page prefixes:\n%s", prompt)
	}
	if !strings.Contains(prompt, "chapter one content") {
		t.Errorf("context missing:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, summaryMarker) {
		t.Errorf("prompt must end with the summary marker:\n%s", prompt)
	}
}

func TestBuildComparePrompt_GroupsBySessionInOrder(t *testing.T) {
	items := []retriever.Item{
		retrieved("s1", "first.pdf", "alpha facts", 0),
		retrieved("s1", "first.pdf", "more alpha", 1),
		retrieved("s2", "second.pdf", "beta facts", 0),
	}
	prompt := BuildComparePrompt(items)

	if !strings.Contains(prompt, "Document 1 (first.pdf):") {
		t.Errorf("first document header missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Document 2 (second.pdf):") {
		t.Errorf("second document header missing:\n%s", prompt)
	}
	if strings.Index(prompt, "Document 1") > strings.Index(prompt, "Document 2") {
		t.Errorf("document order must follow session-list order:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, comparisonMarker) {
		t.Errorf("prompt must end with the comparison marker:\n%s", prompt)
	}
}
