package rag

import (
	"context"
	"log"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/docsage/docsage/session/inmemory"
	"github.com/docsage/docsage/tools/extract"
)

// stubProvider is a deterministic model backend. Generation can be forbidden
// to assert that sentinel paths never reach the model.
type stubProvider struct {
	t          *testing.T
	response   string
	prompts    []string
	embedCalls int
	forbidGen  bool
}

func (p *stubProvider) Generate(_ context.Context, prompt string, _ int) (string, error) {
	if p.forbidGen {
		p.t.Fatal("Generate must not be called on this path")
	}
	p.prompts = append(p.prompts, prompt)
	return p.response, nil
}

func (p *stubProvider) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	p.embedCalls++
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = []float32{float32(len(text)), float32(len(strings.Fields(text))), 1}
	}
	return vecs, nil
}

type stubExtractor struct {
	pages []extract.Page
}

func (e *stubExtractor) Extract(context.Context, string) ([]extract.Page, error) {
	return e.pages, nil
}

func newTestService(t *testing.T, prov *stubProvider, pages []extract.Page, timeout time.Duration) *Service {
	t.Helper()
	logger := log.New(log.Writer(), "[TEST] ", 0)
	return NewService(inmemory.NewStore(), prov, &stubExtractor{pages: pages}, 1000, 100, timeout, logger)
}

var testPages = []extract.Page{
	{Number: 0, Text: "Water boils at 100 degrees Celsius at sea level."},
	{Number: 1, Text: "At higher pressure the boiling point increases."},
}

func TestAsk_NoSessionSelected(t *testing.T) {
	prov := &stubProvider{t: t, forbidGen: true}
	svc := newTestService(t, prov, testPages, time.Hour)

	result, err := svc.Ask(context.Background(), "when does water boil?", nil)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if result.Answer != MsgNoSession {
		t.Errorf("got %q, want %q", result.Answer, MsgNoSession)
	}
	if result.Citations == nil || len(result.Citations) != 0 {
		t.Errorf("expected empty citations, got %#v", result.Citations)
	}
	if prov.embedCalls != 0 {
		t.Errorf("expected no embedding calls, got %d", prov.embedCalls)
	}
}

func TestAsk_AllSessionsUnknown(t *testing.T) {
	prov := &stubProvider{t: t, forbidGen: true}
	svc := newTestService(t, prov, testPages, time.Hour)

	result, err := svc.Ask(context.Background(), "anything", []string{"gone-1", "gone-2"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if result.Answer != MsgNoContext {
		t.Errorf("got %q, want %q", result.Answer, MsgNoContext)
	}
	if len(result.Citations) != 0 {
		t.Errorf("expected empty citations, got %#v", result.Citations)
	}
}

func TestAsk_AnswerWithCitations(t *testing.T) {
	prov := &stubProvider{t: t, response: "It boils at 100 degrees Celsius."}
	svc := newTestService(t, prov, testPages, time.Hour)

	id, pageCount, err := svc.IngestPDF(context.Background(), "staged.pdf", "physics.pdf")
	if err != nil {
		t.Fatalf("IngestPDF failed: %v", err)
	}
	if pageCount != 2 {
		t.Fatalf("expected 2 pages, got %d", pageCount)
	}

	result, err := svc.Ask(context.Background(), "when does water boil?", []string{id})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if result.Answer != prov.response {
		t.Errorf("got answer %q", result.Answer)
	}

	want := []Citation{
		{Source: "physics.pdf", Page: 1},
		{Source: "physics.pdf", Page: 2},
	}
	if !reflect.DeepEqual(result.Citations, want) {
		t.Errorf("got citations %+v, want %+v", result.Citations, want)
	}

	if len(prov.prompts) != 1 {
		t.Fatalf("expected one generation, got %d", len(prov.prompts))
	}
	if !strings.Contains(prov.prompts[0], "[Page 1]") {
		t.Errorf("ask prompt missing page annotation:\n%s", prov.prompts[0])
	}
}

func TestAsk_ExpiredSessionsAreSwept(t *testing.T) {
	prov := &stubProvider{t: t, response: "irrelevant"}
	svc := newTestService(t, prov, testPages, 0)

	id, _, err := svc.IngestPDF(context.Background(), "staged.pdf", "physics.pdf")
	if err != nil {
		t.Fatalf("IngestPDF failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	result, err := svc.Ask(context.Background(), "anything", []string{id})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if result.Answer != MsgNoContext {
		t.Errorf("expected expired session to degrade to %q, got %q", MsgNoContext, result.Answer)
	}
}

func TestSummarize(t *testing.T) {
	prov := &stubProvider{t: t, response: "Summary: water boils; pressure raises the boiling point"}
	svc := newTestService(t, prov, testPages, time.Hour)

	id, _, err := svc.IngestPDF(context.Background(), "staged.pdf", "physics.pdf")
	if err != nil {
		t.Fatalf("IngestPDF failed: %v", err)
	}

	summary, err := svc.Summarize(context.Background(), []string{id})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary != "water boils; pressure raises the boiling point" {
		t.Errorf("unexpected summary %q", summary)
	}
	if strings.Contains(prov.prompts[0], "[Page") {
		t.Errorf("summarize prompt must not annotate pages:\n%s", prov.prompts[0])
	}
}

func TestSummarize_Sentinels(t *testing.T) {
	prov := &stubProvider{t: t, forbidGen: true}
	svc := newTestService(t, prov, testPages, time.Hour)

	summary, err := svc.Summarize(context.Background(), nil)
	if err != nil || summary != MsgNoSession {
		t.Errorf("got (%q, %v), want %q", summary, err, MsgNoSession)
	}

	summary, err = svc.Summarize(context.Background(), []string{"unknown"})
	if err != nil || summary != MsgNoDocuments {
		t.Errorf("got (%q, %v), want %q", summary, err, MsgNoDocuments)
	}
}

func TestCompare_RequiresTwoSessions(t *testing.T) {
	prov := &stubProvider{t: t, forbidGen: true}
	svc := newTestService(t, prov, testPages, time.Hour)

	got, err := svc.Compare(context.Background(), []string{"only-one"})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if got != MsgNeedTwoDocs {
		t.Errorf("got %q, want %q", got, MsgNeedTwoDocs)
	}
	if prov.embedCalls != 0 {
		t.Errorf("comparison guard must run before retrieval, got %d embed calls", prov.embedCalls)
	}
}

func TestCompare_SynthesizesAcrossDocuments(t *testing.T) {
	prov := &stubProvider{t: t, response: "Both documents discuss boiling."}
	svc := newTestService(t, prov, testPages, time.Hour)

	first, _, err := svc.IngestPDF(context.Background(), "a.pdf", "first.pdf")
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	second, _, err := svc.IngestPDF(context.Background(), "b.pdf", "second.pdf")
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}

	got, err := svc.Compare(context.Background(), []string{first, second})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if got != prov.response {
		t.Errorf("unexpected comparison %q", got)
	}

	prompt := prov.prompts[len(prov.prompts)-1]
	if !strings.Contains(prompt, "Document 1 (first.pdf):") || !strings.Contains(prompt, "Document 2 (second.pdf):") {
		t.Errorf("comparison prompt must span both documents:\n%s", prompt)
	}
}
