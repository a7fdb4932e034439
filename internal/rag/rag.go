// Package rag owns the retrieval-and-answer pipeline: turning an extracted
// PDF into a session-scoped chunk index, retrieving relevant chunks across
// sessions, assembling bounded prompts, invoking the model, and cleaning the
// output into an answer plus citations.
package rag

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/docsage/docsage/internal/chunk"
	"github.com/docsage/docsage/provider"
	"github.com/docsage/docsage/session"
	"github.com/docsage/docsage/session/docindex"
	"github.com/docsage/docsage/tools/embedding"
	"github.com/docsage/docsage/tools/extract"
	"github.com/docsage/docsage/tools/retriever"
)

// Sentinel responses for degraded queries. These are user-facing strings,
// returned with a 200 payload instead of an error.
const (
	MsgNoSession   = "No session selected."
	MsgNoContext   = "No relevant context found."
	MsgNoDocuments = "No documents found."
	MsgNeedTwoDocs = "Select at least 2 documents."
)

const (
	askMaxNewTokens       = 150
	summarizeMaxNewTokens = 300
	compareMaxNewTokens   = 300

	summarizeQuery = "Summarize the document"
	compareQuery   = "What are the main topics and claims of the document?"
)

// Service wires the pipeline components together. One instance serves all
// requests; the session store is its only shared mutable state.
type Service struct {
	store     session.Store
	provider  provider.Provider
	extractor extract.Extractor
	retriever retriever.Retriever
	embedding *embedding.Embedding

	chunkSize      int
	chunkOverlap   int
	sessionTimeout time.Duration
	logger         *log.Logger
}

func NewService(store session.Store, prov provider.Provider, ext extract.Extractor,
	chunkSize, chunkOverlap int, sessionTimeout time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[RAG] ", log.LstdFlags)
	}
	emb := embedding.NewEmbedding(prov)
	return &Service{
		store:          store,
		provider:       prov,
		extractor:      ext,
		retriever:      retriever.NewRetriever(store, emb),
		embedding:      emb,
		chunkSize:      chunkSize,
		chunkOverlap:   chunkOverlap,
		sessionTimeout: sessionTimeout,
		logger:         logger,
	}
}

// IngestPDF extracts, chunks, embeds and indexes the PDF at path, creating a
// fresh session. sourceName is the client-supplied filename, used only as
// chunk metadata, never as a filesystem path. The caller owns deletion of
// the temporary file.
func (s *Service) IngestPDF(ctx context.Context, path, sourceName string) (string, int, error) {
	pages, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return "", 0, err
	}

	chunks, err := chunk.SplitPages(pages, sourceName, s.chunkSize, s.chunkOverlap)
	if err != nil {
		return "", 0, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := s.embedding.EmbedMany(ctx, texts)
	if err != nil {
		return "", 0, fmt.Errorf("embedding chunks: %w", err)
	}

	index, err := docindex.Build(chunks, vecs)
	if err != nil {
		return "", 0, fmt.Errorf("building index: %w", err)
	}

	id := s.store.Create(index, sourceName)
	s.logger.Printf("indexed %q: %d pages, %d chunks, session %s", sourceName, len(pages), len(chunks), id)
	return id, len(pages), nil
}

// AskResult is the answer plus its deduplicated, ordered citations.
type AskResult struct {
	Answer    string
	Citations []Citation
}

// Ask answers a question against one or more sessions. Expired sessions are
// swept first, then every surviving referenced session is touched.
func (s *Service) Ask(ctx context.Context, question string, sessionIDs []string) (AskResult, error) {
	s.store.Sweep(s.sessionTimeout)

	if len(sessionIDs) == 0 {
		return AskResult{Answer: MsgNoSession, Citations: []Citation{}}, nil
	}
	s.touchAll(sessionIDs)

	items, err := s.retriever.Retrieve(ctx, sessionIDs, question, retriever.AskK)
	if err != nil {
		return AskResult{}, fmt.Errorf("retrieval: %w", err)
	}
	if len(items) == 0 {
		return AskResult{Answer: MsgNoContext, Citations: []Citation{}}, nil
	}

	prompt := BuildAskPrompt(items, question)
	raw, err := s.provider.Generate(ctx, prompt, askMaxNewTokens)
	if err != nil {
		return AskResult{}, fmt.Errorf("generation: %w", err)
	}

	return AskResult{
		Answer:    Clean(TaskAnswer, raw, prompt),
		Citations: AssembleCitations(items),
	}, nil
}

// Summarize produces a concise summary over the referenced sessions.
func (s *Service) Summarize(ctx context.Context, sessionIDs []string) (string, error) {
	s.store.Sweep(s.sessionTimeout)

	if len(sessionIDs) == 0 {
		return MsgNoSession, nil
	}
	s.touchAll(sessionIDs)

	items, err := s.retriever.Retrieve(ctx, sessionIDs, summarizeQuery, retriever.SummarizeK)
	if err != nil {
		return "", fmt.Errorf("retrieval: %w", err)
	}
	if len(items) == 0 {
		return MsgNoDocuments, nil
	}

	prompt := BuildSummarizePrompt(items)
	raw, err := s.provider.Generate(ctx, prompt, summarizeMaxNewTokens)
	if err != nil {
		return "", fmt.Errorf("generation: %w", err)
	}
	return Clean(TaskSummary, raw, prompt), nil
}

// Compare retrieves context from every session and synthesizes a single
// cross-document comparison. Requires at least two session ids; that check
// happens before any retrieval.
func (s *Service) Compare(ctx context.Context, sessionIDs []string) (string, error) {
	s.store.Sweep(s.sessionTimeout)

	if len(sessionIDs) < 2 {
		return MsgNeedTwoDocs, nil
	}
	s.touchAll(sessionIDs)

	items, err := s.retriever.Retrieve(ctx, sessionIDs, compareQuery, retriever.AskK)
	if err != nil {
		return "", fmt.Errorf("retrieval: %w", err)
	}
	if len(items) == 0 {
		return MsgNoContext, nil
	}

	prompt := BuildComparePrompt(items)
	raw, err := s.provider.Generate(ctx, prompt, compareMaxNewTokens)
	if err != nil {
		return "", fmt.Errorf("generation: %w", err)
	}
	return Clean(TaskComparison, raw, prompt), nil
}

func (s *Service) touchAll(sessionIDs []string) {
	for _, id := range sessionIDs {
		s.store.Touch(id)
	}
}
