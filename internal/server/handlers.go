package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/docsage/docsage/internal/rag"
)

// Pipeline is the slice of the RAG service the handlers need. Kept as an
// interface so handler tests can stub the model-backed pipeline out.
type Pipeline interface {
	IngestPDF(ctx context.Context, path, sourceName string) (string, int, error)
	Ask(ctx context.Context, question string, sessionIDs []string) (rag.AskResult, error)
	Summarize(ctx context.Context, sessionIDs []string) (string, error)
	Compare(ctx context.Context, sessionIDs []string) (string, error)
}

type Handler struct {
	Pipeline  Pipeline
	UploadDir string
	Logger    *log.Logger
}

// upload accepts a multipart PDF, stages it under a server-controlled path
// derived only from a random token, runs ingestion, and deletes the staged
// file on every exit path.
func (h *Handler) upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "missing file field"})
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		uploadsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "Only PDF files are supported"})
	}

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "Upload failed: cannot stage upload"})
	}

	// The staged filename comes from a fresh random token only; the
	// client-supplied name never reaches the filesystem.
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	path := filepath.Join(h.UploadDir, token+".pdf")
	if !pathWithin(h.UploadDir, path) {
		uploadsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "Upload failed: invalid file path"})
	}

	src, err := file.Open()
	if err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "Upload failed: " + err.Error()})
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "Upload failed: " + err.Error()})
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			h.Logger.Printf("failed to delete staged upload %s: %v", path, err)
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		uploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "Upload failed: " + err.Error()})
	}
	if err := dst.Close(); err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "Upload failed: " + err.Error()})
	}

	sessionID, pageCount, err := h.Pipeline.IngestPDF(c.Request().Context(), path, file.Filename)
	if err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "Upload failed: " + err.Error()})
	}

	uploadsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, UploadResponse{
		Message:   "PDF uploaded and processed",
		SessionID: sessionID,
		PageCount: pageCount,
	})
}

func (h *Handler) ask(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		queriesTotal.WithLabelValues("ask", "error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Question) == "" {
		queriesTotal.WithLabelValues("ask", "error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "question is required"})
	}

	start := time.Now()
	result, err := h.Pipeline.Ask(c.Request().Context(), req.Question, req.SessionIDs)
	pipelineSeconds.WithLabelValues("ask").Observe(time.Since(start).Seconds())
	if err != nil {
		h.Logger.Printf("ask failed: %v", err)
		queriesTotal.WithLabelValues("ask", "error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "generation failed"})
	}

	queriesTotal.WithLabelValues("ask", "ok").Inc()
	return c.JSON(http.StatusOK, AskResponse{Answer: result.Answer, Citations: result.Citations})
}

func (h *Handler) summarize(c echo.Context) error {
	var req SummarizeRequest
	if err := c.Bind(&req); err != nil {
		queriesTotal.WithLabelValues("summarize", "error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "invalid request body"})
	}

	start := time.Now()
	summary, err := h.Pipeline.Summarize(c.Request().Context(), req.SessionIDs)
	pipelineSeconds.WithLabelValues("summarize").Observe(time.Since(start).Seconds())
	if err != nil {
		h.Logger.Printf("summarize failed: %v", err)
		queriesTotal.WithLabelValues("summarize", "error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "generation failed"})
	}

	queriesTotal.WithLabelValues("summarize", "ok").Inc()
	return c.JSON(http.StatusOK, SummarizeResponse{Summary: summary})
}

func (h *Handler) compare(c echo.Context) error {
	var req CompareRequest
	if err := c.Bind(&req); err != nil {
		queriesTotal.WithLabelValues("compare", "error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "invalid request body"})
	}

	start := time.Now()
	comparison, err := h.Pipeline.Compare(c.Request().Context(), req.SessionIDs)
	pipelineSeconds.WithLabelValues("compare").Observe(time.Since(start).Seconds())
	if err != nil {
		h.Logger.Printf("compare failed: %v", err)
		queriesTotal.WithLabelValues("compare", "error").Inc()
		return c.JSON(http.StatusOK, ErrorResponse{Error: "generation failed"})
	}

	queriesTotal.WithLabelValues("compare", "ok").Inc()
	return c.JSON(http.StatusOK, CompareResponse{Comparison: comparison})
}

// pathWithin reports whether path resolves inside dir.
func pathWithin(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(absPath, absDir+string(os.PathSeparator))
}
