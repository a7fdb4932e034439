// Package extract wraps the PDF text-extraction sidecar. The sidecar reads a
// PDF and returns page-tagged raw text; everything past that boundary (OCR,
// parsing libraries) is its problem, not ours.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrExtraction marks failures reported by or while reaching the sidecar.
var ErrExtraction = errors.New("extraction failed")

// Page is one page of extracted text. Number is 0-indexed, as reported by
// the extractor; conversion to 1-indexed happens at citation time only.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Extractor produces page-tagged text from a PDF on disk.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]Page, error)
}

// Service calls the extraction sidecar over HTTP.
type Service struct {
	baseURL    string
	httpClient *http.Client
}

// NewService creates an extractor client for the given sidecar URL.
func NewService(baseURL string, timeout time.Duration) *Service {
	if baseURL == "" {
		baseURL = "http://localhost:8082"
	}
	return &Service{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type extractResponse struct {
	Pages []Page `json:"pages"`
	Error string `json:"error,omitempty"`
}

// Extract reads the PDF at path and posts its bytes to the sidecar.
func (s *Service) Extract(ctx context.Context, path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrExtraction, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/extract", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrExtraction, err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling sidecar: %v", ErrExtraction, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: sidecar returned status %d", ErrExtraction, resp.StatusCode)
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrExtraction, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrExtraction, out.Error)
	}
	return out.Pages, nil
}
