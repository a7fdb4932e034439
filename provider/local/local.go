// Package local_provider talks to a self-hosted inference sidecar that loads
// one HuggingFace model and exposes generate/embed endpoints over HTTP.
package local_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client implements the provider interface against the local sidecar. The
// sidecar runs a single loaded model instance, so generation requests are
// serialized with a mutex rather than issued in parallel.
type Client struct {
	baseURL        string
	model          string
	embeddingModel string
	maxInputTokens int
	httpClient     *http.Client

	encoderDecoder bool
	genMu          sync.Mutex
}

type infoResponse struct {
	ModelID          string `json:"model_id"`
	IsEncoderDecoder bool   `json:"is_encoder_decoder"`
}

type generateRequest struct {
	Model      string             `json:"model"`
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxNewTokens int  `json:"max_new_tokens"`
	Truncate     int  `json:"truncate,omitempty"`
	DoSample     bool `json:"do_sample"`
}

type generateResponse struct {
	GeneratedText string `json:"generated_text"`
	Error         string `json:"error,omitempty"`
}

type embedRequest struct {
	Model  string   `json:"model"`
	Inputs []string `json:"inputs"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// NewClient creates a client for the local inference sidecar. The model
// family (encoder-decoder vs decoder-only) is probed once at startup; it
// decides how generated output is decoded on every later call.
func NewClient(baseURL, model, embeddingModel string, maxInputTokens int, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:8081"
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		model:          model,
		embeddingModel: embeddingModel,
		maxInputTokens: maxInputTokens,
		httpClient:     &http.Client{Timeout: timeout},
	}

	info, err := c.fetchInfo(context.Background())
	if err != nil {
		return nil, fmt.Errorf("probing model info: %w", err)
	}
	c.encoderDecoder = info.IsEncoderDecoder
	return c, nil
}

func (c *Client) fetchInfo(ctx context.Context) (*infoResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/info", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sidecar returned status %d", resp.StatusCode)
	}
	var info infoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding info response: %w", err)
	}
	return &info, nil
}

// Generate runs greedy decoding on the sidecar. Input is truncated server-side
// to maxInputTokens to bound latency and memory. Decoder-only models return
// the prompt followed by the continuation, so the echoed prompt is stripped;
// encoder-decoder models return only the target sequence.
func (c *Client) Generate(ctx context.Context, prompt string, maxNewTokens int) (string, error) {
	c.genMu.Lock()
	defer c.genMu.Unlock()

	reqBody := generateRequest{
		Model:  c.model,
		Inputs: prompt,
		Parameters: generateParameters{
			MaxNewTokens: maxNewTokens,
			Truncate:     c.maxInputTokens,
			DoSample:     false,
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling sidecar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sidecar returned status %d", resp.StatusCode)
	}
	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if genResp.Error != "" {
		return "", fmt.Errorf("sidecar error: %s", genResp.Error)
	}

	if c.encoderDecoder {
		return genResp.GeneratedText, nil
	}
	return strings.TrimPrefix(genResp.GeneratedText, prompt), nil
}

// CreateEmbedding embeds the given texts with the sidecar's embedding model.
func (c *Client) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embedRequest{Model: c.embeddingModel, Inputs: texts}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/embed", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling sidecar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sidecar returned status %d", resp.StatusCode)
	}
	var embResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if embResp.Error != "" {
		return nil, fmt.Errorf("sidecar error: %s", embResp.Error)
	}
	if len(embResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("sidecar returned %d embeddings for %d inputs", len(embResp.Embeddings), len(texts))
	}
	return embResp.Embeddings, nil
}
