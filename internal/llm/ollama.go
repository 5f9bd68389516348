package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"opencodex/internal/logging"
)

// DefaultTimeout bounds non-streaming requests (tags, version, blocking chat).
const DefaultTimeout = 120 * time.Second

// maxStreamLineBytes sizes the scanner buffer for NDJSON stream lines.
// A single chunk can carry a large tool-call payload.
const maxStreamLineBytes = 1 << 20

// OllamaClient talks to a local Ollama server over HTTP.
type OllamaClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

var _ Client = (*OllamaClient)(nil)

// NewOllamaClient creates a client for the given base URL.
// The URL may be given with or without the legacy /api suffix.
func NewOllamaClient(baseURL string, timeout time.Duration) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/api")
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &OllamaClient{
		baseURL: baseURL,
		timeout: timeout,
		// No transport-level timeout: streamed generations can be slow and
		// are bounded by the caller's context instead.
		httpClient: &http.Client{},
	}
}

// BaseURL returns the normalized server URL.
func (c *OllamaClient) BaseURL() string { return c.baseURL }

type chatPayload struct {
	Model    string           `json:"model"`
	Messages []Message        `json:"messages"`
	Stream   bool             `json:"stream"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Options  map[string]any   `json:"options,omitempty"`
}

type chatChunk struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

func buildPayload(req ChatRequest, stream bool) chatPayload {
	options := map[string]any{}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if len(options) == 0 {
		options = nil
	}

	return chatPayload{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   stream,
		Tools:    req.Tools,
		Options:  options,
	}
}

// Chat performs a blocking completion and returns the final message.
func (c *OllamaClient) Chat(ctx context.Context, req ChatRequest) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(buildPayload(req, false))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	logging.APIDebug("chat model=%s messages=%d tools=%d", req.Model, len(req.Messages), len(req.Tools))

	resp, err := c.post(ctx, "/api/chat", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var chunk chatChunk
	if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if chunk.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", chunk.Error)
	}

	logging.API("chat completed model=%s content=%d bytes tool_calls=%d",
		req.Model, len(chunk.Message.Content), len(chunk.Message.ToolCalls))
	return &chunk.Message, nil
}

// ChatStream performs a streaming completion, handing each NDJSON chunk to fn.
func (c *OllamaClient) ChatStream(ctx context.Context, req ChatRequest, fn func(Chunk) error) error {
	body, err := json.Marshal(buildPayload(req, true))
	if err != nil {
		return fmt.Errorf("failed to marshal chat request: %w", err)
	}

	logging.APIDebug("chat stream model=%s messages=%d tools=%d", req.Model, len(req.Messages), len(req.Tools))

	resp, err := c.post(ctx, "/api/chat", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxStreamLineBytes)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk chatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Partial or garbled line; the stream usually recovers.
			logging.APIDebug("skipping malformed stream line: %v", err)
			continue
		}
		if chunk.Error != "" {
			return fmt.Errorf("ollama error: %s", chunk.Error)
		}

		if err := fn(Chunk{
			Content:   chunk.Message.Content,
			ToolCalls: chunk.Message.ToolCalls,
			Done:      chunk.Done,
		}); err != nil {
			return err
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("stream read failed: %w", err)
	}
	return nil
}

// ListModels returns the models known to the server.
func (c *OllamaClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}
	return result.Models, nil
}

// Version returns the server version.
func (c *OllamaClient) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/version", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var result struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode version: %w", err)
	}
	return result.Version, nil
}

func (c *OllamaClient) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
}
