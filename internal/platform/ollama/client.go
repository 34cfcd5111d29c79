package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/orio/graphbook-backend/internal/pkg/errs"
	"github.com/orio/graphbook-backend/internal/platform/logger"
)

// Client is the similarity-scoring oracle. One request per Score call, no
// retry, no batching; a malformed model response surfaces as *errs.ParseError
// so callers can skip the item without aborting their batch.
type Client interface {
	Score(ctx context.Context, text string, concept string) (ScoreResult, error)
}

// ScoreResult is the parsed oracle judgment for one (text, concept) pair.
// Score is requested in 0-100 but the model is untrusted; out-of-range values
// are returned as-is.
type ScoreResult struct {
	Analysis string  `json:"analysis"`
	Score    float64 `json:"score"`
}

const (
	systemRole = "Act as a similarity score calculator based on meaning. Return the score as double in range 0-100. The score is an indicator of how much the meaning of the text matches the concept provided."

	systemFormat = `Respond in the following json format: {"analysis": "Brief 3 sentence analysis of the meaning of the text", "score": "Similarity Score in range (0.0-100.0)"}`
)

type client struct {
	log        *logger.Logger
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("ollama: logger required")
	}

	baseURL := strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("OLLAMA_MODEL"))
	if model == "" {
		model = "llama3"
	}

	timeoutSec := 120
	if v := strings.TrimSpace(os.Getenv("OLLAMA_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	return &client{
		log:        log.With("client", "Ollama"),
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Format   string        `json:"format"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

func (c *client) Score(ctx context.Context, text string, concept string) (ScoreResult, error) {
	req := chatRequest{
		Model:  c.model,
		Format: "json",
		Stream: false,
		Messages: []chatMessage{
			{Role: "system", Content: systemRole},
			{Role: "system", Content: systemFormat},
			{Role: "user", Content: fmt.Sprintf("TEXT:\"\"\"%s\"\"\"\n\nConcept: \"%s\"", text, concept)},
		},
	}

	var resp chatResponse
	if err := c.do(ctx, "/api/chat", &req, &resp); err != nil {
		return ScoreResult{}, err
	}

	content := resp.Message.Content
	c.log.Debug("Received oracle response", "content", content)

	var result ScoreResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return ScoreResult{}, &errs.ParseError{Raw: content, Err: err}
	}
	return result, nil
}

func (c *client) do(ctx context.Context, path string, body any, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama: %s: %w", path, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("ollama: read response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return fmt.Errorf("ollama: %s: status=%d body=%s", path, httpResp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &errs.ParseError{Raw: string(raw), Err: err}
	}
	return nil
}
