package agents

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Completion is a single text-generation request.
type Completion struct {
	System      string
	Prompt      string
	Temperature float64
}

// Delta is one element of a streaming completion. The sequence is
// finite and strictly ordered; exactly one terminal element is
// delivered, carrying either Done=true or a non-nil Err.
type Delta struct {
	Token string
	Done  bool
	Err   error
}

// Backend abstracts the text generation service the agents run on.
type Backend interface {
	// Complete returns the full generated text, or an error. Never partial.
	Complete(ctx context.Context, req Completion) (string, error)

	// Stream returns a channel of token deltas followed by one terminal
	// delta. The channel is closed after the terminal delta.
	Stream(ctx context.Context, req Completion) <-chan Delta
}

// OpenAIBackend talks to an OpenAI-compatible chat completions API.
type OpenAIBackend struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// BackendConfig holds backend configuration.
type BackendConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Logger  *zap.Logger
}

// NewOpenAIBackend creates a backend for an OpenAI-compatible API.
func NewOpenAIBackend(cfg *BackendConfig) *OpenAIBackend {
	return &OpenAIBackend{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		// No client timeout: generation length is the provider's business.
		httpClient: &http.Client{},
		logger:     cfg.Logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Complete performs a blocking chat completion.
func (b *OpenAIBackend) Complete(ctx context.Context, req Completion) (string, error) {
	start := time.Now()

	resp, err := b.post(ctx, req, false)
	if err != nil {
		CompletionRequestsTotal.WithLabelValues("complete", "error").Inc()
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		CompletionRequestsTotal.WithLabelValues("complete", "error").Inc()
		return "", fmt.Errorf("read completion response: %w", err)
	}

	var parsed chatResponse
	err = json.Unmarshal(body, &parsed)
	if err != nil {
		CompletionRequestsTotal.WithLabelValues("complete", "error").Inc()
		return "", fmt.Errorf("decode completion response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		CompletionRequestsTotal.WithLabelValues("complete", "error").Inc()
		return "", fmt.Errorf("completion response has no choices")
	}

	CompletionRequestsTotal.WithLabelValues("complete", "ok").Inc()
	CompletionDurationSeconds.Observe(time.Since(start).Seconds())

	return parsed.Choices[0].Message.Content, nil
}

// Stream performs a streaming chat completion, forwarding each token
// as it arrives.
func (b *OpenAIBackend) Stream(ctx context.Context, req Completion) <-chan Delta {
	out := make(chan Delta, 64)

	go func() {
		defer close(out)
		start := time.Now()

		resp, err := b.post(ctx, req, true)
		if err != nil {
			CompletionRequestsTotal.WithLabelValues("stream", "error").Inc()
			out <- Delta{Err: err}
			return
		}
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}

			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				break
			}

			var chunk chatStreamChunk
			err = json.Unmarshal([]byte(data), &chunk)
			if err != nil {
				// Skip malformed keepalive frames rather than killing the stream.
				b.logger.Debug("skipping-malformed-stream-frame", zap.String("frame", data))
				continue
			}

			if len(chunk.Choices) == 0 {
				continue
			}

			token := chunk.Choices[0].Delta.Content
			if token == "" {
				continue
			}

			TokensStreamedTotal.Inc()
			out <- Delta{Token: token}
		}

		err = scanner.Err()
		if err != nil {
			CompletionRequestsTotal.WithLabelValues("stream", "error").Inc()
			out <- Delta{Err: fmt.Errorf("read completion stream: %w", err)}
			return
		}

		CompletionRequestsTotal.WithLabelValues("stream", "ok").Inc()
		CompletionDurationSeconds.Observe(time.Since(start).Seconds())
		out <- Delta{Done: true}
	}()

	return out
}

func (b *OpenAIBackend) post(ctx context.Context, req Completion, stream bool) (*http.Response, error) {
	payload := chatRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: req.Temperature,
		Stream:      stream,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("completion API status %d: %s", resp.StatusCode, string(msg))
	}

	return resp, nil
}
