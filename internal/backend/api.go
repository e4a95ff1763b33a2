package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// maxResponseSize prevents OOM on unexpectedly large API responses (10MB).
	maxResponseSize = 10 * 1024 * 1024

	// maxErrorBodyLen limits error body in error messages to avoid log bloat.
	maxErrorBodyLen = 500

	// anthropicVersion is the API version header value.
	anthropicVersion = "2023-06-01"

	// probeModel keeps the availability probe cheap.
	probeModel = "claude-3-5-haiku-latest"
)

// messagesRequest is the JSON body of one networked call: a single user
// message plus sampling parameters.
type messagesRequest struct {
	Model       string            `json:"model"`
	MaxTokens   int               `json:"max_tokens"`
	Messages    []messagesMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse carries the ordered content blocks of the reply.
type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// apiChannel invokes the generative service over HTTP. The credential is
// sent as x-api-key when it is an API key and as a bearer token otherwise.
type apiChannel struct {
	endpoint    string
	apiKey      string
	bearerToken string
	timeout     time.Duration

	// httpClient overrides the default client in tests.
	httpClient *http.Client
}

func newAPIChannel(endpoint, apiKey, bearerToken string, timeout time.Duration) *apiChannel {
	return &apiChannel{
		endpoint:    endpoint,
		apiKey:      apiKey,
		bearerToken: bearerToken,
		timeout:     timeout,
	}
}

func (a *apiChannel) name() string { return "api" }

// hasCredential reports whether any credential is configured at all.
func (a *apiChannel) hasCredential() bool {
	return a.apiKey != "" || a.bearerToken != ""
}

// probe sends a minimal authenticated request. A response that gets past
// authentication proves the channel usable; auth rejections and transport
// failures do not.
func (a *apiChannel) probe(ctx context.Context) error {
	if !a.hasCredential() {
		return ErrMissingCredential
	}

	status, _, err := a.post(ctx, Request{Prompt: "ping", Model: probeModel, MaxTokens: 1})
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("networked channel rejected credential: status %d", status)
	}
	if status >= 500 {
		return fmt.Errorf("networked channel unhealthy: status %d", status)
	}
	return nil
}

// invoke performs one generation call and returns the first text block of
// the ordered response content.
func (a *apiChannel) invoke(ctx context.Context, req Request) (string, error) {
	if !a.hasCredential() {
		return "", ErrMissingCredential
	}

	start := time.Now()
	status, body, err := a.post(ctx, req)
	if err != nil {
		return "", err
	}

	if status != http.StatusOK {
		errBody := string(body)
		if len(errBody) > maxErrorBodyLen {
			errBody = errBody[:maxErrorBodyLen] + "... (truncated)"
		}
		return "", fmt.Errorf("networked channel returned status %d: %s", status, errBody)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse networked channel response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("networked channel error: %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	for _, block := range parsed.Content {
		if block.Type == "text" {
			log.Debug().
				Dur("duration", time.Since(start)).
				Int("response_bytes", len(body)).
				Msg("networked channel call complete")
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("networked channel response contained no text block")
}

// post sends one Messages API request and returns the status code and the
// fully read body. The timeout rides on the context, not the client.
func (a *apiChannel) post(ctx context.Context, req Request) (int, []byte, error) {
	body, err := json.Marshal(messagesRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Messages:    []messagesMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal networked channel request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create networked channel request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	if a.apiKey != "" {
		httpReq.Header.Set("x-api-key", a.apiKey)
	} else {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.bearerToken))
	}

	client := a.httpClient
	if client == nil {
		client = &http.Client{} // timeout via context, not client
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("networked channel request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read networked channel response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
