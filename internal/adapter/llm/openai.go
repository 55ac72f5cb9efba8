package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"newsrec/internal/domain"
	"newsrec/internal/port"
)

// OpenAIChat calls any OpenAI-compatible /chat/completions endpoint.
type OpenAIChat struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	client      *http.Client
	log         zerolog.Logger
}

type chatRequest struct {
	Model       string         `json:"model"`
	Messages    []port.Message `json:"messages"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Temperature float64        `json:"temperature,omitempty"`
	Stream      bool           `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message      port.Message `json:"message"`
	FinishReason string       `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func NewDeepSeekChat(apiKeyEnv, model string, maxTokens int, temperature float64, log zerolog.Logger) (*OpenAIChat, error) {
	return NewOpenAICompatibleChat(apiKeyEnv, model, "https://api.deepseek.com/v1", maxTokens, temperature, log)
}

func NewSiliconFlowChat(apiKeyEnv, model string, maxTokens int, temperature float64, log zerolog.Logger) (*OpenAIChat, error) {
	return NewOpenAICompatibleChat(apiKeyEnv, model, "https://api.siliconflow.cn/v1", maxTokens, temperature, log)
}

func NewOpenAIChat(apiKeyEnv, model string, maxTokens int, temperature float64, log zerolog.Logger) (*OpenAIChat, error) {
	return NewOpenAICompatibleChat(apiKeyEnv, model, "https://api.openai.com/v1", maxTokens, temperature, log)
}

func NewOpenAICompatibleChat(apiKeyEnv, model, baseURL string, maxTokens int, temperature float64, log zerolog.Logger) (*OpenAIChat, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}

	if maxTokens <= 0 {
		maxTokens = 2000
	}

	return &OpenAIChat{
		apiKey:      apiKey,
		model:       model,
		baseURL:     baseURL,
		maxTokens:   maxTokens,
		temperature: temperature,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		log: log.With().Str("component", "chat").Logger(),
	}, nil
}

// Complete sends a non-streaming completion request and returns the first
// choice's content.
func (c *OpenAIChat) Complete(ctx context.Context, messages []port.Message, opts port.CompletionOptions) (string, error) {
	body, err := c.do(ctx, messages, opts, false)
	if err != nil {
		return "", err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", &domain.ServiceError{Op: "complete", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &domain.ServiceError{Op: "complete", Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if resp.Error != nil {
		return "", &domain.ServiceError{Op: "complete", Err: fmt.Errorf("API error: %s", resp.Error.Message)}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.ServiceError{Op: "complete", Err: fmt.Errorf("response contained no choices")}
	}

	c.log.Debug().
		Str("model", c.resolveModel(opts)).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("completion finished")

	return resp.Choices[0].Message.Content, nil
}

// Stream sends a streaming completion request and forwards content deltas.
// The channel is finite: it closes on [DONE], stream end, or ctx cancellation.
func (c *OpenAIChat) Stream(ctx context.Context, messages []port.Message, opts port.CompletionOptions) (<-chan string, error) {
	body, err := c.do(ctx, messages, opts, true)
	if err != nil {
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case out <- chunk.Choices[0].Delta.Content:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (c *OpenAIChat) do(ctx context.Context, messages []port.Message, opts port.CompletionOptions, stream bool) (io.ReadCloser, error) {
	reqBody := chatRequest{
		Model:       c.resolveModel(opts),
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      stream,
	}
	if opts.MaxTokens > 0 {
		reqBody.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		reqBody.Temperature = opts.Temperature
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.ServiceError{Op: "complete", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		preview := string(body)
		if len(preview) > 500 {
			preview = preview[:500]
		}
		return nil, &domain.ServiceError{Op: "complete", Err: fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview)}
	}

	return resp.Body, nil
}

func (c *OpenAIChat) resolveModel(opts port.CompletionOptions) string {
	if opts.Model != "" {
		return opts.Model
	}
	return c.model
}

func (c *OpenAIChat) ModelName() string {
	return c.model
}
