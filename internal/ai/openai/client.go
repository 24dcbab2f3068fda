package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/utils"
)

const (
	provider       = "openai"
	defaultModel   = "gpt-3.5-turbo"
	defaultBaseURL = "https://api.openai.com/v1"

	completionsPath     = "/chat/completions"
	defaultMaxLogLength = 200
	// Error bodies beyond this size are cut before being put into errors.
	maxErrorBody = 4 << 10
)

// Config describes an OpenAI compatible chat completions endpoint.
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	MaxLogLength int
}

// Client is a completion gateway speaking the chat completions protocol.
type Client struct {
	HTTPClient *http.Client

	apiKey    string
	model     string
	baseURL   string
	maxLogLen int
	logger    *zap.Logger
}

type chatRequest struct {
	Model    string       `json:"model"`
	Messages []ai.Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Client{
		// Deadlines come from the request context.
		HTTPClient: &http.Client{},
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		maxLogLen:  maxLogLen,
		logger:     logger.WithCommonFields(log, provider, model),
	}, nil
}

func (c *Client) Model() string { return c.model }

// Complete posts the whole transcript and returns the first choice.
func (c *Client) Complete(ctx context.Context, messages []ai.Message) (*ai.Completion, error) {
	if len(messages) == 0 {
		return nil, errors.New("transcript must not be empty")
	}

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	last := messages[len(messages)-1].Content
	c.logger.Debug("openai chat request",
		zap.Int("transcript_length", len(messages)),
		zap.Int("request_bytes", len(body)),
		zap.String("message_preview", utils.TruncateForLog(last, c.maxLogLen)),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}

	if decoded.Error != nil && decoded.Error.Message != "" {
		return nil, fmt.Errorf("openai error: %s", decoded.Error.Message)
	}

	if len(decoded.Choices) == 0 {
		return nil, errors.New("openai api returned no choices")
	}

	text := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if text == "" {
		return nil, errors.New("openai api returned empty response")
	}

	if decoded.Usage == nil {
		return nil, errors.New("openai api returned no usage")
	}

	completion := &ai.Completion{Text: text, TotalTokens: decoded.Usage.TotalTokens}

	c.logger.Debug("openai chat response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, c.maxLogLen)),
		zap.Int("total_tokens", completion.TotalTokens),
		zap.String("finish_reason", decoded.Choices[0].FinishReason),
	)

	return completion, nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var decoded chatResponse
	if json.Unmarshal(data, &decoded) == nil && decoded.Error != nil && decoded.Error.Message != "" {
		return fmt.Errorf("bad status: %s: %s", resp.Status, decoded.Error.Message)
	}

	return fmt.Errorf("bad status: %s", resp.Status)
}
