package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/utils"
)

const (
	provider     = "gemini"
	defaultModel = "gemini-2.5-flash"

	roleUser  = "user"
	roleModel = "model"

	defaultMaxLogLength = 200
	retryBackoff        = 2 * time.Second
	// Quota errors asking to wait longer than this are returned immediately.
	maxQuotaWait = 10 * time.Second
)

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?) ?s`)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := c.chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Generator is a completion gateway backed by the Google GenAI chat API.
type Generator struct {
	chats       chatCreator
	model       string
	maxAttempts int
	maxLogLen   int
	logger      *zap.Logger
	wait        func(ctx context.Context, d time.Duration) error
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
// maxAttempts below 1 means a single attempt.
func NewGenerator(ctx context.Context, apiKey, model string, maxAttempts, maxLogLength int, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Generator{
		chats:       genaiChats{chats: client.Chats},
		model:       model,
		maxAttempts: maxAttempts,
		maxLogLen:   maxLogLength,
		logger:      logger.WithCommonFields(log, provider, model),
	}, nil
}

// Complete sends the transcript to Gemini. System messages become the system instruction,
// earlier turns become chat history and the final user message is sent.
func (g *Generator) Complete(ctx context.Context, messages []ai.Message) (*ai.Completion, error) {
	if g == nil || g.chats == nil {
		return nil, errors.New("gemini generator is not initialized")
	}

	system, history, last, err := splitTranscript(messages)
	if err != nil {
		return nil, err
	}

	var config *genai.GenerateContentConfig
	if system != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		}
	}

	g.log().Debug("gemini chat request",
		zap.Int("transcript_length", len(messages)),
		zap.Int("message_length", utf8.RuneCountInString(last)),
		zap.String("message_preview", utils.TruncateForLog(last, g.logLen())),
	)

	resp, err := g.send(ctx, config, history, last)
	if err != nil {
		return nil, err
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	if resp.UsageMetadata == nil {
		return nil, errors.New("gemini api returned no usage metadata")
	}

	completion := &ai.Completion{Text: text, TotalTokens: int(resp.UsageMetadata.TotalTokenCount)}

	g.log().Debug("gemini chat response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, g.logLen())),
		zap.Int("total_tokens", completion.TotalTokens),
	)

	return completion, nil
}

func (g *Generator) send(ctx context.Context, config *genai.GenerateContentConfig, history []*genai.Content, message string) (*genai.GenerateContentResponse, error) {
	attempts := g.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	wait := g.wait
	if wait == nil {
		wait = utils.WaitFor
	}

	for attempt := 1; ; attempt++ {
		chat, err := g.chats.Create(ctx, g.model, config, history)
		if err != nil {
			return nil, fmt.Errorf("create chat: %w", err)
		}

		resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
		if err == nil {
			return resp, nil
		}

		delay, retryable := retryDelay(err, attempt)
		if !retryable || attempt >= attempts {
			return nil, fmt.Errorf("send message: %w", err)
		}

		g.log().Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return nil, fmt.Errorf("waiting before retry: %w", err)
		}
	}
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) log() *zap.Logger {
	if g.logger == nil {
		return zap.NewNop()
	}
	return g.logger
}

func (g *Generator) logLen() int {
	if g.maxLogLen <= 0 {
		return defaultMaxLogLength
	}
	return g.maxLogLen
}

func splitTranscript(messages []ai.Message) (string, []*genai.Content, string, error) {
	if len(messages) == 0 {
		return "", nil, "", errors.New("transcript must not be empty")
	}

	last := messages[len(messages)-1]
	if last.Role != ai.RoleUser {
		return "", nil, "", fmt.Errorf("last transcript message must come from the user, got %q", last.Role)
	}
	if strings.TrimSpace(last.Content) == "" {
		return "", nil, "", errors.New("user message must not be empty")
	}

	var (
		system  []string
		history []*genai.Content
	)
	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case ai.RoleSystem:
			system = append(system, m.Content)
		case ai.RoleUser:
			history = append(history, &genai.Content{Role: roleUser, Parts: []*genai.Part{{Text: m.Content}}})
		case ai.RoleAssistant:
			history = append(history, &genai.Content{Role: roleModel, Parts: []*genai.Part{{Text: m.Content}}})
		default:
			return "", nil, "", fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	return strings.Join(system, "\n\n"), history, last.Content, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned no response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
		// Only the first candidate carries the chat reply.
		if builder.Len() > 0 {
			break
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// retryDelay reports whether err is worth another attempt and how long to wait first.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if d, ok := parseRetryAfter(apiErr.Message); ok {
			if d > maxQuotaWait {
				return 0, false
			}
			return d, true
		}
		return retryBackoff * time.Duration(attempt), true
	case apiErr.Code >= http.StatusInternalServerError:
		return retryBackoff * time.Duration(attempt), true
	default:
		return 0, false
	}
}

func parseRetryAfter(message string) (time.Duration, bool) {
	m := retryAfterPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}
