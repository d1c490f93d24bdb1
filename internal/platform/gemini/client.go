package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/vici-backend/internal/platform/httpx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-1.5-flash"
	DefaultTimeout = 60 * time.Second
)

var (
	ErrRateLimited = errors.New("ai provider rate limit exceeded")
	ErrEmptyOutput = errors.New("ai provider returned no content")
	ErrUnavailable = errors.New("ai provider unavailable")
)

// Client turns a prompt into generated text.
type Client interface {
	GenerateText(ctx context.Context, system, user string) (string, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float32
}

type client struct {
	log *logger.Logger
	api *openai.Client
	cfg Config
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &client{
		log: log.With("client", "GeminiClient"),
		api: openai.NewClientWithConfig(apiCfg),
		cfg: cfg,
	}, nil
}

func (c *client) GenerateText(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	var out string
	retry := httpx.Retry{
		MaxRetries: c.cfg.MaxRetries,
		Base:       time.Second,
		// A 429 means the quota is spent; another attempt inside this request
		// will not see it refilled.
		Final: func(err error) bool { return errors.Is(err, ErrRateLimited) },
		OnRetry: func(attempt int, wait time.Duration, err error) {
			c.log.Warn("Generation retrying", "attempt", attempt, "sleep", wait.String(), "error", err.Error())
		},
	}
	err := retry.Do(ctx, func(ctx context.Context) (time.Duration, error) {
		start := time.Now()
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return 0, classify(err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return 0, ErrEmptyOutput
		}
		c.log.Debug("Generation complete",
			"model", c.cfg.Model,
			"duration_ms", time.Since(start).Milliseconds(),
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
		)
		out = resp.Choices[0].Message.Content
		return 0, nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string       { return e.err.Error() }
func (e *statusError) Unwrap() error       { return e.err }
func (e *statusError) HTTPStatusCode() int { return e.status }

// classify maps go-openai errors onto our sentinels and keeps the HTTP status
// visible to httpx.Transient.
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusTooManyRequests || isQuotaMessage(err.Error()) {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	if status != 0 {
		return &statusError{status: status, err: err}
	}
	return err
}

func isQuotaMessage(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "resource_exhausted") || strings.Contains(m, "quota")
}

// Unavailable returns a Client whose calls fail with cause.
func Unavailable(cause error) Client {
	return unavailable{cause: cause}
}

type unavailable struct{ cause error }

func (u unavailable) GenerateText(context.Context, string, string) (string, error) {
	if u.cause == nil {
		return "", ErrUnavailable
	}
	return "", fmt.Errorf("%w: %v", ErrUnavailable, u.cause)
}
