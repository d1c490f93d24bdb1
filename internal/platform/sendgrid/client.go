package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/vici-backend/internal/platform/ctxutil"
	"github.com/yungbote/vici-backend/internal/platform/httpx"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

const (
	DefaultBaseURL = "https://api.sendgrid.com"
	sendPath       = "/v3/mail/send"
)

var ErrInvalidMessage = errors.New("sendgrid: invalid message")

// Client delivers transactional mail through the v3 mail/send endpoint.
type Client interface {
	Send(ctx context.Context, msg Message) (*Receipt, error)
}

type Config struct {
	APIKey           string
	BaseURL          string
	DefaultFromEmail string
	DefaultFromName  string
	Timeout          time.Duration
	MaxRetries       int
	// Sandbox asks SendGrid to validate without delivering.
	Sandbox bool
}

type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is one email. Every recipient gets a separate personalization so
// addresses are never disclosed to each other.
type Message struct {
	From       Address
	ReplyTo    *Address
	To         []Address
	Subject    string
	Text       string
	HTML       string
	Categories []string
	// Args become custom_args and come back on SendGrid event webhooks.
	Args map[string]string
}

type Receipt struct {
	Status    int
	MessageID string
}

type client struct {
	log   *logger.Logger
	cfg   Config
	http  *http.Client
	retry httpx.Retry
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.MaxRetries = max(cfg.MaxRetries, 0)

	c := &client{
		log:  log.With("client", "SendGrid"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	c.retry = httpx.Retry{
		MaxRetries: cfg.MaxRetries,
		Base:       time.Second,
		Cap:        10 * time.Second,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			c.log.Warn("Mail send retrying", "attempt", attempt, "sleep", wait.String(), "error", err.Error())
		},
	}
	return c, nil
}

// wire types for POST /v3/mail/send
type (
	envelope struct {
		Personalizations []recipient       `json:"personalizations"`
		From             Address           `json:"from"`
		ReplyTo          *Address          `json:"reply_to,omitempty"`
		Subject          string            `json:"subject"`
		Content          []part            `json:"content"`
		Categories       []string          `json:"categories,omitempty"`
		CustomArgs       map[string]string `json:"custom_args,omitempty"`
		MailSettings     *mailSettings     `json:"mail_settings,omitempty"`
	}
	recipient struct {
		To []Address `json:"to"`
	}
	part struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}
	mailSettings struct {
		SandboxMode toggle `json:"sandbox_mode"`
	}
	toggle struct {
		Enable bool `json:"enable"`
	}
)

// envelopeFor fills defaults and checks the message. Errors wrap
// ErrInvalidMessage.
func (c *client) envelopeFor(msg Message) (*envelope, error) {
	from := msg.From
	if strings.TrimSpace(from.Email) == "" {
		from = Address{Email: c.cfg.DefaultFromEmail, Name: c.cfg.DefaultFromName}
	}
	from.Email = strings.TrimSpace(from.Email)
	if from.Email == "" {
		return nil, fmt.Errorf("%w: no sender (set SENDGRID_FROM_EMAIL)", ErrInvalidMessage)
	}
	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidMessage)
	}

	env := &envelope{
		From:       from,
		ReplyTo:    msg.ReplyTo,
		Subject:    subject,
		Categories: msg.Categories,
		CustomArgs: msg.Args,
	}
	for _, to := range msg.To {
		if strings.TrimSpace(to.Email) == "" {
			continue
		}
		env.Personalizations = append(env.Personalizations, recipient{To: []Address{to}})
	}
	if len(env.Personalizations) == 0 {
		return nil, fmt.Errorf("%w: no recipients", ErrInvalidMessage)
	}

	// text/plain has to precede text/html.
	if s := strings.TrimSpace(msg.Text); s != "" {
		env.Content = append(env.Content, part{Type: "text/plain", Value: s})
	}
	if s := strings.TrimSpace(msg.HTML); s != "" {
		env.Content = append(env.Content, part{Type: "text/html", Value: s})
	}
	if len(env.Content) == 0 {
		return nil, fmt.Errorf("%w: no body", ErrInvalidMessage)
	}
	if c.cfg.Sandbox {
		env.MailSettings = &mailSettings{SandboxMode: toggle{Enable: true}}
	}
	return env, nil
}

func (c *client) Send(ctx context.Context, msg Message) (*Receipt, error) {
	env, err := c.envelopeFor(msg)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}

	var rec *Receipt
	err = c.retry.Do(ctxutil.Default(ctx), func(ctx context.Context) (time.Duration, error) {
		r, wait, err := c.post(ctx, body)
		rec = r
		return wait, err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *client) post(ctx context.Context, body []byte) (*Receipt, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &Receipt{
			Status:    resp.StatusCode,
			MessageID: strings.TrimSpace(resp.Header.Get("X-Message-Id")),
		}, 0, nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return nil, httpx.RetryAfter(resp.Header, time.Now()), decodeAPIError(resp.StatusCode, raw)
}

// APIError is a non-2xx answer from SendGrid.
type APIError struct {
	Status   int
	Messages []string
	Body     string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("sendgrid http %d: %s", e.Status, strings.Join(e.Messages, "; "))
	}
	body := strings.TrimSpace(e.Body)
	switch {
	case body == "":
		body = "<empty body>"
	case len(body) > 512:
		body = body[:512] + "..."
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.Status, body)
}

func (e *APIError) HTTPStatusCode() int { return e.Status }

func decodeAPIError(status int, raw []byte) *APIError {
	out := &APIError{Status: status, Body: string(raw)}
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(raw, &parsed) == nil {
		for _, e := range parsed.Errors {
			if m := strings.TrimSpace(e.Message); m != "" {
				out.Messages = append(out.Messages, m)
			}
		}
	}
	return out
}
