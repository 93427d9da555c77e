// Package completion sends a single prompt to an OpenAI-compatible
// chat-completions endpoint.
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/courier/internal/logging"
	"github.com/sashabaranov/go-openai"
)

// Config holds the endpoint and the sampling parameters sent with every request.
type Config struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIKey           string        `mapstructure:"api_key"`
	Model            string        `mapstructure:"model"`
	MaxTokens        int           `mapstructure:"max_tokens"`
	Temperature      float32       `mapstructure:"temperature"`
	TopP             float32       `mapstructure:"top_p"`
	FrequencyPenalty float32       `mapstructure:"frequency_penalty"`
	N                int           `mapstructure:"n"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns the parameters the service is tuned for.
func DefaultConfig() Config {
	return Config{
		BaseURL:          "https://api.siliconflow.cn/v1",
		Model:            "deepseek-ai/DeepSeek-V3",
		MaxTokens:        1000,
		Temperature:      0.7,
		TopP:             0.7,
		FrequencyPenalty: 0.5,
		N:                1,
		Timeout:          90 * time.Second,
	}
}

// ErrNoAnswer is returned when the response carries no choices.
var ErrNoAnswer = errors.New("no valid answer returned")

// ErrorKind classifies a completion failure.
type ErrorKind string

const (
	// KindAPI: the endpoint answered with a non-200 status.
	KindAPI ErrorKind = "api"
	// KindTransport: the request never got an answer.
	KindTransport ErrorKind = "transport"
)

// Error is a failed completion call.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == KindAPI {
		return fmt.Sprintf("completion api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("completion request failed: %s", e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Client is a ports.Completer backed by go-openai.
type Client struct {
	api    *openai.Client
	cfg    Config
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client. Zero fields of cfg fall back to DefaultConfig.
func New(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.N <= 0 {
		cfg.N = def.N
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	c := &Client{
		api:    openai.NewClientWithConfig(oc),
		cfg:    cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Complete sends prompt as a single user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
		MaxTokens:        c.cfg.MaxTokens,
		Temperature:      c.cfg.Temperature,
		TopP:             c.cfg.TopP,
		FrequencyPenalty: c.cfg.FrequencyPenalty,
		N:                c.cfg.N,
	})
	if err != nil {
		cerr := classify(err)
		c.logger.Error("completion failed", "model", c.cfg.Model, "status", cerr.Status, "err", err)
		return "", cerr
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("completion returned no choices", "model", c.cfg.Model)
		return "", ErrNoAnswer
	}
	return resp.Choices[0].Message.Content, nil
}

func classify(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return &Error{Kind: KindAPI, Status: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	}

	// An "error" field that is not an object leaves an empty APIError
	// wrapped in the RequestError; the body still has the reason.
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &Error{Kind: KindAPI, Status: reqErr.HTTPStatusCode, Message: bodyMessage(reqErr.Body), Err: err}
	}

	if apiErr != nil && apiErr.HTTPStatusCode != 0 {
		return &Error{Kind: KindAPI, Status: apiErr.HTTPStatusCode, Message: http.StatusText(apiErr.HTTPStatusCode), Err: err}
	}

	return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
}

// bodyMessage extracts a top-level "message" or string "error" field,
// falling back to the first 100 characters of the raw body.
func bodyMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if msg, ok := envelope.Error.(string); ok && msg != "" {
			return msg
		}
	}
	r := []rune(strings.TrimSpace(string(body)))
	if len(r) > 100 {
		r = r[:100]
	}
	return string(r)
}

// Apology converts a completion failure into the text shown to the user.
func Apology(err error) string {
	if errors.Is(err, ErrNoAnswer) {
		return "Sorry, no valid answer was returned."
	}
	var cerr *Error
	if errors.As(err, &cerr) && cerr.Kind == KindAPI {
		return "Sorry, the API call failed: " + cerr.Message
	}
	return "Sorry, calling the model failed: " + err.Error()
}
