package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/courier/internal/logging"
	"github.com/mitchellh/mapstructure"
)

// excerptLen bounds how much of an error body is echoed back to callers.
const excerptLen = 100

// maxBody caps how much of a response is read into memory.
const maxBody = 8 << 20

type base struct {
	client    *http.Client
	logger    *slog.Logger
	timeout   time.Duration
	endpoints []string
}

// Option configures a gateway client.
type Option func(*base)

// WithHTTPClient overrides the HTTP client used for every call.
func WithHTTPClient(c *http.Client) Option {
	return func(b *base) {
		if c != nil {
			b.client = c
		}
	}
}

// WithLogger sets the logger used to report swallowed failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(b *base) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithEndpoints replaces the default endpoint list.
// For the filesystem client each entry is a prefix the operation name is appended to.
func WithEndpoints(endpoints ...string) Option {
	return func(b *base) {
		if len(endpoints) > 0 {
			b.endpoints = append([]string(nil), endpoints...)
		}
	}
}

func newBase(timeout time.Duration, endpoints []string, opts []Option) base {
	b := base{
		client:    &http.Client{},
		logger:    logging.NewNop(),
		timeout:   timeout,
		endpoints: endpoints,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// StatusError is returned by an attempt that got a non-200 response.
type StatusError struct {
	Code    int
	Excerpt string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d - %s", e.Code, e.Excerpt)
}

// post sends body as JSON to endpoint under a per-attempt timeout and
// returns the raw response body of a 200 answer.
func (b *base) post(ctx context.Context, endpoint string, body any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Excerpt: Excerpt(string(data), excerptLen)}
	}
	return data, nil
}

// DecodePayload parses a JSON body; anything that is not valid JSON is
// returned as plain text.
func DecodePayload(data []byte) any {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	return v
}

// Excerpt returns at most n runes of s.
func Excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}
