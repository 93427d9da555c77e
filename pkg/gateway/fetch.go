package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aretw0/courier/pkg/domain"
)

// DefaultFetchTimeout bounds a single fetch call.
const DefaultFetchTimeout = 30 * time.Second

// FetchArgs are the parameters of a fetch request.
type FetchArgs struct {
	URL        string `mapstructure:"url" json:"url"`
	MaxLength  int    `mapstructure:"max_length" json:"max_length"`
	StartIndex int    `mapstructure:"start_index" json:"start_index"`
	Raw        bool   `mapstructure:"raw" json:"raw"`
}

// FetchClient retrieves web pages through the fetch service.
type FetchClient struct {
	base
}

// NewFetchClient creates a client posting to {baseURL}/fetch/fetch.
func NewFetchClient(baseURL string, opts ...Option) *FetchClient {
	return &FetchClient{
		base: newBase(DefaultFetchTimeout, []string{join(baseURL, "/fetch/fetch")}, opts),
	}
}

func (c *FetchClient) Name() string { return domain.ToolFetch }

// Invoke fetches req.Args["url"]. The service is called once; there is no
// fallback endpoint. A non-JSON body is returned as text.
func (c *FetchClient) Invoke(ctx context.Context, req domain.ToolRequest) domain.ToolResult {
	var args FetchArgs
	if err := decodeArgs(req.Args, &args); err != nil {
		return domain.Failed(c.Name(), domain.NewToolError(c.Name(), domain.KindInvalid, "bad arguments", err))
	}
	args.URL = strings.TrimSpace(args.URL)
	if args.URL == "" {
		return domain.Failed(c.Name(), domain.NewToolError(c.Name(), domain.KindInvalid, "url is required", nil))
	}
	if !strings.HasPrefix(args.URL, "http") {
		args.URL = "https://" + args.URL
	}
	if args.MaxLength <= 0 {
		args.MaxLength = 10000
	}

	c.logger.Info("fetching url", "tool_name", c.Name(), "url", args.URL)

	data, err := c.post(ctx, c.endpoints[0], args)
	if err != nil {
		c.logger.Warn("fetch failed", "tool_name", c.Name(), "url", args.URL, "err", err)
		return domain.Failed(c.Name(), toToolError(c.Name(), err))
	}
	return domain.Ok(c.Name(), DecodePayload(data))
}

func toToolError(tool string, err error) *domain.ToolError {
	var se *StatusError
	if errors.As(err, &se) {
		return &domain.ToolError{Tool: tool, Kind: domain.KindStatus, Status: se.Code, Message: se.Excerpt, Err: err}
	}
	return domain.NewToolError(tool, domain.KindUnavailable, "", err)
}

func join(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}
