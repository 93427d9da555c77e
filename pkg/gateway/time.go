package gateway

import (
	"context"
	"time"

	"github.com/aretw0/courier/pkg/domain"
)

// DefaultTimeTimeout bounds each time-service attempt.
const DefaultTimeTimeout = 10 * time.Second

// DefaultTimezone is used when a request names no zone.
const DefaultTimezone = "America/New_York"

// TimeEndpoints returns the candidate endpoints of the time service in the
// order they are tried.
func TimeEndpoints(baseURL string) []string {
	return []string{
		join(baseURL, "/time/time"),
		join(baseURL, "/time/"),
		join(baseURL, "/time/get_current_time"),
	}
}

// TimeClient asks the time service for the current time in a timezone.
type TimeClient struct {
	base
	timezone string
}

// NewTimeClient creates a client trying TimeEndpoints(baseURL) in order.
func NewTimeClient(baseURL, timezone string, opts ...Option) *TimeClient {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	return &TimeClient{
		base:     newBase(DefaultTimeTimeout, TimeEndpoints(baseURL), opts),
		timezone: timezone,
	}
}

func (c *TimeClient) Name() string { return domain.ToolTime }

// Invoke returns the first successful answer among the candidate endpoints.
func (c *TimeClient) Invoke(ctx context.Context, req domain.ToolRequest) domain.ToolResult {
	tz := req.Arg("timezone")
	if tz == "" {
		tz = c.timezone
	}
	body := map[string]string{"timezone": tz}

	payload, err := TryCandidates(ctx, c.logger, c.Name(), c.endpoints, func(ctx context.Context, ep string) (any, error) {
		data, err := c.post(ctx, ep, body)
		if err != nil {
			return nil, err
		}
		return DecodePayload(data), nil
	})
	if err != nil {
		return domain.Failed(c.Name(), err)
	}
	return domain.Ok(c.Name(), payload)
}
