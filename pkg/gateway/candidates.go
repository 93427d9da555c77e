package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/courier/pkg/domain"
)

// Attempt performs one call against a single candidate endpoint.
type Attempt func(ctx context.Context, endpoint string) (any, error)

// TryCandidates calls attempt for each endpoint in order and returns the
// first successful payload. A failing candidate is logged and skipped. When
// every candidate fails the result is a KindUnavailable ToolError carrying
// the per-endpoint failures.
func TryCandidates(ctx context.Context, logger *slog.Logger, tool string, endpoints []string, attempt Attempt) (any, error) {
	if len(endpoints) == 0 {
		return nil, domain.NewToolError(tool, domain.KindInvalid, "no endpoints configured", nil)
	}

	var errs []error
	for _, ep := range endpoints {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		payload, err := attempt(ctx, ep)
		if err == nil {
			return payload, nil
		}

		logger.Warn("tool endpoint failed", "tool_name", tool, "endpoint", ep, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", ep, err))
	}

	return nil, &domain.ToolError{
		Tool:    tool,
		Kind:    domain.KindUnavailable,
		Message: fmt.Sprintf("all endpoints failed (%s)", joinMessages(errs)),
		Err:     errors.Join(errs...),
	}
}

func joinMessages(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}
