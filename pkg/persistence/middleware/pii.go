package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/ports"
)

// Mask replaces every redacted span.
const Mask = "***"

type redactMiddleware struct {
	next     ports.TranscriptStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks every match of the
// given patterns in message content before it reaches the store. Loaded
// transcripts keep the mask; the original text is never persisted.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, 0, len(patternStrings))
	for _, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, re)
	}
	return func(next ports.TranscriptStore) ports.TranscriptStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, sessionID string, t *domain.Transcript) error {
	// Clone so the caller's in-memory transcript keeps the original text.
	cloned := t.Clone()
	for i := range cloned.Messages {
		for _, p := range m.patterns {
			cloned.Messages[i].Content = p.ReplaceAllString(cloned.Messages[i].Content, Mask)
		}
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
