package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/courier/pkg/domain"
)

// DefaultFilesystemTimeout bounds each filesystem attempt.
const DefaultFilesystemTimeout = 30 * time.Second

// FilesystemArgs are the parameters shared by the filesystem operations.
type FilesystemArgs struct {
	Path            string   `mapstructure:"path" json:"path"`
	Content         string   `mapstructure:"content" json:"content,omitempty"`
	Pattern         string   `mapstructure:"pattern" json:"pattern,omitempty"`
	ExcludePatterns []string `mapstructure:"excludePatterns" json:"excludePatterns,omitempty"`
}

// FilesystemEndpoints returns the endpoint prefixes tried for every
// operation: the namespaced shape first, then the flat one.
func FilesystemEndpoints(baseURL string) []string {
	return []string{
		join(baseURL, "/filesystem/"),
		join(baseURL, "/"),
	}
}

// FilesystemClient browses files through the filesystem service.
type FilesystemClient struct {
	base
}

// NewFilesystemClient creates a client for the service at baseURL.
func NewFilesystemClient(baseURL string, opts ...Option) *FilesystemClient {
	return &FilesystemClient{
		base: newBase(DefaultFilesystemTimeout, FilesystemEndpoints(baseURL), opts),
	}
}

func (c *FilesystemClient) Name() string { return domain.ToolFilesystem }

// Invoke runs req.Operation against the service.
func (c *FilesystemClient) Invoke(ctx context.Context, req domain.ToolRequest) domain.ToolResult {
	var args FilesystemArgs
	if err := decodeArgs(req.Args, &args); err != nil {
		return c.invalid("bad arguments", err)
	}
	if args.Path == "" {
		return c.invalid("path is required", nil)
	}

	var body any
	switch req.Operation {
	case domain.OpListDirectory, domain.OpReadFile, domain.OpGetFileInfo:
		body = map[string]string{"path": args.Path}
	case domain.OpWriteFile:
		body = map[string]string{"path": args.Path, "content": args.Content}
	case domain.OpSearchFiles:
		if args.Pattern == "" {
			args.Pattern = "*"
		}
		if args.ExcludePatterns == nil {
			args.ExcludePatterns = []string{}
		}
		body = args
	default:
		return c.invalid(fmt.Sprintf("unknown operation %q", req.Operation), nil)
	}

	endpoints := make([]string, len(c.endpoints))
	for i, prefix := range c.endpoints {
		endpoints[i] = prefix + req.Operation
	}

	c.logger.Info("filesystem call", "tool_name", c.Name(), "operation", req.Operation, "path", args.Path)

	payload, err := TryCandidates(ctx, c.logger, c.Name(), endpoints, func(ctx context.Context, ep string) (any, error) {
		data, err := c.post(ctx, ep, body)
		if err != nil {
			return nil, err
		}
		return DecodePayload(data), nil
	})
	if err != nil {
		return domain.Failed(c.Name(), err)
	}

	if req.Operation == domain.OpListDirectory {
		entries, ok := Entries(payload)
		if !ok {
			return domain.Ok(c.Name(), payload)
		}
		if len(entries) == 1 && strings.HasPrefix(entries[0], "Error:") {
			c.logger.Warn("filesystem reported error", "tool_name", c.Name(), "path", args.Path, "err", entries[0])
			return domain.Failed(c.Name(), domain.NewToolError(c.Name(), domain.KindRemote, entries[0], nil))
		}
		return domain.Ok(c.Name(), entries)
	}
	return domain.Ok(c.Name(), payload)
}

func (c *FilesystemClient) invalid(msg string, err error) domain.ToolResult {
	return domain.Failed(c.Name(), domain.NewToolError(c.Name(), domain.KindInvalid, msg, err))
}

// Entries converts a listing payload into lines. It accepts a JSON list of
// strings or a single newline-separated text body.
func Entries(payload any) ([]string, bool) {
	switch v := payload.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case string:
		var out []string
		for _, line := range strings.Split(v, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out, true
	}
	return nil, false
}

// FormatEntries swaps the [DIR]/[FILE] markers of a listing for icons.
func FormatEntries(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		switch {
		case strings.HasPrefix(e, "[DIR]"):
			out = append(out, "📁 "+strings.TrimSpace(strings.TrimPrefix(e, "[DIR]")))
		case strings.HasPrefix(e, "[FILE]"):
			out = append(out, "📄 "+strings.TrimSpace(strings.TrimPrefix(e, "[FILE]")))
		case e != "":
			out = append(out, e)
		}
	}
	return out
}
