// Package mcp exposes courier's chat and tools as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/courier"
	"github.com/aretw0/courier/internal/logging"
	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/gateway"
	"github.com/aretw0/courier/pkg/prompt"
	"github.com/aretw0/courier/pkg/router"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefaultSessionID is used by the ask tool when the caller names none.
const DefaultSessionID = "mcp"

const sessionURIPrefix = "courier://sessions/"

// Engine is the part of *courier.Engine the MCP server needs.
type Engine interface {
	Chat(ctx context.Context, sessionID, text string) (courier.Reply, error)
	History(ctx context.Context, sessionID string) ([]domain.Message, error)
	InvokeTool(ctx context.Context, req domain.ToolRequest) domain.ToolResult
	Router() *router.Router
}

// AskArgs are the arguments of the ask tool.
type AskArgs struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// AskResult is the structured output of the ask tool.
type AskResult struct {
	Response string        `json:"response" jsonschema_description:"The assistant's answer"`
	Intent   domain.Intent `json:"intent" jsonschema_description:"The path the router selected: filesystem, time, url or chat"`
}

// Server wraps the courier Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		mcpServer: server.NewMCPServer("courier-mcp", strings.TrimSpace(courier.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithRecovery(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for in-process clients.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("ask",
		mcp.WithDescription("Send a message to the assistant. Messages mentioning a URL, the time or the desktop are answered with the matching tool."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user message")),
		mcp.WithString("session_id", mcp.Description("Conversation to continue (default: mcp)")),
		mcp.WithOutputSchema[AskResult](),
	), mcp.NewStructuredToolHandler(s.handleAsk))

	s.mcpServer.AddTool(mcp.NewTool("fetch_webpage",
		mcp.WithDescription("Fetch a web page and return its content."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Page URL; https:// is assumed when no scheme is given")),
		mcp.WithNumber("max_length", mcp.Description("Maximum characters to return")),
	), s.handleFetch)

	s.mcpServer.AddTool(mcp.NewTool("current_time",
		mcp.WithDescription("Get the current time in a timezone."),
		mcp.WithString("timezone", mcp.Description("IANA timezone name")),
	), s.handleTime)

	s.mcpServer.AddTool(mcp.NewTool("list_directory",
		mcp.WithDescription("List the entries of the configured desktop folder."),
	), s.handleFilesystem(domain.OpListDirectory))

	s.mcpServer.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read a text file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File path")),
	), s.handleFilesystem(domain.OpReadFile))

	s.mcpServer.AddTool(mcp.NewTool("get_file_info",
		mcp.WithDescription("Get size, timestamps and type of a file or directory."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File path")),
	), s.handleFilesystem(domain.OpGetFileInfo))

	s.mcpServer.AddTool(mcp.NewTool("search_files",
		mcp.WithDescription("Search a directory tree for names matching a pattern."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Directory to search")),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("Name pattern")),
	), s.handleFilesystem(domain.OpSearchFiles))
}

func (s *Server) handleAsk(ctx context.Context, _ mcp.CallToolRequest, args AskArgs) (AskResult, error) {
	id := args.SessionID
	if id == "" {
		id = DefaultSessionID
	}
	reply, err := s.engine.Chat(ctx, id, args.Message)
	if err != nil {
		s.logger.Warn("mcp ask failed", "session_id", id, "err", err)
		return AskResult{}, err
	}
	return AskResult{Response: reply.Text, Intent: reply.Intent}, nil
}

func (s *Server) handleFetch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req := s.engine.Router().FetchRequest(target)
	if n := request.GetInt("max_length", 0); n > 0 {
		req.Args["max_length"] = n
	}

	res := s.engine.InvokeTool(ctx, *req)
	if res.Err != nil {
		return toolError(res.Err), nil
	}
	return mcp.NewToolResultText(prompt.PageContent(res.Payload)), nil
}

func (s *Server) handleTime(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := s.engine.Router().TimeRequest()
	if tz := request.GetString("timezone", ""); tz != "" {
		req.Args["timezone"] = tz
	}
	return s.result(s.engine.InvokeTool(ctx, *req)), nil
}

func (s *Server) handleFilesystem(op string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Listing is pinned to the configured root.
		path := s.engine.Router().FilesystemRoot()
		if op != domain.OpListDirectory {
			path = request.GetString("path", "")
			if path == "" {
				return mcp.NewToolResultError("path is required"), nil
			}
		}

		args := map[string]any{"path": path}
		if pattern := request.GetString("pattern", ""); pattern != "" {
			args["pattern"] = pattern
		}
		res := s.engine.InvokeTool(ctx, domain.ToolRequest{
			Tool:      domain.ToolFilesystem,
			Operation: op,
			Args:      args,
		})
		if res.Err == nil && op == domain.OpListDirectory {
			if entries, ok := gateway.Entries(res.Payload); ok {
				return mcp.NewToolResultText(strings.Join(gateway.FormatEntries(entries), "\n")), nil
			}
		}
		return s.result(res), nil
	}
}

func (s *Server) result(res domain.ToolResult) *mcp.CallToolResult {
	if res.Err != nil {
		return toolError(res.Err)
	}
	if text, ok := res.Payload.(string); ok {
		return mcp.NewToolResultText(text)
	}
	b, err := json.Marshal(res.Payload)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("encode result", err)
	}
	return mcp.NewToolResultText(string(b))
}

func toolError(err error) *mcp.CallToolResult {
	var te *domain.ToolError
	if errors.As(err, &te) {
		return mcp.NewToolResultError(te.Detail())
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(sessionURIPrefix+"{id}", "Session transcript",
		mcp.WithTemplateDescription("Messages exchanged in a courier session"),
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := strings.TrimPrefix(request.Params.URI, sessionURIPrefix)
		if id == "" || id == request.Params.URI {
			return nil, fmt.Errorf("invalid session uri %q", request.Params.URI)
		}
		msgs, err := s.engine.History(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if msgs == nil {
			msgs = []domain.Message{}
		}
		b, err := json.Marshal(msgs)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	})
}
