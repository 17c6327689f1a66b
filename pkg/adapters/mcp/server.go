// Package mcp exposes the assistant as a Model Context Protocol server.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/jarvis/internal/logging"
	"github.com/aretw0/jarvis/internal/presentation/graph"
	"github.com/aretw0/jarvis/pkg/domain"
	jgraph "github.com/aretw0/jarvis/pkg/graph"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const graphURI = "jarvis://graph"

// OutcomeResult is the structured result of the assist and resume tools.
type OutcomeResult struct {
	Status  string   `json:"status" jsonschema_description:"completed or suspended"`
	RunID   string   `json:"run_id" jsonschema_description:"Identifier of the run"`
	Reply   string   `json:"reply" jsonschema_description:"Text to show the user"`
	Token   string   `json:"token,omitempty" jsonschema_description:"Resume token when the run is waiting for input"`
	Missing []string `json:"missing,omitempty" jsonschema_description:"Entities the assistant still needs"`
}

// Service is the part of the assistant the MCP server needs.
type Service interface {
	Run(ctx context.Context, text string, history ...domain.Message) (*domain.Outcome, error)
	Resume(ctx context.Context, token, input string) (*domain.Outcome, error)
	Chat(ctx context.Context, conversationID, text string) (*domain.Outcome, error)
	Graph() *jgraph.Graph
}

// Server wraps the assistant in an MCP server.
type Server struct {
	svc       Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server reporting the given version.
func NewServer(svc Service, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		svc:       svc,
		logger:    logger,
		mcpServer: server.NewMCPServer("jarvis-mcp", strings.TrimSpace(version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on Stdin/Stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
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

func (s *Server) registerTools() {
	assistTool := mcp.NewTool("assist",
		mcp.WithDescription("Send a request to the assistant. With conversation_id the turn continues that conversation."),
		mcp.WithString("text", mcp.Required(), mcp.Description("What the user asked")),
		mcp.WithString("conversation_id", mcp.Description("Conversation to continue (optional)")),
		mcp.WithOutputSchema[OutcomeResult](),
	)
	s.mcpServer.AddTool(assistTool, mcp.NewStructuredToolHandler(s.HandleAssist))

	resumeTool := mcp.NewTool("resume",
		mcp.WithDescription("Answer the question of a suspended run."),
		mcp.WithString("token", mcp.Required(), mcp.Description("Resume token")),
		mcp.WithString("input", mcp.Required(), mcp.Description("The user's answer")),
		mcp.WithOutputSchema[OutcomeResult](),
	)
	s.mcpServer.AddTool(resumeTool, mcp.NewStructuredToolHandler(s.HandleResume))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the workflow graph as a Mermaid flowchart."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(graph.GenerateMermaid(s.svc.Graph(), nil)), nil
	})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Workflow graph",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.svc.Graph(), nil),
			},
		}, nil
	})
}

// HandleAssist runs the assist tool.
func (s *Server) HandleAssist(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (OutcomeResult, error) {
	text, _ := args["text"].(string)
	if strings.TrimSpace(text) == "" {
		return OutcomeResult{}, fmt.Errorf("text is required")
	}
	conversationID, _ := args["conversation_id"].(string)

	var (
		out *domain.Outcome
		err error
	)
	if conversationID != "" {
		out, err = s.svc.Chat(ctx, conversationID, text)
	} else {
		out, err = s.svc.Run(ctx, text)
	}
	if err != nil {
		s.logger.Warn("MCP assist failed", "conversation_id", conversationID, "err", err)
		return OutcomeResult{}, fmt.Errorf("assist failed: %w", err)
	}
	return toResult(out), nil
}

// HandleResume runs the resume tool.
func (s *Server) HandleResume(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (OutcomeResult, error) {
	token, _ := args["token"].(string)
	input, _ := args["input"].(string)
	if token == "" {
		return OutcomeResult{}, fmt.Errorf("token is required")
	}

	out, err := s.svc.Resume(ctx, token, input)
	if err != nil {
		s.logger.Warn("MCP resume failed", "token", token, "err", err)
		return OutcomeResult{}, fmt.Errorf("resume failed: %w", err)
	}
	return toResult(out), nil
}

func toResult(out *domain.Outcome) OutcomeResult {
	res := OutcomeResult{
		Status: string(out.Kind),
		RunID:  out.RunID,
		Reply:  out.Reply(),
		Token:  out.Token,
	}
	if req, ok := out.Payload.(domain.InputRequest); ok {
		res.Missing = req.Missing
	}
	return res
}
