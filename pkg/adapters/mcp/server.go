package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/presentation/graph"
	"github.com/aretw0/rewind/internal/sanitize"
)

// MachineResponse aligns with the HTTP adapter's machine view.
type MachineResponse struct {
	Current  string   `json:"current" jsonschema_description:"The active state"`
	History  []string `json:"history" jsonschema_description:"Visited states, oldest first"`
	Position int      `json:"position" jsonschema_description:"Index of the active state in history"`
	CanUndo  bool     `json:"can_undo" jsonschema_description:"Whether undo would move"`
	CanRedo  bool     `json:"can_redo" jsonschema_description:"Whether redo would move"`
	Moved    *bool    `json:"moved,omitempty" jsonschema_description:"Set by undo and redo"`
}

// NoArgs is the argument type of tools without parameters.
type NoArgs struct{}

// TriggerArgs are the arguments of the trigger tool.
type TriggerArgs struct {
	Event string `json:"event"`
}

// ChangeStateArgs are the arguments of the change_state tool.
type ChangeStateArgs struct {
	State string `json:"state"`
}

// ListStatesArgs are the arguments of the list_states tool.
type ListStatesArgs struct {
	Event string `json:"event,omitempty"`
}

// Server exposes a single machine as an MCP server.
// Tool calls are serialized with a mutex.
type Server struct {
	mu        sync.Mutex
	machine   *rewind.Machine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance around machine.
func NewServer(machine *rewind.Machine) *Server {
	s := &Server{
		machine:   machine,
		mcpServer: server.NewMCPServer("rewind-mcp", strings.TrimSpace(rewind.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
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
	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Return the active state and the navigation history."),
		mcp.WithOutputSchema[MachineResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetState))

	s.mcpServer.AddTool(mcp.NewTool("trigger",
		mcp.WithDescription("Fire an event from the active state and move to its destination."),
		mcp.WithString("event", mcp.Required(), mcp.Description("Event name")),
		mcp.WithOutputSchema[MachineResponse](),
	), mcp.NewStructuredToolHandler(s.handleTrigger))

	s.mcpServer.AddTool(mcp.NewTool("change_state",
		mcp.WithDescription("Jump directly to a configured state, discarding any redo branch."),
		mcp.WithString("state", mcp.Required(), mcp.Description("Target state")),
		mcp.WithOutputSchema[MachineResponse](),
	), mcp.NewStructuredToolHandler(s.handleChangeState))

	s.mcpServer.AddTool(mcp.NewTool("reset",
		mcp.WithDescription("Return to the initial state, keeping history."),
		mcp.WithOutputSchema[MachineResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Step back one entry in history."),
		mcp.WithOutputSchema[MachineResponse](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Step forward one entry in history."),
		mcp.WithOutputSchema[MachineResponse](),
	), mcp.NewStructuredToolHandler(s.handleRedo))

	s.mcpServer.AddTool(mcp.NewTool("clear_history",
		mcp.WithDescription("Return to the initial state and empty the history."),
		mcp.WithOutputSchema[MachineResponse](),
	), mcp.NewStructuredToolHandler(s.handleClearHistory))

	s.mcpServer.AddTool(mcp.NewTool("list_states",
		mcp.WithDescription("List configured states, optionally only those handling an event."),
		mcp.WithString("event", mcp.Description("Only list states with a transition for this event (optional)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ListStatesArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(s.listStates(args.Event))
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the Mermaid diagram of the machine with the visited path highlighted."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(s.graph()), nil
	})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("rewind://config", "Machine Configuration",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		s.mu.Lock()
		jsonBytes, err := json.Marshal(s.machine.Config())
		s.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "rewind://config",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("rewind://graph", "Machine Graph",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "rewind://graph",
				MIMEType: "text/plain",
				Text:     s.graph(),
			},
		}, nil
	})
}

func (s *Server) respond(moved *bool) MachineResponse {
	snap := s.machine.Snapshot()
	return MachineResponse{
		Current:  snap.Current,
		History:  snap.History,
		Position: snap.Position,
		CanUndo:  snap.CanUndo,
		CanRedo:  snap.CanRedo,
		Moved:    moved,
	}
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest, args NoArgs) (MachineResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.respond(nil), nil
}

func (s *Server) handleTrigger(ctx context.Context, request mcp.CallToolRequest, args TriggerArgs) (MachineResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := sanitize.Input(args.Event)
	if err != nil {
		slog.Warn("MCP Trigger: Input rejected", "err", err, "size", len(args.Event))
		return MachineResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	if _, err := s.machine.Trigger(event); err != nil {
		return MachineResponse{}, fmt.Errorf("trigger failed: %w", err)
	}
	return s.respond(nil), nil
}

func (s *Server) handleChangeState(ctx context.Context, request mcp.CallToolRequest, args ChangeStateArgs) (MachineResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := sanitize.Input(args.State)
	if err != nil {
		slog.Warn("MCP ChangeState: Input rejected", "err", err, "size", len(args.State))
		return MachineResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	if _, err := s.machine.ChangeState(state); err != nil {
		return MachineResponse{}, fmt.Errorf("change state failed: %w", err)
	}
	return s.respond(nil), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args NoArgs) (MachineResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.machine.Reset()
	return s.respond(nil), nil
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest, args NoArgs) (MachineResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := s.machine.Undo()
	return s.respond(&moved), nil
}

func (s *Server) handleRedo(ctx context.Context, request mcp.CallToolRequest, args NoArgs) (MachineResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := s.machine.Redo()
	return s.respond(&moved), nil
}

func (s *Server) handleClearHistory(ctx context.Context, request mcp.CallToolRequest, args NoArgs) (MachineResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.machine.ClearHistory()
	return s.respond(nil), nil
}

func (s *Server) listStates(event string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.StatesOn(event)
}

func (s *Server) graph() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	overlay := graph.OverlayFrom(s.machine.Snapshot())
	return graph.GenerateMermaid(s.machine.Config(), overlay)
}
