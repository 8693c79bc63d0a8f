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

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StateResponse is returned by every tool.
type StateResponse struct {
	State    *domain.ExecutionState `json:"state" jsonschema_description:"The full execution state; pass it back to the next call"`
	Current  *domain.Step           `json:"current,omitempty" jsonschema_description:"The next pending step, if any"`
	Complete bool                   `json:"complete" jsonschema_description:"True when no step is pending"`
	Added    []domain.Step          `json:"added,omitempty" jsonschema_description:"Steps appended by continue_plan"`
	Changes  *domain.StateDiff      `json:"changes,omitempty" jsonschema_description:"What this call changed compared to the input state"`
}

// GenerateArgs are the arguments of generate_plan.
type GenerateArgs struct {
	Domain    string `json:"domain"`
	Goal      string `json:"goal"`
	Steps     int    `json:"steps"`
	Depth     string `json:"depth"`
	SessionID string `json:"session_id"`
}

// StateArgs identify the state a step tool acts on: inline JSON or a stored session.
type StateArgs struct {
	State       string `json:"state"`
	SessionID   string `json:"session_id"`
	Step        int    `json:"step"`
	Description string `json:"description"`
}

// Server exposes the stateless engine as MCP tools.
type Server struct {
	engine    *runtime.Engine
	store     ports.StateStore
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithStore lets tools address states by session_id.
func WithStore(store ports.StateStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *runtime.Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("stepwise-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the tools over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
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

func stateOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("state", mcp.Description("JSON execution state returned by a previous call")),
		mcp.WithString("session_id", mcp.Description("Stored session to act on instead of an inline state")),
		mcp.WithOutputSchema[StateResponse](),
	}
}

func (s *Server) registerTools() {
	domains := make([]string, 0, len(domain.Domains()))
	for _, d := range domain.Domains() {
		domains = append(domains, string(d))
	}

	s.mcpServer.AddTool(mcp.NewTool("generate_plan",
		mcp.WithDescription("Generate a step-by-step plan for a goal."),
		mcp.WithString("goal", mcp.Required(), mcp.Description("What the plan should accomplish")),
		mcp.WithString("domain", mcp.Description("Planning domain"), mcp.Enum(domains...)),
		mcp.WithNumber("steps", mcp.Description("Maximum number of steps (default 20)")),
		mcp.WithString("depth", mcp.Description("Planning depth"), mcp.Enum("shallow", "medium", "deep")),
		mcp.WithString("session_id", mcp.Description("Store the new state under this session")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleGenerate))

	s.mcpServer.AddTool(mcp.NewTool("execute_step",
		append([]mcp.ToolOption{mcp.WithDescription("Execute the next pending step.")}, stateOptions()...)...,
	), mcp.NewStructuredToolHandler(s.handleExecute))

	s.mcpServer.AddTool(mcp.NewTool("skip_step",
		append([]mcp.ToolOption{mcp.WithDescription("Skip the next pending step.")}, stateOptions()...)...,
	), mcp.NewStructuredToolHandler(s.handleSkip))

	s.mcpServer.AddTool(mcp.NewTool("revise_step",
		append([]mcp.ToolOption{
			mcp.WithDescription("Replace the description of a pending step."),
			mcp.WithString("description", mcp.Required(), mcp.Description("New step description")),
			mcp.WithNumber("step", mcp.Description("Step number (defaults to the next pending step)")),
		}, stateOptions()...)...,
	), mcp.NewStructuredToolHandler(s.handleRevise))

	s.mcpServer.AddTool(mcp.NewTool("continue_plan",
		append([]mcp.ToolOption{mcp.WithDescription("Ask the planner for follow-up steps.")}, stateOptions()...)...,
	), mcp.NewStructuredToolHandler(s.handleContinue))

	s.mcpServer.AddTool(mcp.NewTool("summarize",
		append([]mcp.ToolOption{mcp.WithDescription("Summarize progress; completes the run when nothing is pending.")}, stateOptions()...)...,
	), mcp.NewStructuredToolHandler(s.handleSummarize))
}

func (s *Server) registerResources() {
	if s.store == nil {
		return
	}
	s.mcpServer.AddResource(mcp.NewResource("stepwise://sessions", "Stored sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "stepwise://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func respond(state *domain.ExecutionState) StateResponse {
	resp := StateResponse{State: state, Complete: state.IsComplete()}
	if step, ok := state.Plan.Current(); ok {
		resp.Current = step
	}
	return resp
}

// loadState resolves the state of a step tool call.
func (s *Server) loadState(ctx context.Context, args StateArgs) (*domain.ExecutionState, error) {
	if args.State != "" {
		var state domain.ExecutionState
		if err := json.Unmarshal([]byte(args.State), &state); err != nil {
			return nil, fmt.Errorf("invalid state: %w", err)
		}
		if state.Plan == nil {
			return nil, errors.New("invalid state: no plan")
		}
		return &state, nil
	}
	if args.SessionID == "" {
		return nil, errors.New("either state or session_id is required")
	}
	if s.store == nil {
		return nil, errors.New("session_id needs a server started with a store")
	}
	return s.store.Load(ctx, args.SessionID)
}

func (s *Server) persist(ctx context.Context, sessionID string, state *domain.ExecutionState) {
	if s.store == nil || sessionID == "" {
		return
	}
	if err := s.store.Save(ctx, sessionID, state); err != nil {
		s.logger.Warn("MCP: checkpoint failed", "session_id", sessionID, "error", err)
	}
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest, args GenerateArgs) (StateResponse, error) {
	goal, err := runner.SanitizeInput(args.Goal)
	if err != nil {
		s.logger.Warn("MCP generate_plan: input rejected", "error", err, "size", len(args.Goal))
		return StateResponse{}, fmt.Errorf("goal rejected: %w", err)
	}

	d := domain.DomainCustom
	if args.Domain != "" {
		if d, err = domain.ParseDomain(args.Domain); err != nil {
			return StateResponse{}, err
		}
	}
	cfg := domain.DefaultPlannerConfig()
	if args.Steps > 0 {
		cfg.MaxSteps = args.Steps
	}
	if args.Depth != "" {
		if cfg.Depth, err = domain.ParseDepth(args.Depth); err != nil {
			return StateResponse{}, err
		}
	}

	state, err := s.engine.Start(ctx, args.SessionID, d, goal, cfg)
	if err != nil {
		return StateResponse{}, err
	}
	s.persist(ctx, args.SessionID, state)
	return respond(state), nil
}

// apply loads the state, runs op and stores the result.
func (s *Server) apply(ctx context.Context, args StateArgs, op func(*domain.ExecutionState) (*domain.ExecutionState, error)) (StateResponse, error) {
	state, err := s.loadState(ctx, args)
	if err != nil {
		return StateResponse{}, err
	}
	next, err := op(state)
	if err != nil {
		return StateResponse{}, err
	}
	s.persist(ctx, args.SessionID, next)
	resp := respond(next)
	resp.Changes = domain.Diff(state, next)
	return resp, nil
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest, args StateArgs) (StateResponse, error) {
	return s.apply(ctx, args, func(state *domain.ExecutionState) (*domain.ExecutionState, error) {
		return s.engine.Execute(ctx, state)
	})
}

func (s *Server) handleSkip(ctx context.Context, request mcp.CallToolRequest, args StateArgs) (StateResponse, error) {
	return s.apply(ctx, args, func(state *domain.ExecutionState) (*domain.ExecutionState, error) {
		return s.engine.Skip(ctx, state)
	})
}

func (s *Server) handleRevise(ctx context.Context, request mcp.CallToolRequest, args StateArgs) (StateResponse, error) {
	desc, err := runner.SanitizeInput(args.Description)
	if err != nil {
		return StateResponse{}, fmt.Errorf("description rejected: %w", err)
	}
	return s.apply(ctx, args, func(state *domain.ExecutionState) (*domain.ExecutionState, error) {
		number := args.Step
		if number == 0 {
			step, ok := state.Plan.Current()
			if !ok {
				return nil, domain.ErrNoPendingStep
			}
			number = step.Number
		}
		return s.engine.Revise(ctx, state, number, desc)
	})
}

func (s *Server) handleContinue(ctx context.Context, request mcp.CallToolRequest, args StateArgs) (StateResponse, error) {
	var added []domain.Step
	resp, err := s.apply(ctx, args, func(state *domain.ExecutionState) (*domain.ExecutionState, error) {
		next, steps, err := s.engine.Continue(ctx, state)
		added = steps
		return next, err
	})
	resp.Added = added
	return resp, err
}

func (s *Server) handleSummarize(ctx context.Context, request mcp.CallToolRequest, args StateArgs) (StateResponse, error) {
	return s.apply(ctx, args, func(state *domain.ExecutionState) (*domain.ExecutionState, error) {
		return s.engine.Complete(ctx, state)
	})
}
