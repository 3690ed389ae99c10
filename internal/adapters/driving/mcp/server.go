package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

const shutdownGrace = 5 * time.Second

// Server exposes the policy assistant to MCP clients.
type Server struct {
	ports  *Ports
	config Config
	server *mcp.Server
}

// NewServer registers the ask and retrieve tools and the document resources.
func NewServer(ports *Ports, config Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if config.DefaultTopK <= 0 {
		config.DefaultTopK = domain.DefaultAppSettings().Retrieval.TopK
	}
	if config.Version == "" {
		config.Version = "dev"
	}

	s := &Server{
		ports:  ports,
		config: config,
		server: mcp.NewServer(
			&mcp.Implementation{Name: "policyqa", Version: config.Version},
			&mcp.ServerOptions{Instructions: instructions(config)},
		),
	}
	s.server.AddReceivingMiddleware(logCalls)

	s.registerTools()
	s.registerResources()
	return s, nil
}

// instructions tells the client model when to reach for which tool.
func instructions(config Config) string {
	var b strings.Builder
	b.WriteString("Answers HR policy questions from the indexed policy documents. ")
	b.WriteString("Use ask for a cited answer and retrieve for the raw passages. ")
	b.WriteString("Quote citations as given and tell the user to confirm with HR.")
	if len(config.Regions) > 0 {
		fmt.Fprintf(&b, " Region filters must be one of: %s.", strings.Join(config.Regions, ", "))
	}
	return b.String()
}

func logCalls(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		start := time.Now()
		res, err := next(ctx, method, req)
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			logger.Warn("MCP %s failed after %s: %v", method, elapsed, err)
		} else {
			logger.Debug("MCP %s took %s", method, elapsed)
		}
		return res, err
	}
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves streamable HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr: addr,
		Handler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return s.server
		}, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("MCP server shutdown: %v", err)
		}
	}()

	logger.Info("MCP server listening on %s", addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
