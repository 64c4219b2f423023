package mcp

import (
	"log/slog"

	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/lpizzi13/DM-project/internal/core/port"
	"github.com/lpizzi13/DM-project/internal/core/service"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
)

// NewServer creates an MCPServer exposing the comparison tools over the
// results tree of layout.
func NewServer(version string, cat *domain.Catalog, compare *service.CompareService, layout domain.Layout, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
		server.WithHooks(ToolCallHooks(logger, tracer, inst)),
	)

	RegisterTools(s, cat, compare, layout)

	return s
}
