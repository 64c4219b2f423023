package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/lpizzi13/DM-project/internal/adapter/csvfile"
	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/lpizzi13/DM-project/internal/core/port"
	"github.com/lpizzi13/DM-project/internal/core/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type toolDurations struct {
	port.NoopInstrumentation
	mu    sync.Mutex
	tools []string
}

func (d *toolDurations) RecordToolDuration(_ context.Context, tool string, _ float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tools = append(d.tools, tool)
}

// toolCallLogs returns the "tool call" entries of a JSON log stream.
func toolCallLogs(t *testing.T, logs *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "tool call" {
			entries = append(entries, entry)
		}
	}
	return entries
}

func spanAttrs(span tracetest.SpanStub) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(span.Attributes))
	for _, kv := range span.Attributes {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestToolCallHooks_FailedCall(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	inst := &toolDurations{}

	s := server.NewMCPServer("test", "0.1.0",
		server.WithToolCapabilities(true),
		server.WithHooks(ToolCallHooks(logger, tp.Tracer("test"), inst)),
	)
	s.AddTool(mcp.NewTool("fail"), func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("boom"), nil
	})

	result := callTool(t, s, "fail", nil)
	require.True(t, result.IsError)

	assert.Equal(t, []string{"fail"}, inst.tools)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "mcp.tool.call", spans[0].Name)
	assert.Equal(t, "Error", spans[0].Status.Code.String())

	entries := toolCallLogs(t, &logs)
	require.Len(t, entries, 1)
	assert.Equal(t, "fail", entries[0]["mcp.tool"])
	assert.Equal(t, true, entries[0]["error"])
	assert.Equal(t, "ERROR", entries[0]["level"])
	assert.Equal(t, "tool fail: boom", entries[0]["error.message"])
	assert.NotContains(t, entries[0], "query.name")
}

func TestToolCallHooks_TagsQueryAndCompareOutcome(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	inst := &toolDurations{}

	layout := domain.NewLayout(t.TempDir())
	require.NoError(t, csvfile.Prepare(layout, true))
	writeFile(t, layout.ResultPath(domain.RelationalSide, "q"), "id\n1\n2\n")
	writeFile(t, layout.ResultPath(domain.GraphSide, "q"), "id\n1\n")
	writeFile(t, layout.ResultPath(domain.RelationalSide, "same"), "id\n1\n")
	writeFile(t, layout.ResultPath(domain.GraphSide, "same"), "id\n1\n")

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	compare := service.NewCompareService(csvfile.NewStore(), quiet, nil, nil, nil)
	s := NewServer("0.1.0", testCatalog(), compare, layout, logger, tp.Tracer("test"), inst)

	require.False(t, callTool(t, s, "compare", nil).IsError)
	require.False(t, callTool(t, s, "query_diff", map[string]any{"query_name": "q"}).IsError)

	assert.Equal(t, []string{"compare", "query_diff"}, inst.tools)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	compareAttrs := spanAttrs(spans[0])
	assert.Equal(t, "compare", compareAttrs["mcp.tool"].AsString())
	assert.Equal(t, int64(2), compareAttrs["compare.queries"].AsInt64())
	assert.Equal(t, int64(1), compareAttrs["compare.mismatched"].AsInt64())
	diffAttrs := spanAttrs(spans[1])
	assert.Equal(t, "query_diff", diffAttrs["mcp.tool"].AsString())
	assert.Equal(t, "q", diffAttrs["query.name"].AsString())

	entries := toolCallLogs(t, &logs)
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, float64(2), entries[0]["compare.queries"])
	assert.Equal(t, float64(1), entries[0]["compare.mismatched"])
	assert.Equal(t, "q", entries[1]["query.name"])
	assert.Equal(t, false, entries[1]["error"])
}
