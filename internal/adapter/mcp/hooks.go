package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/lpizzi13/DM-project/internal/core/port"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// toolCall is what the before hook leaves for the after and error hooks.
type toolCall struct {
	tool  string
	query string
	start time.Time
	span  trace.Span
}

// finish ends the span and returns how long the call took.
func (c *toolCall) finish(err error) time.Duration {
	elapsed := time.Since(c.start)
	if c.span == nil {
		return elapsed
	}
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
	}
	c.span.End()
	return elapsed
}

// ToolCallHooks logs every tool call with the query it targets, traces it
// when tracer is set and records its duration per tool when inst is set.
// A compare call also reports how many queries it found mismatching.
func ToolCallHooks(logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.Hooks {
	hooks := &server.Hooks{}
	var inflight sync.Map // request id -> *toolCall

	take := func(id any) *toolCall {
		if v, ok := inflight.LoadAndDelete(id); ok {
			return v.(*toolCall)
		}
		return &toolCall{start: time.Now()}
	}

	hooks.AddBeforeCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest) {
		call := &toolCall{
			tool:  req.Params.Name,
			query: req.GetString("query_name", ""),
			start: time.Now(),
		}
		if tracer != nil {
			attrs := []attribute.KeyValue{attribute.String("mcp.tool", call.tool)}
			if call.query != "" {
				attrs = append(attrs, attribute.String("query.name", call.query))
			}
			_, call.span = tracer.Start(ctx, "mcp.tool.call", trace.WithAttributes(attrs...))
		}
		inflight.Store(id, call)
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, result any) {
		call := take(id)
		call.tool = req.Params.Name

		attrs := []slog.Attr{slog.String("mcp.tool", call.tool)}
		if call.query != "" {
			attrs = append(attrs, slog.String("query.name", call.query))
		}

		var callErr error
		r, _ := result.(*mcp.CallToolResult)
		switch {
		case r != nil && r.IsError:
			callErr = fmt.Errorf("tool %s: %s", call.tool, toolText(r))
		case r != nil && call.tool == "compare":
			if queries, mismatched, ok := compareOutcome(r); ok {
				attrs = append(attrs,
					slog.Int("compare.queries", queries),
					slog.Int("compare.mismatched", mismatched),
				)
				if call.span != nil {
					call.span.SetAttributes(
						attribute.Int("compare.queries", queries),
						attribute.Int("compare.mismatched", mismatched),
					)
				}
			}
		}

		elapsed := call.finish(callErr)
		if inst != nil {
			inst.RecordToolDuration(ctx, call.tool, float64(elapsed.Milliseconds()))
		}

		level := slog.LevelInfo
		if callErr != nil {
			level = slog.LevelError
			attrs = append(attrs, slog.String("error.message", callErr.Error()))
		}
		attrs = append(attrs, slog.Duration("duration", elapsed), slog.Bool("error", callErr != nil))
		logger.LogAttrs(ctx, level, "tool call", attrs...)
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		req, ok := message.(*mcp.CallToolRequest)
		if !ok {
			return
		}
		call := take(id)
		elapsed := call.finish(err)

		logger.LogAttrs(ctx, slog.LevelError, "tool call",
			slog.String("mcp.tool", req.Params.Name),
			slog.Duration("duration", elapsed),
			slog.Bool("error", true),
			slog.String("error.message", err.Error()),
		)
	})

	return hooks
}

// compareOutcome counts the queries of a compare result and how many of
// them did not come out equal.
func compareOutcome(r *mcp.CallToolResult) (queries, mismatched int, ok bool) {
	var results []domain.ComparisonResult
	if err := json.Unmarshal([]byte(toolText(r)), &results); err != nil {
		return 0, 0, false
	}
	for _, res := range results {
		if !res.Equal() {
			mismatched++
		}
	}
	return len(results), mismatched, true
}
