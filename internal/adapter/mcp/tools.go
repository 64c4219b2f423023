package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lpizzi13/DM-project/internal/core/domain"
	"github.com/lpizzi13/DM-project/internal/core/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server metadata
const serverName = "dbcompare"

// Tool descriptions
const (
	descListQueries = "List the benchmark queries of the catalog by name. " +
		"Every name is the stem of one result file per backend."

	descCompare = "Compare the MySQL and Neo4j result files of every query found in both backend directories. " +
		"Rows are matched on the columns both files share, ignoring row order and duplicates. " +
		"Returns one entry per query with its status (equal, different, no_common_columns or error), " +
		"the row count of each side and how many distinct rows exist on one side only. " +
		"Rewrites the diff files and the summary report."

	descQueryDiff = "Return the rows of one query that exist on only one backend, as written by the last compare. " +
		"Each row carries a side column (only_mysql or only_neo4j) followed by the shared columns. " +
		"An empty result means the query matched or has not been compared."

	descQueryDiffParam = "Name of the query, as returned by list_queries"

	descSummary = "Return the summary report written by the last compare, one row per query."
)

// tableResult is the JSON shape of a CSV report.
type tableResult struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

func newTableResult(t domain.Table) tableResult {
	out := tableResult{Columns: t.Header, Rows: make([]map[string]string, 0, len(t.Rows))}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	for _, row := range t.Rows {
		m := make(map[string]string, len(row))
		for col, v := range row {
			m[col] = v.Text()
		}
		out.Rows = append(out.Rows, m)
	}
	return out
}

func RegisterTools(s *server.MCPServer, cat *domain.Catalog, compare *service.CompareService, layout domain.Layout) {
	s.AddTool(
		mcp.NewTool("list_queries",
			mcp.WithDescription(descListQueries),
		),
		listQueriesHandler(cat),
	)

	s.AddTool(
		mcp.NewTool("compare",
			mcp.WithDescription(descCompare),
		),
		compareHandler(compare, layout),
	)

	s.AddTool(
		mcp.NewTool("query_diff",
			mcp.WithDescription(descQueryDiff),
			mcp.WithString("query_name",
				mcp.Required(),
				mcp.Description(descQueryDiffParam),
			),
		),
		queryDiffHandler(compare, layout),
	)

	s.AddTool(
		mcp.NewTool("summary",
			mcp.WithDescription(descSummary),
		),
		summaryHandler(compare, layout),
	)
}

func listQueriesHandler(cat *domain.Catalog) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(cat.Names())
	}
}

func compareHandler(compare *service.CompareService, layout domain.Layout) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		results, err := compare.CompareAll(ctx, layout)
		var noPairs *domain.NoPairsError
		if errors.As(err, &noPairs) {
			return mcp.NewToolResultError(noPairs.Error()), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("compare failed: %v", err)), nil
		}
		return jsonResult(results)
	}
}

func queryDiffHandler(compare *service.CompareService, layout domain.Layout) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, ok := request.GetArguments()["query_name"].(string)
		if !ok || name == "" {
			return mcp.NewToolResultError("query_name is required"), nil
		}

		diff, err := compare.Diff(layout, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read diff: %v", err)), nil
		}
		return jsonResult(newTableResult(diff))
	}
}

func summaryHandler(compare *service.CompareService, layout domain.Layout) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summary, err := compare.Summary(layout)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read summary: %v", err)), nil
		}
		if summary.Empty() {
			return mcp.NewToolResultError("no summary found, run compare first"), nil
		}
		return jsonResult(newTableResult(summary))
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolText returns the text of the first content item of a result.
func toolText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return ""
	}
	return tc.Text
}
