package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names.
const (
	ToolExecuteCode     = "execute_code"
	ToolListDatasets    = "list_datasets"
	ToolDescribeDataset = "describe_dataset"
)

// ServerName identifies the MCP server to clients.
const ServerName = "aiden"

type emptyInput struct{}

// Server returns an MCP server with every tool registered.
func (t *Toolbox) Server(version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolExecuteCode,
		Description: "Run transformation code against registered datasets and report success, the exception and the captured output.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ExecuteCodeInput) (*mcp.CallToolResult, ExecuteCodeOutput, error) {
		out, err := t.ExecuteCode(ctx, in)
		return nil, out, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolListDatasets,
		Description: "List the registered datasets with their kind and format.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, ListDatasetsOutput, error) {
		return nil, t.ListDatasets(ctx), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolDescribeDataset,
		Description: "Describe one registered dataset: location, format and schema.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in DescribeDatasetInput) (*mcp.CallToolResult, DescribeDatasetOutput, error) {
		out, err := t.DescribeDataset(ctx, in)
		return nil, out, err
	})

	return server
}

// Serve runs the MCP server over stdin/stdout until ctx is done or the
// client disconnects.
func (t *Toolbox) Serve(ctx context.Context, version string) error {
	t.logger.Info("tool server starting", "transport", "stdio")
	return t.Server(version).Run(ctx, &mcp.StdioTransport{})
}
