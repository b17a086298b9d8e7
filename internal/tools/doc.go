// Package tools exposes the agent-facing tool surface over MCP.
//
// Agents never hold datasets or executors directly. They call tools by
// name with plain JSON arguments, and the toolbox resolves dataset names
// through the object registry:
//
//   - execute_code: run candidate code against named datasets
//   - list_datasets: names, kinds and formats of registered datasets
//   - describe_dataset: full handle of one dataset, including its schema
package tools
