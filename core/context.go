package core

import "context"

// Context keys for run options
type contextKey string

const commandKey contextKey = "command"

// Commands recorded in the run store.
const (
	alignCommand = "align"
	pageCommand  = "page"
	mcpCommand   = "mcp"
)

// withCommand sets the command name recorded for runs started from this context
func withCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, commandKey, command)
}

// commandFromContext returns the command name from context
func commandFromContext(ctx context.Context) string {
	val := ctx.Value(commandKey)
	if val == nil {
		return pageCommand // default
	}
	command, ok := val.(string)
	if !ok || command == "" {
		return pageCommand
	}
	return command
}

// WithMCPCommand marks runs started from this context as MCP tool calls.
func WithMCPCommand(ctx context.Context) context.Context {
	return withCommand(ctx, mcpCommand)
}
