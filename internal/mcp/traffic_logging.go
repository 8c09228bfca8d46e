package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxLoggedPayload = 2048

// trafficLoggingMiddleware dumps every exchange at debug level. Inbound tool
// calls are also summarised at info level, since each one may mutate the list
// that live clients are watching.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil {
				return next(ctx, method, req)
			}
			debug := logger.Enabled(ctx, slog.LevelDebug)

			attrs := []any{"direction", direction, "method", method, "session_id", safeSessionID(req)}
			if debug {
				logger.Debug("mcp request", append(attrs, "params", formatPayload(safeParams(req)))...)
			}

			start := time.Now()
			result, err := next(ctx, method, req)

			if call, ok := req.(*sdkmcp.CallToolRequest); ok && direction == "inbound" {
				logToolCall(ctx, logger, call, result, err, time.Since(start))
			}
			if !debug || strings.HasPrefix(method, "notifications/") {
				return result, err
			}
			if err != nil {
				logger.Debug("mcp response", append(attrs, "error", err)...)
			} else {
				logger.Debug("mcp response", append(attrs, "result", formatPayload(result))...)
			}
			return result, err
		}
	}
}

// logToolCall records which tool ran, the todo it targeted and how it ended.
func logToolCall(ctx context.Context, logger *slog.Logger, call *sdkmcp.CallToolRequest, result sdkmcp.Result, err error, took time.Duration) {
	if call.Params == nil {
		return
	}
	attrs := []any{"tool", call.Params.Name, "duration", took}
	if id := targetTodoID(call.Params.Arguments); id != "" {
		attrs = append(attrs, "todo_id", id)
	}

	outcome := "ok"
	level := slog.LevelInfo
	switch res, _ := result.(*sdkmcp.CallToolResult); {
	case err != nil:
		outcome, level = "failed", slog.LevelWarn
		attrs = append(attrs, "error", err)
	case res != nil && res.IsError:
		outcome = "rejected"
	}
	logger.Log(ctx, level, "mcp tool call", append(attrs, "outcome", outcome)...)
}

func targetTodoID(raw json.RawMessage) string {
	var args struct {
		ID string `json:"id"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &args) != nil {
		return ""
	}
	return args.ID
}

func safeSessionID(req sdkmcp.Request) string {
	if req == nil {
		return ""
	}
	// GetSession panics on some notification requests.
	defer func() { recover() }()
	session := req.GetSession()
	if session == nil {
		return ""
	}
	return session.ID()
}

func safeParams(req sdkmcp.Request) any {
	if req == nil {
		return nil
	}
	defer func() { recover() }()
	return req.GetParams()
}

func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	if len(data) > maxLoggedPayload {
		return string(data[:maxLoggedPayload]) + "...(truncated)"
	}
	return string(data)
}
