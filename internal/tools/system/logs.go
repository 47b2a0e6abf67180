package system

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
)

const (
	defaultLogLines = 50
	maxLogLines     = 500
	maxLogLineBytes = 1 << 20
)

// ServerLogs is the get_server_logs result.
type ServerLogs struct {
	File  string   `json:"file"`
	Lines []string `json:"lines"`
}

// GetServerLogsHandler returns a handler function for the get_server_logs tool
func GetServerLogsHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(_ context.Context, args tools.Arguments) (any, error) {
		n := args.IntOr("lines", defaultLogLines)
		if n < 1 {
			return nil, &tools.ValidationError{Field: "lines", Reason: "must be positive"}
		}
		if n > maxLogLines {
			n = maxLogLines
		}

		path := deps.ServerLogFile
		if path == "" {
			return nil, &tools.NotFoundError{Entity: "log file"}
		}

		lines, err := tailFile(path, n)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &tools.NotFoundError{Entity: "log file", Key: path}
		}
		if err != nil {
			slog.Error("failed to read server log", "path", path, "error", err)
			return nil, &tools.OperationError{Op: "get_server_logs", Err: err}
		}
		return ServerLogs{File: path, Lines: lines}, nil
	}
}

// tailFile returns the last n lines of path.
func tailFile(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]string, n)
	count := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLogLineBytes)
	for scanner.Scan() {
		ring[count%n] = scanner.Text()
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if count <= n {
		return ring[:count], nil
	}
	start := count % n
	return append(ring[start:], ring[:start]...), nil
}
