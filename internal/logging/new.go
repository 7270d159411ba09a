package logging

import (
	"fmt"
	"log/slog"
	"os"
)

// New builds the logger named by format: "slog" (the default) or "zap".
// Both write JSON to stdout.
func New(format string) (Logger, error) {
	switch format {
	case "", "slog":
		return NewJSONSlogLogger(os.Stdout, slog.LevelInfo), nil
	case "zap":
		return NewProductionZapLogger()
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}
