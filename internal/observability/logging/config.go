package logging

// Config for the structured logger
type Config struct {
	Format string // "jsonl" or "off"
	Level  string
	Output string // "stderr" or a file path
}

// DefaultConfig disables structured logging; the CLI's console output
// is the default surface.
func DefaultConfig() Config {
	return Config{
		Format: "off",
		Level:  "info",
		Output: "stderr",
	}
}

// Levels in priority order
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

func levelPriority(level string) int {
	switch level {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 1 // default to info
	}
}
