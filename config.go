package nodegl

import (
	"io"

	"github.com/go-gl/mathgl/mgl32"
)

// Config holds Context construction options. Start from DefaultConfig;
// NewContext(nil) uses it unchanged.
type Config struct {
	// LogLevel is the minimum severity that reaches the log output.
	LogLevel LogLevel
	// LogFunc, when set, receives log messages instead of LogWriter.
	LogFunc LogFunc
	// LogWriter is where formatted log lines go. Defaults to os.Stderr.
	LogWriter io.Writer
	// Debug enables cycle detection during attach and per-frame timing logs.
	Debug bool
	// ClearColor is handed to devices that support a clear color.
	ClearColor mgl32.Vec4
	// Events optionally receives node lifecycle events.
	Events EventStore
}

// DefaultConfig returns the configuration used by NewContext(nil).
func DefaultConfig() Config {
	return Config{
		LogLevel:   LogInfo,
		ClearColor: mgl32.Vec4{0, 0, 0, 1},
	}
}
