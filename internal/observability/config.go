// Package observability wires OpenTelemetry tracing, metrics, and structured
// logging for the archgate binaries. Init builds the whole provider set from a
// Config and hands back ready-to-use handles; the rest of the package is the
// plumbing behind that call.
package observability

import (
	"log/slog"
)

// AppMode tags telemetry with the surface the process is serving.
type AppMode string

const (
	// ModeCLI marks a one-shot audit invocation.
	ModeCLI AppMode = "cli"

	// ModeMCP marks the model context protocol server.
	ModeMCP AppMode = "mcp"

	// ModeLSP marks the language server.
	ModeLSP AppMode = "lsp"
)

const (
	defaultServiceName        = "archgate"
	defaultEnvironment        = "dev"
	defaultSampleRatio        = 1.0
	defaultShutdownTimeoutSec = 10
)

// Config carries every knob the telemetry stack understands. The zero value is
// not usable; start from DefaultConfig and override.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLPEndpoint enables the gRPC exporters when non-empty. An empty
	// endpoint leaves tracing and metrics on no-op providers, so a plain
	// CLI run costs nothing.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	OTLPInsecure bool

	// DebugTrace forces the always-on sampler regardless of SampleRatio.
	DebugTrace  bool
	SampleRatio float64

	LogLevel slog.Level
	LogJSON  bool

	// TraceVerbose disables the span suppression that keeps per-file hot
	// paths out of exported traces.
	TraceVerbose bool

	ShutdownTimeoutSec int
}

// DefaultConfig returns the configuration for a local CLI run: no exporters,
// text logs on stderr, full sampling.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		ServiceVersion:     "dev",
		Environment:        defaultEnvironment,
		Mode:               ModeCLI,
		SampleRatio:        defaultSampleRatio,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
