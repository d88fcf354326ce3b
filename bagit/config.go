package bagit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/op/go-logging"
)

// Config holds the ambient settings a Bag needs but that have nothing
// to do with any single bag's contents: where to log, how hard to
// push the fetch engine, and what a freshly created bag looks like.
type Config struct {
	// LogDirectory is where log files are written. Empty means
	// logging goes to stderr only.
	LogDirectory string

	// LogToStderr additionally echoes log output to stderr even
	// when LogDirectory is set. Useful in development.
	LogToStderr bool

	// LogLevel is one of the levels defined in github.com/op/go-logging:
	// CRITICAL, ERROR, WARNING, NOTICE, INFO, DEBUG.
	LogLevel logging.Level

	// DefaultAlgorithms is the set of payload manifest algorithms
	// installed by Create. Defaults to {"sha512"} per spec.
	DefaultAlgorithms []string

	// FetchConcurrency bounds how many transfers DownloadAll runs
	// in parallel. Spec fixes this at 10; tests may lower it.
	FetchConcurrency int

	// FetchConnectTimeoutSeconds records the connect timeout for a
	// single transfer. The fetch engine does not read it: its HTTP
	// client always uses a fixed 10s connect timeout.
	FetchConnectTimeoutSeconds int

	// FetchOvershootRatio is the multiple of a fetch row's declared
	// size past which the progress guard aborts the transfer.
	// Spec fixes this at 1.05.
	FetchOvershootRatio float64
}

// DefaultConfig returns the Config spec.md assumes when nothing else
// is configured: one sha512 payload manifest, ten-way fetch
// concurrency, a 10s connect timeout and a 1.05x progress guard.
func DefaultConfig() Config {
	return Config{
		LogLevel:                   logging.INFO,
		DefaultAlgorithms:          []string{"sha512"},
		FetchConcurrency:           10,
		FetchConnectTimeoutSeconds: 10,
		FetchOvershootRatio:        1.05,
	}
}

// AbsLogDirectory returns the absolute form of LogDirectory, with a
// leading "~/" expanded to the user's home directory, or the empty
// string if none is configured.
func (c *Config) AbsLogDirectory() string {
	if c.LogDirectory == "" {
		return ""
	}
	dir, err := ExpandTilde(c.LogDirectory)
	if err != nil {
		return c.LogDirectory
	}
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return c.LogDirectory
	}
	return absPath
}

// LoadConfig reads a JSON-encoded Config from path, starting from
// DefaultConfig so unspecified fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fsErr("read config", path, err)
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return config, nil
}
