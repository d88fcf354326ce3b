package bagit

import (
	"fmt"
	stdlog "log"
	"io"
	"os"
	"path/filepath"

	"github.com/mipearson/rfw"
	"github.com/op/go-logging"
)

// NewLogger creates a logger suitable for a single process using this
// library. When cfg.LogDirectory is set, output goes to a rotation-safe
// file writer (so an external logrotate can move the file out from
// under us without losing log lines); when cfg.LogToStderr is also set,
// or no LogDirectory is configured at all, output also goes to stderr.
func NewLogger(module string, cfg Config) (*logging.Logger, error) {
	log := logging.MustGetLogger(module)
	format := logging.MustStringFormatter("%{time} [%{level}] %{message}")
	logging.SetFormatter(format)
	logging.SetLevel(cfg.LogLevel, module)

	var backends []logging.Backend
	if dir := cfg.AbsLogDirectory(); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fsErr("mkdir log directory", dir, err)
		}
		filename := filepath.Join(dir, fmt.Sprintf("%s.log", module))
		writer, err := rfw.Open(filename, 0644)
		if err != nil {
			return nil, fsErr("open log file", filename, err)
		}
		backends = append(backends, logging.NewLogBackend(writer, "", 0))
	}
	if cfg.LogToStderr || len(backends) == 0 {
		stderrBackend := logging.NewLogBackend(os.Stderr, "", stdlog.LstdFlags)
		stderrBackend.Color = true
		backends = append(backends, stderrBackend)
	}
	logging.SetBackend(backends...)
	return log, nil
}

// DiscardLogger returns a logger that writes nowhere. A new Bag falls
// back to it when NewLogger fails.
func DiscardLogger(module string) *logging.Logger {
	log := logging.MustGetLogger(module)
	devnull := logging.NewLogBackend(io.Discard, "", 0)
	logging.SetBackend(devnull)
	logging.SetLevel(logging.CRITICAL, module)
	return log
}
