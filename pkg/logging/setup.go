package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs a PrettyHandler as the process-wide default logger,
// writing to stdout. When logFile is non-empty, records are additionally
// appended to that file (supplementing original_source/peer.py's
// per-peer log file).
func Setup(logFile string) error {
	opts := DefaultOptions()

	dest := io.Writer(os.Stdout)

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		dest = io.MultiWriter(os.Stdout, f)
	}

	slog.SetDefault(slog.New(NewPrettyHandler(dest, &opts)))

	return nil
}
