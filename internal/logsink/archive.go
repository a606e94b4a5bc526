package logsink

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Archive gzips the log file at logPath to logPath+".gz" and removes the
// plain-text original. Called once a segment reaches a terminal status;
// active (in-progress) segment logs are kept as plain text so a tail -f
// style reader can follow them.
func Archive(logPath string) error {
	in, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("logsink: opening %q for archival: %w", logPath, err)
	}
	defer in.Close()

	out, err := os.Create(logPath + ".gz")
	if err != nil {
		return fmt.Errorf("logsink: creating archive for %q: %w", logPath, err)
	}

	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		out.Close()
		os.Remove(logPath + ".gz")
		return err
	}
	if err := gw.Close(); err != nil {
		out.Close()
		os.Remove(logPath + ".gz")
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(logPath + ".gz")
		return err
	}

	return os.Remove(logPath)
}
