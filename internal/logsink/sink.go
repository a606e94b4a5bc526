// Package logsink defines the logger sink interface the scheduler writes
// segment output through, plus a concrete file+console implementation.
// Every line is masked by a secret.Registry before it reaches a persistent
// location, per the masking contract. Line formatting is grounded on orc's
// ux package (timestamped, prefix-tagged lines), generalized from a fixed
// phase index to an arbitrary segment name.
package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jorge-barreto/kite/internal/secret"
)

// LineKind distinguishes the three kinds of lines a segment's command
// execution can produce.
type LineKind string

const (
	LineCommandStart    LineKind = "start"
	LineCommandOutput   LineKind = "output"
	LineCommandComplete LineKind = "complete"
	LineMessage         LineKind = "message"
)

// Sink is the interface segment bodies and the scheduler write log lines
// through. A Sink is scoped to one segment; every attempt of that segment
// writes through the same Sink.
type Sink interface {
	// Write appends one line (any trailing newline is added by the sink).
	Write(kind LineKind, message string)
	// CommandStart/Output/Complete are convenience wrappers matching the
	// external log format's three command line kinds.
	CommandStart(cmdline string)
	CommandOutput(text string)
	CommandComplete(exitCode int, duration time.Duration)
}

// FileConsoleSink writes masked, timestamped lines to both a per-segment
// log file and a shared console writer. The console writer is serialized
// across segments via consoleMu so concurrent segments produce coherent
// lines.
type FileConsoleSink struct {
	SegmentName string
	LogPath     string
	Secrets     *secret.Registry
	ShowHints   bool

	Console   *os.File // nil disables console echo
	consoleMu *sync.Mutex

	mu   sync.Mutex
	file *os.File
}

// New opens (creating parent directories as needed) the per-segment log
// file at logDir/<segmentName>.log in append mode and returns a ready Sink.
func New(segmentName, logDir string, secrets *secret.Registry, console *os.File, consoleMu *sync.Mutex) (*FileConsoleSink, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logsink: creating log dir: %w", err)
	}
	path := filepath.Join(logDir, segmentName+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logsink: opening %q: %w", path, err)
	}
	return &FileConsoleSink{
		SegmentName: segmentName,
		LogPath:     path,
		Secrets:     secrets,
		Console:     console,
		consoleMu:   consoleMu,
		file:        f,
	}, nil
}

// Close closes the underlying log file.
func (s *FileConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func (s *FileConsoleSink) Write(kind LineKind, message string) {
	masked := message
	if s.Secrets != nil {
		masked = s.Secrets.Mask(message, s.ShowHints)
	}
	line := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05.000"), s.SegmentName, masked)

	s.mu.Lock()
	_, _ = s.file.WriteString(line)
	s.mu.Unlock()

	if s.Console == nil {
		return
	}
	if s.consoleMu != nil {
		s.consoleMu.Lock()
		defer s.consoleMu.Unlock()
	}
	_, _ = s.Console.WriteString(line)
}

func (s *FileConsoleSink) CommandStart(cmdline string) {
	s.Write(LineCommandStart, "$ "+cmdline)
}

func (s *FileConsoleSink) CommandOutput(text string) {
	s.Write(LineCommandOutput, text)
}

func (s *FileConsoleSink) CommandComplete(exitCode int, duration time.Duration) {
	s.Write(LineCommandComplete, fmt.Sprintf("exit=%d duration=%dms", exitCode, duration.Milliseconds()))
}

// NullSink discards every line. Useful for dry-run or testing.
type NullSink struct{}

func (NullSink) Write(LineKind, string)             {}
func (NullSink) CommandStart(string)                {}
func (NullSink) CommandOutput(string)                {}
func (NullSink) CommandComplete(int, time.Duration) {}
