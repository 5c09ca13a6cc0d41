package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0o664

// Build configures where log lines go. The zero value logs to stderr at info.
type Build struct {
	writer io.Writer
	path   string
	level  string
}

func New() *Build {
	return &Build{}
}

func (b *Build) FromPath(path string) *Build {
	b.path = strings.TrimSpace(path)
	return b
}

func (b *Build) FromWriter(w io.Writer) *Build {
	b.writer = w
	return b
}

func (b *Build) Level(level string) *Build {
	b.level = level
	return b
}

// Logger owns the optional log file.
type Logger struct {
	zerolog.Logger
	file *os.File
}

func (b *Build) Make() (*Logger, error) {
	out := &Logger{}
	var w io.Writer = os.Stderr
	if b.writer != nil {
		w = b.writer
	}
	if b.path != "" {
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		out.file = f
		w = zerolog.SyncWriter(f)
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(b.level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out.Logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return out, nil
}

func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
