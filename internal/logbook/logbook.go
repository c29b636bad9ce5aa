// Package logbook keeps the session journal: the milestones of a rhythm
// session (playback start, switches, suspend, resync, teardown) persisted to a
// text file and mirrored in memory so the terminal UI can tail it every frame.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a journal entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

const defaultKeep = 200

// Logbook appends entries to a file and retains the most recent ones.
type Logbook struct {
	path   string
	mu     sync.Mutex
	recent []string
	keep   int
	total  int
	now    func() time.Time
}

// New creates a logbook that writes to the provided path. Lines already in
// the file are loaded so Tail survives a restart.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	l := &Logbook{path: path, keep: defaultKeep, now: time.Now}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Logbook) load() error {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		l.remember(scanner.Text())
	}
	return scanner.Err()
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single entry to the logbook.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%s %-5s %s",
		l.now().UTC().Format(time.RFC3339),
		string(level),
		strings.TrimSpace(message),
	)
	l.remember(line)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line + "\n")
}

func (l *Logbook) remember(line string) {
	l.total++
	l.recent = append(l.recent, line)
	if over := len(l.recent) - l.keep; over > 0 {
		l.recent = append(l.recent[:0], l.recent[over:]...)
	}
}

// Tail returns up to maxLines of the most recent entries and the total number
// of entries written.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if maxLines <= 0 || len(l.recent) == 0 {
		return nil, l.total
	}
	start := len(l.recent) - maxLines
	if start < 0 {
		start = 0
	}
	return append([]string(nil), l.recent[start:]...), l.total
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
