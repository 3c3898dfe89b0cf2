package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Transcript appends timestamped lines to a per-conversation log file.
type Transcript struct {
	mu   sync.Mutex
	path string
}

func NewTranscript(baseDir, conversationID string) (*Transcript, error) {
	dir := filepath.Join(baseDir, "conversations")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Transcript{path: filepath.Join(dir, conversationID+".log")}, nil
}

// Log writes msg on a single line. Write failures are ignored.
func (t *Transcript) Log(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	ts := time.Now().Format("2006-01-02 15:04:05")
	msg = strings.ReplaceAll(msg, "\n", `\n`)
	_, _ = fmt.Fprintf(f, "[%s] %s\n", ts, msg)
}

func (t *Transcript) Path() string { return t.path }
