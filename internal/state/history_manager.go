package state

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// HistoryManager is the shell's in-memory line-editor history (distinct
// from history.MessageHistory, which rings streamed Messages). It is
// bounded, coalesces consecutive duplicates, and persists to a
// per-user file written atomically: temp file, exclusive advisory
// lock, write, unlock, rename, chmod 0600 — per spec.md §4.11.
type HistoryManager struct {
	maxEntries int
	entries    []string
}

// NewHistoryManager builds a HistoryManager capped at maxEntries lines.
func NewHistoryManager(maxEntries int) *HistoryManager {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &HistoryManager{maxEntries: maxEntries}
}

// Add appends a line, coalescing it away if identical to the
// immediately preceding entry, then trims to maxEntries.
func (h *HistoryManager) Add(line string) {
	line = strings.TrimRight(line, "\n")
	if line == "" {
		return
	}
	if len(h.entries) > 0 && h.entries[len(h.entries)-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > h.maxEntries {
		h.entries = h.entries[len(h.entries)-h.maxEntries:]
	}
}

// Entries returns the retained history, oldest-first.
func (h *HistoryManager) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len reports how many entries are currently retained.
func (h *HistoryManager) Len() int {
	return len(h.entries)
}

// Load reads path one entry per line, collapsing consecutive
// duplicates and trimming to maxEntries. A missing file is not an
// error: the manager simply starts empty.
func (h *HistoryManager) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if len(entries) > 0 && entries[len(entries)-1] == line {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read history file: %w", err)
	}

	if len(entries) > h.maxEntries {
		entries = entries[len(entries)-h.maxEntries:]
	}
	h.entries = entries
	return nil
}

// Save writes the retained entries to path atomically. Failures are
// returned to the caller to log; an existing file is never left
// corrupted since the write lands on a temp file first.
func (h *HistoryManager) Save(path string) error {
	tmpPath := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("lock temp history file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, line := range h.entries {
		if _, err := w.WriteString(line); err != nil {
			unix.Flock(int(f.Fd()), unix.LOCK_UN)
			f.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("write history entry: %w", err)
		}
		if _, err := w.WriteString("\n"); err != nil {
			unix.Flock(int(f.Fd()), unix.LOCK_UN)
			f.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("write history entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush history file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("unlock temp history file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp history file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename history file: %w", err)
	}
	return os.Chmod(path, 0600)
}
