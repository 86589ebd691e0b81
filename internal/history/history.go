// Package history keeps a log of resolved links in a TSV file.
// Uses atomic writes (temp+rename) to prevent data corruption.
package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autoembed/internal/config"
)

// TSV columns: time, status, provider, url
const numColumns = 4

// Entry is one resolution attempt.
type Entry struct {
	Time     time.Time `json:"time"`
	URL      string    `json:"url"`
	Provider string    `json:"provider,omitempty"`
	OK       bool      `json:"ok"`
}

// Load reads the history file and returns all entries, oldest first.
func Load() ([]Entry, error) {
	path, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening history: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			continue // Skip malformed lines
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	return entries, nil
}

// Append adds entry to the history and keeps at most limit of the newest
// entries. A limit <= 0 keeps everything.
func Append(entry Entry, limit int) error {
	entries, err := Load()
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	return write(entries)
}

// Clear removes every entry.
func Clear() error {
	path, err := config.HistoryPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing history: %w", err)
	}
	return nil
}

// write replaces the history file with entries.
func write(entries []Entry) error {
	path, err := config.HistoryPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	// Atomic write: temp file + rename
	tmpFile, err := os.CreateTemp(dir, "history-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	writer := bufio.NewWriter(tmpFile)
	for _, e := range entries {
		if _, err := writer.WriteString(formatLine(e) + "\n"); err != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("writing history: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flushing history: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming history file: %w", err)
	}

	return nil
}

// FormatForDisplay creates one display line per entry, newest first.
func FormatForDisplay(entries []Entry) []string {
	items := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		provider := e.Provider
		if !e.OK {
			provider = "unsupported"
			if e.Provider != "" {
				provider = e.Provider + " (failed)"
			}
		}
		items = append(items, fmt.Sprintf("%s  %-24s %s", e.Time.Local().Format("2006-01-02 15:04"), provider, e.URL))
	}
	return items
}

// parseLine parses a TSV line into an Entry.
func parseLine(line string) (Entry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < numColumns {
		return Entry{}, fmt.Errorf("expected %d columns, got %d", numColumns, len(fields))
	}

	ts, err := time.Parse(time.RFC3339, fields[0])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing time: %w", err)
	}

	return Entry{
		Time:     ts,
		OK:       fields[1] == "ok",
		Provider: fields[2],
		URL:      fields[3],
	}, nil
}

// formatLine converts an Entry to a TSV line. Tabs and newlines in fields
// are replaced with spaces so a line always holds one entry.
func formatLine(e Entry) string {
	status := "fail"
	if e.OK {
		status = "ok"
	}
	clean := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	return strings.Join([]string{
		e.Time.UTC().Format(time.RFC3339),
		status,
		clean.Replace(e.Provider),
		clean.Replace(e.URL),
	}, "\t")
}
