package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Read returns the last maxLines lines of the file at path, oldest first. A
// non-positive maxLines returns every line; a missing file returns none.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if maxLines > 0 && len(lines) > 2*maxLines {
			lines = append(lines[:0], lines[len(lines)-maxLines:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines, nil
}

// Level extracts the level of a line written by slog's text handler.
func Level(line string) (slog.Level, bool) {
	idx := strings.Index(line, "level=")
	if idx < 0 || (idx > 0 && line[idx-1] != ' ') {
		return 0, false
	}
	token := line[idx+len("level="):]
	if end := strings.IndexByte(token, ' '); end >= 0 {
		token = token[:end]
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(token)); err != nil {
		return 0, false
	}
	return level, true
}

// AtLeast keeps the lines logged at min or above. Lines without a level
// are dropped.
func AtLeast(lines []string, min slog.Level) []string {
	var out []string
	for _, line := range lines {
		if level, ok := Level(line); ok && level >= min {
			out = append(out, line)
		}
	}
	return out
}
