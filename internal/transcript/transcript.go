// Package transcript saves per-session event traces as JSON files so a failed
// conversation can be inspected without re-running the target.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/models"
)

// sanitize replaces characters that are unsafe in filenames.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func sanitizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		s = "unnamed"
	}
	return s
}

// Filename returns the transcript filename for a session.
func Filename(sessionName string, ts time.Time) string {
	return fmt.Sprintf("%s-%s.json", sanitizeName(sessionName), ts.Format("20060102-150405"))
}

// Write serializes one session result and writes it to dir. The run timestamp
// keeps filenames from colliding across repeated runs of the same script.
func Write(dir string, runTS time.Time, sr *models.SessionResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}

	name := Filename(sr.Name, runTS)
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(sr, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}

	return path, nil
}
