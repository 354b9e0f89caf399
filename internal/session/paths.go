package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GenerateExportPath creates a timestamped export filename in dir
func GenerateExportPath(dir, name string) string {
	if name == "" {
		name = "edited-image"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("%s_%s.png", name, timestamp))
}

// GenerateScriptPath creates a timestamped script filename in dir
func GenerateScriptPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("session_%s.yaml", timestamp))
}

// FindLatestScript returns the .yaml script in dir with the newest
// modification time. Entries that cannot be stat'ed, such as dangling
// links, are skipped.
func FindLatestScript(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read scripts dir: %w", err)
	}

	var latest string
	var latestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		fi, err := os.Stat(path)
		if err != nil || fi.IsDir() {
			continue
		}
		if latest == "" || fi.ModTime().After(latestMod) {
			latest, latestMod = path, fi.ModTime()
		}
	}

	if latest == "" {
		return "", fmt.Errorf("no scripts in %s", dir)
	}
	return latest, nil
}

// scriptName derives an export base name from a script path.
func scriptName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
