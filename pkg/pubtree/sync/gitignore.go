package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ensureGitignore makes the .gitignore next to a directory's marker cover the
// marker file and every managed path, appending only lines not already
// present. Existing unrelated lines are left untouched.
func (e *Engine) ensureGitignore(dir string) error {
	rec, err := e.markers.Load(dir)
	if err != nil {
		return err
	}
	if len(rec.ManagedFiles) == 0 {
		return nil
	}

	wanted := []string{e.markers.Name()}
	for _, mf := range rec.ManagedFiles {
		wanted = append(wanted, mf.Path)
	}

	path := filepath.Join(dir, ".gitignore")
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	have := make(map[string]bool)
	for _, line := range strings.Split(string(existing), "\n") {
		have[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, w := range wanted {
		if !have[w] {
			missing = append(missing, w)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	content := string(existing)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += strings.Join(missing, "\n") + "\n"

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
