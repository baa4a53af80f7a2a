package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathClean replace ~/ by user's home directory, expands environment
// variables and call filepath.Clean to secure the path
func PathClean(p string) (string, error) {
	p = os.ExpandEnv(strings.TrimSpace(p))
	if p == "" {
		p = "."
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("can't expand %q: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return filepath.Clean(p), nil
}
