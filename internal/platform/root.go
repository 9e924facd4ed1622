package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindRoot walks upward from startDir looking for a plan root
// indicator: a .jamb directory, a .git directory, or a jamb.toml file.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, ".jamb") || hasFile(dir, ".git") || hasFile(dir, "jamb.toml") {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("plan root not found")
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
