package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun checks if the current process is running via `go run` or
// `go test`. Both build their binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	tempDir := os.TempDir()
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(tempDir)) {
		return true
	}

	if strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe") {
		return true
	}

	return false
}

// ResolvePlanPath determines the actual plan directory. When forceTemp
// is set, the path is re-rooted into a namespaced temp directory so a
// dev run cannot touch real drawings. Paths already inside the system
// temp directory (e.g. from t.TempDir()) are trusted as-is.
func ResolvePlanPath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	cleanUserPath := filepath.Clean(userPath)
	tempRoot := os.TempDir()

	rel, err := filepath.Rel(tempRoot, cleanUserPath)
	if err == nil && !strings.HasPrefix(rel, "..") {
		return cleanUserPath
	}

	baseTemp := filepath.Join(os.TempDir(), "jamb-dev")
	subName := filepath.Base(userPath)
	if userPath == "" || subName == "." || subName == string(os.PathSeparator) {
		subName = "default"
	}

	return filepath.Join(baseTemp, subName)
}
