package tool

import (
	"os"
	"path/filepath"
)

func GetRunPositionDir() string {
	exePath, err := os.Executable()
	if err != nil {
		return ""
	}
	exePath, err = filepath.EvalSymlinks(exePath)
	if err != nil {
		return ""
	}
	return filepath.Dir(exePath)
}

// ResolveConfigPath keeps path when it exists or is absolute. A relative path missing from
// the working directory is looked up next to the executable before falling back to path.
func ResolveConfigPath(path string) string {
	if path == "" {
		path = DefaultConfigPath
	}
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if dir := GetRunPositionDir(); dir != "" {
		candidate := filepath.Join(dir, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return path
}
