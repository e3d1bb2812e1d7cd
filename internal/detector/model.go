package detector

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolveModelPath finds the newest regular file under dir matching the
// doublestar pattern (e.g. "**/*.onnx"). It returns "" when nothing
// matches; callers treat an absent model as heuristic mode rather than an
// error, mirroring the training pipeline which may not have exported a
// model yet.
func ResolveModelPath(dir, pattern string) (string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}

	var (
		newest     string
		newestTime time.Time
	)
	for _, name := range matches {
		info, err := os.Lstat(name)
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = name
			newestTime = info.ModTime()
		}
	}
	return newest, nil
}
