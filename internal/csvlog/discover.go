package csvlog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/smc-telemetry/internal/fsutil"
	"github.com/banshee-data/smc-telemetry/internal/telemetry"
)

// Latest returns the most recently modified file in dir matching glob.
// Ties go to the lexically greatest name, which for timestamped names is the
// later session. No match is a telemetry.KindMissingFile error.
func Latest(fsys fsutil.FileSystem, dir, glob string) (string, error) {
	pattern := filepath.Join(dir, glob)
	matches, err := fsys.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("search %s: %w", pattern, err)
	}

	var (
		best     string
		bestInfo os.FileInfo
	)
	for _, name := range matches {
		info, err := fsys.Stat(name)
		if err != nil || info.IsDir() {
			continue
		}
		if bestInfo == nil ||
			info.ModTime().After(bestInfo.ModTime()) ||
			(info.ModTime().Equal(bestInfo.ModTime()) && name > best) {
			best, bestInfo = name, info
		}
	}

	if best == "" {
		return "", telemetry.MissingFileError("find latest log", fmt.Errorf("no file matches %s", pattern))
	}
	return best, nil
}
