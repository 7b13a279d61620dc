package build

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FindFiles lists every regular file under baseDir. A missing baseDir yields
// nothing and a regular file yields itself. Directories that cannot be read
// are skipped.
//
// Symbolic links below baseDir are neither listed nor followed, so a build
// cannot surface files from outside the project through a link.
func FindFiles(baseDir string) []string {
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil
	}
	if info.Mode().IsRegular() {
		return []string{baseDir}
	}
	if !info.IsDir() {
		return nil
	}

	var files []string
	_ = filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	return files
}

// filterArtifacts keeps the files modified strictly after cutoff that
// satisfy isArtifact.
//
// Modification time is only an approximation of "written by this build". Clock
// skew between the host and the engine, or a build that restores cached
// outputs with their original timestamps, will make it miss or over-report.
func filterArtifacts(paths []string, cutoff time.Time, isArtifact func(string) bool) []string {
	var artifacts []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) && isArtifact(path) {
			artifacts = append(artifacts, path)
		}
	}
	return artifacts
}
