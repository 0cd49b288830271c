package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// matrixExtensions lists the file extensions the matrix loader understands.
var matrixExtensions = map[string]bool{
	".json": true,
	".csv":  true,
}

// discoverMatrixFiles finds all matrix files matching the given patterns.
func discoverMatrixFiles(args []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var matrixFiles []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			files, err := discoverInDirectory(arg, recursive, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			matrixFiles = append(matrixFiles, files...)
		} else if shouldIncludeFile(arg, includePatterns, excludePatterns) {
			matrixFiles = append(matrixFiles, arg)
		}
	}

	return matrixFiles, nil
}

// discoverInDirectory walks a directory collecting matrix files.
func discoverInDirectory(dir string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if !matrixExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		if shouldIncludeFile(path, includePatterns, excludePatterns) {
			files = append(files, path)
		}

		return nil
	}

	return files, filepath.Walk(dir, walkFn)
}

// shouldIncludeFile determines if a file should be included based on include/exclude patterns.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}

	if len(includePatterns) == 0 {
		return true
	}

	return matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern checks if a file path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
