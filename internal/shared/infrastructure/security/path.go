// Package security validates file paths that arrive as command arguments,
// which may come from a remote MCP client rather than the local user.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathOutsideRoot is returned for a path that resolves outside the allowed root.
var ErrPathOutsideRoot = errors.New("file path escapes base directory")

// dangerousChars contains shell metacharacters that have no business in a document path.
var dangerousChars = []string{";", "&", "|", "$", "`", "<", ">", "!", "\n", "\r"}

// ValidateFilePath cleans path, makes it absolute and resolves symlinks.
// For a file that does not exist yet the parent directory is resolved instead.
func ValidateFilePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return "", fmt.Errorf("file path contains forbidden character %q: %s", char, path)
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return resolve(abs)
}

func resolve(abs string) (string, error) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	dir, base := filepath.Split(abs)
	if dir == abs || base == "" {
		return abs, nil
	}
	parent, err := resolve(filepath.Clean(dir))
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, base), nil
}

// ValidateFilePathInDir validates path and requires it to resolve inside baseDir.
// A relative path is taken relative to baseDir.
func ValidateFilePathInDir(path, baseDir string) (string, error) {
	if baseDir == "" {
		return "", fmt.Errorf("base directory cannot be empty")
	}
	root, err := ValidateFilePath(baseDir)
	if err != nil {
		return "", err
	}
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	clean, err := ValidateFilePath(path)
	if err != nil {
		return "", err
	}
	if clean != root && !strings.HasPrefix(clean, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is not within %s", ErrPathOutsideRoot, path, baseDir)
	}
	return clean, nil
}

// Resolve validates path, inside root when root is set.
func Resolve(path, root string) (string, error) {
	if root == "" {
		return ValidateFilePath(path)
	}
	return ValidateFilePathInDir(path, root)
}

// ReadFile reads a file after validating the path against root.
func ReadFile(path, root string) ([]byte, error) {
	clean, err := Resolve(path, root)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is validated above
	return os.ReadFile(clean)
}

// Open opens a file after validating the path against root.
func Open(path, root string) (*os.File, error) {
	clean, err := Resolve(path, root)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is validated above
	return os.Open(clean)
}

// WriteFile writes data after validating the path against root and returns
// the path written.
func WriteFile(path, root string, data []byte) (string, error) {
	clean, err := Resolve(path, root)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(clean, data, 0o644); err != nil {
		return "", err
	}
	return clean, nil
}
