package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolveWorkspacePath resolves path against root and rejects any target
// whose canonical form (symlinks resolved) is not root itself or a
// descendant of root. For write targets that don't exist yet, the nearest
// existing ancestor is resolved instead so a symlinked parent can't smuggle
// the target outside the root.
func resolveWorkspacePath(root, path string) (string, error) {
	if path == "" {
		path = "."
	}
	var candidate string
	if filepath.IsAbs(path) {
		candidate = filepath.Clean(path)
	} else {
		candidate = filepath.Clean(filepath.Join(root, path))
	}

	rootReal, err := filepath.EvalSymlinks(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("resolving workspace root: %w", err)
	}
	resolved, err := evalNearestExisting(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", path, err)
	}

	rel, err := filepath.Rel(rootReal, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes workspace root", path)
	}
	return candidate, nil
}

// evalNearestExisting canonicalizes path even when its tail does not exist
// yet: the deepest existing ancestor is symlink-resolved and the remaining
// components are re-joined textually. The re-joined tail cannot contain
// ".." since the candidate was already Clean-ed.
func evalNearestExisting(path string) (string, error) {
	var tail []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			if len(tail) == 0 {
				return resolved, nil
			}
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}
		tail = append([]string{filepath.Base(current)}, tail...)
		current = parent
	}
}
