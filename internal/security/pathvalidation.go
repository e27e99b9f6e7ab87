// Package security holds path validation shared by the CLIs and the
// output writers.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory checks that filePath stays inside safeDir
// after resolving . and .. components. It guards the output tree writer
// against tag or uid values that would otherwise escape the output root
// (a raw file is untrusted input; a type tag of "../../etc" must not
// become a directory traversal).
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	rel, err := filepath.Rel(absSafeDir, absPath)
	if err != nil {
		return fmt.Errorf("failed to relate %q to %q: %w", absPath, absSafeDir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes directory %q", filePath, safeDir)
	}

	return nil
}

// SanitizePathComponent rejects a single path component (a uid or type
// tag used as a directory name) that contains separators or dot-dot.
func SanitizePathComponent(component string) error {
	if component == "" {
		return fmt.Errorf("empty path component")
	}
	if component == "." || component == ".." {
		return fmt.Errorf("path component %q not allowed", component)
	}
	if strings.ContainsAny(component, `/\`) {
		return fmt.Errorf("path component %q contains a separator", component)
	}
	return nil
}
