package tree

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrSkipChildren can be returned from a WalkFunc to skip a subtree
var ErrSkipChildren = errors.New("skip children")

// ValidateName checks that name is a single path segment: not empty,
// not "." or "..", and free of separators.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid name %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("name must not contain path separators: %q", name)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("name must not contain NUL: %q", name)
	}
	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return fmt.Errorf("absolute paths are not allowed: %q", name)
	}
	return nil
}
