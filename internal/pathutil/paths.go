// Package pathutil keeps generated files inside the directory they were
// requested for.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RedactPath reduces a full path to .../<parent>/<basename> for log and
// error messages, e.g. "/srv/course/labs/data/access_30DAY.log" becomes
// ".../data/access_30DAY.log".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// JoinWithin joins name onto dir and rejects results that escape dir, either
// lexically ("../x") or through a symlinked parent.
func JoinWithin(dir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("output name is empty")
	}
	if strings.ContainsRune(name, '\x00') {
		return "", fmt.Errorf("output name contains null byte")
	}
	target := filepath.Join(dir, name)
	if err := EnsureWithin(target, dir); err != nil {
		return "", err
	}
	return target, nil
}

// EnsureWithin checks that path resolves to root or somewhere below it.
// Missing trailing components are allowed so the check works before the
// file is created.
func EnsureWithin(path, root string) error {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("resolving %s: %w", RedactPath(path), err)
	}
	absRoot, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return fmt.Errorf("resolving %s: %w", RedactPath(root), err)
	}

	resolvedDir, err := resolveExistingParent(filepath.Dir(absPath))
	if err != nil {
		return err
	}
	resolvedPath := filepath.Join(resolvedDir, filepath.Base(absPath))

	resolvedRoot, err := resolveExistingParent(absRoot)
	if err != nil {
		return err
	}

	if !isSubpath(resolvedPath, resolvedRoot) {
		return fmt.Errorf("%q is outside output directory %q", RedactPath(absPath), RedactPath(absRoot))
	}
	return nil
}

// resolveExistingParent resolves symlinks on the deepest existing ancestor
// and re-appends the missing tail.
func resolveExistingParent(dir string) (string, error) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(dir))
	}

	resolvedParent, err := resolveExistingParent(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

func isSubpath(path, base string) bool {
	if path == base {
		return true
	}
	if !strings.HasSuffix(base, string(os.PathSeparator)) {
		base += string(os.PathSeparator)
	}
	return strings.HasPrefix(path, base)
}
