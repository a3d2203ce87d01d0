// Package core holds the pieces shared by the report writers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one output of a report: a file with its content, or a directory
// that must exist even if no file is written into it.
type Entry struct {
	Path      string
	Content   []byte
	Directory bool
}

// FileEntry returns a file entry.
func FileEntry(path string, content []byte) Entry {
	return Entry{Path: path, Content: content}
}

// DirEntry returns a directory entry.
func DirEntry(path string) Entry {
	return Entry{Path: path, Directory: true}
}

// PersistFiles writes entries under root.
// - Creates parent directories as needed (0755 perms).
// - Overwrites existing files (0644 perms); files left by a previous run are not removed.
// - Absolute entry paths are taken as relative to root.
// - Rejects paths that escape root via path traversal.
func PersistFiles(ctx context.Context, root string, entries []Entry) error {
	log := slog.With("op", "PersistFiles")
	if strings.TrimSpace(root) == "" {
		return fmt.Errorf("root path cannot be empty")
	}
	root = filepath.Clean(root)

	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		p := strings.TrimSpace(e.Path)
		if p == "" {
			if e.Directory {
				continue
			}
			return fmt.Errorf("entry %d: file path cannot be empty", i)
		}
		full, ok := resolveUnderRoot(root, p)
		if !ok {
			return fmt.Errorf("entry %d: path escapes root: %s", i, p)
		}

		if e.Directory {
			log.Debug("Ensuring directory exists", "dir", full)
			if err := os.MkdirAll(full, 0o755); err != nil {
				return fmt.Errorf("entry %d: failed to create directory %s: %w", i, full, err)
			}
			continue
		}

		dir := filepath.Dir(full)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("entry %d: failed to create directories for %s: %w", i, full, err)
		}
		log.Debug("Writing file", "path", full, "size", len(e.Content))
		if err := os.WriteFile(full, e.Content, 0o644); err != nil {
			return fmt.Errorf("entry %d: failed to write file %s: %w", i, full, err)
		}
	}
	return nil
}

func resolveUnderRoot(root, p string) (string, bool) {
	rel := filepath.Clean(p)
	if filepath.IsAbs(rel) {
		rel = strings.TrimPrefix(rel, string(os.PathSeparator))
	}
	full := filepath.Clean(filepath.Join(root, rel))
	return full, isPathWithinRoot(root, full)
}

// isPathWithinRoot checks whether target is inside root directory.
func isPathWithinRoot(root, target string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(target))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
