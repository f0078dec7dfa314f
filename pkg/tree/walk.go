// Package tree walks a directory with exclusion rules applied and renders
// the surviving entries as an ASCII tree.
package tree

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"

	"treeme/pkg/rules"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Kind distinguishes the entries that can appear in a tree.
type Kind int

const (
	// KindDir is a directory.
	KindDir Kind = iota
	// KindFile is a regular file.
	KindFile
)

// Entry is one surviving directory or regular file.
type Entry struct {
	Name       string   // Base name.
	RelPath    string   // Path relative to the root, forward slashes; "" for the root.
	Kind       Kind     // Directory or regular file.
	Children   []*Entry // Directories first, then files, each by name.
	Unreadable bool     // The directory could not be listed.
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool { return e.Kind == KindDir }

// Walker builds a filtered Entry tree from a filesystem.
type Walker struct {
	Fs        afero.Fs
	Rules     *rules.Engine
	Logger    *zap.Logger
	SkipFiles map[string]struct{} // Root-relative file paths that are never listed.
}

// NewWalker returns a Walker over fsys. A nil logger is replaced by a no-op one.
func NewWalker(fsys afero.Fs, engine *rules.Engine, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		Fs:        fsys,
		Rules:     engine,
		Logger:    logger,
		SkipFiles: map[string]struct{}{},
	}
}

// Skip excludes a root-relative file path from the walk.
func (w *Walker) Skip(relPath string) {
	w.SkipFiles[filepath.ToSlash(relPath)] = struct{}{}
}

// Walk descends depth-first from root and returns the filtered tree.
// It fails only when root cannot be stat-ed or is not a directory; errors
// below the root are logged and the affected directory is left empty.
func (w *Walker) Walk(root string) (*Entry, error) {
	info, err := w.Fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root '%s': %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root '%s': %w", root, ErrNotDirectory)
	}

	rootEntry := &Entry{
		Name: filepath.Base(root),
		Kind: KindDir,
	}
	w.walkDir(root, rootEntry)
	return rootEntry, nil
}

// walkDir lists dirPath and attaches the surviving children to parent.
func (w *Walker) walkDir(dirPath string, parent *Entry) {
	infos, err := afero.ReadDir(w.Fs, dirPath)
	if err != nil {
		w.Logger.Warn("Failed to read directory, skipping its contents",
			zap.String("directory", dirPath), zap.Error(err))
		parent.Unreadable = true
		return
	}

	for _, info := range infos {
		name := info.Name()
		relPath := path.Join(parent.RelPath, name)
		mode := info.Mode()

		switch {
		case mode&fs.ModeSymlink != 0:
			w.Logger.Debug("Skipping symlink", zap.String("path", relPath))

		case mode.IsDir():
			if w.Rules.IsExcludedFolder(name) {
				w.Logger.Debug("Skipping excluded directory", zap.String("path", relPath))
				continue
			}
			if w.Rules.IsIgnored(relPath, true) {
				w.Logger.Debug("Skipping ignored directory", zap.String("path", relPath))
				continue
			}
			child := &Entry{Name: name, RelPath: relPath, Kind: KindDir}
			w.walkDir(filepath.Join(dirPath, name), child)
			parent.Children = append(parent.Children, child)

		case mode.IsRegular():
			if _, skip := w.SkipFiles[relPath]; skip {
				w.Logger.Debug("Skipping output file", zap.String("path", relPath))
				continue
			}
			if w.Rules.IsIgnored(relPath, false) {
				w.Logger.Debug("Skipping ignored file", zap.String("path", relPath))
				continue
			}
			parent.Children = append(parent.Children, &Entry{Name: name, RelPath: relPath, Kind: KindFile})

		default:
			w.Logger.Debug("Skipping special file", zap.String("path", relPath), zap.Stringer("mode", mode))
		}
	}

	sortEntries(parent.Children)
}

// sortEntries orders directories before files, each group by byte-wise name.
func sortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name < entries[j].Name
	})
}

// Files returns the file leaves in depth-first render order.
func (e *Entry) Files() []*Entry {
	var files []*Entry
	for _, child := range e.Children {
		if child.IsDir() {
			files = append(files, child.Files()...)
			continue
		}
		files = append(files, child)
	}
	return files
}

// Count returns the number of directories and files below e.
func (e *Entry) Count() (dirs, files int) {
	for _, child := range e.Children {
		if !child.IsDir() {
			files++
			continue
		}
		d, f := child.Count()
		dirs += d + 1
		files += f
	}
	return dirs, files
}
