// Package combine runs the whole snapshot: it walks the root once, renders
// the tree, and writes the tree and the text bundle to their destinations.
package combine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"treeme/pkg/bundle"
	"treeme/pkg/rules"
	"treeme/pkg/tree"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Run scans opts.Root on fsys and writes both outputs. Configuration
// problems are reported as *ConfigError before any output is written.
func Run(fsys afero.Fs, opts Options, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	startTime := time.Now()

	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	result, err := resolvePaths(opts)
	if err != nil {
		return Result{}, err
	}
	logger.Info("Starting snapshot",
		zap.String("root", result.Root),
		zap.String("treeFile", result.TreeOut),
		zap.String("bundleFile", result.BundleOut))

	info, err := fsys.Stat(result.Root)
	if err != nil {
		logger.Error("Cannot access root directory", zap.String("root", result.Root), zap.Error(err))
		return Result{}, &ConfigError{Err: fmt.Errorf("root '%s': %w", opts.Root, err)}
	}
	if !info.IsDir() {
		logger.Error("Root is not a directory", zap.String("root", result.Root))
		return Result{}, &ConfigError{Err: fmt.Errorf("root '%s': %w", opts.Root, tree.ErrNotDirectory)}
	}

	engine, err := rules.New(opts.RulesConfig(), logger)
	if err != nil {
		return Result{}, &ConfigError{Err: err}
	}

	walker := tree.NewWalker(fsys, engine, logger)
	for _, out := range []string{result.TreeOut, result.BundleOut} {
		if rel, ok := relativeTo(result.Root, out); ok {
			walker.Skip(rel)
		}
	}

	root, err := walker.Walk(result.Root)
	if err != nil {
		if errors.Is(err, tree.ErrNotDirectory) {
			return Result{}, &ConfigError{Err: err}
		}
		return Result{}, fmt.Errorf("failed to walk root: %w", err)
	}
	result.Dirs, result.Files = root.Count()
	logger.Debug("Walk finished", zap.Int("dirs", result.Dirs), zap.Int("files", result.Files))

	treeContent := tree.Render(root)
	if err := writeOutput(fsys, result.TreeOut, logger, func(w io.Writer) error {
		_, err := io.WriteString(w, treeContent)
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("failed to write tree: %w", err)
	}

	collector := bundle.NewCollector(fsys, engine, logger)
	if err := writeOutput(fsys, result.BundleOut, logger, func(w io.Writer) error {
		stats, err := collector.Collect(w, root, result.Root)
		result.Bundle = stats
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("failed to write bundle: %w", err)
	}

	result.Elapsed = time.Since(startTime)
	logger.Info("Snapshot completed",
		zap.Int("bundledFiles", result.Bundle.Sections),
		zap.Int("unreadableFiles", result.Bundle.Failed),
		zap.Duration("elapsed", result.Elapsed))
	return result, nil
}

// resolvePaths makes the root and both outputs absolute.
func resolvePaths(opts Options) (Result, error) {
	var result Result
	var err error

	if result.Root, err = filepath.Abs(opts.Root); err != nil {
		return Result{}, &ConfigError{Err: fmt.Errorf("failed to resolve root '%s': %w", opts.Root, err)}
	}
	if result.TreeOut, err = filepath.Abs(opts.TreeOut); err != nil {
		return Result{}, &ConfigError{Err: fmt.Errorf("failed to resolve tree output '%s': %w", opts.TreeOut, err)}
	}
	if result.BundleOut, err = filepath.Abs(opts.BundleOut); err != nil {
		return Result{}, &ConfigError{Err: fmt.Errorf("failed to resolve bundle output '%s': %w", opts.BundleOut, err)}
	}
	return result, nil
}

// relativeTo returns target relative to root when target lies inside root.
func relativeTo(root, target string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// writeOutput truncates path and streams write's output into it through a
// buffered writer. Parent directories are created as needed.
func writeOutput(fsys afero.Fs, path string, logger *zap.Logger, write func(w io.Writer) error) (err error) {
	if err := ensureDirectory(fsys, filepath.Dir(path), logger); err != nil {
		return err
	}

	outFile, err := fsys.Create(path)
	if err != nil {
		logger.Error("Failed to create output file", zap.String("file", path), zap.Error(err))
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := outFile.Close(); closeErr != nil {
			logger.Error("Failed to close output file", zap.String("file", path), zap.Error(closeErr))
			err = multierr.Append(err, fmt.Errorf("failed to close output file: %w", closeErr))
		}
	}()

	writer := bufio.NewWriter(outFile)
	if err := write(writer); err != nil {
		logger.Error("Failed to write output file", zap.String("file", path), zap.Error(err))
		return err
	}
	if err := writer.Flush(); err != nil {
		logger.Error("Failed to flush output file", zap.String("file", path), zap.Error(err))
		return fmt.Errorf("failed to flush output: %w", err)
	}

	logger.Debug("Successfully wrote file", zap.String("path", path))
	return nil
}

// ensureDirectory ensures a directory exists, creating it if necessary.
func ensureDirectory(fsys afero.Fs, path string, logger *zap.Logger) error {
	if err := fsys.MkdirAll(path, 0o755); err != nil {
		logger.Error("Failed to create directory", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
