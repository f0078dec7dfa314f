package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"treeme/pkg/combine"
	"treeme/pkg/rules"

	"go.uber.org/zap"
)

// runCombine prints the effective configuration, runs the snapshot, and
// reports how many files went into the bundle.
func (a *app) runCombine(out io.Writer, opts combine.Options) error {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		root = opts.Root
	}

	fmt.Fprintf(out, "Root: %s\n", root)
	fmt.Fprintf(out, "Tree file: %s\n", opts.TreeOut)
	fmt.Fprintf(out, "Bundle file: %s\n", opts.BundleOut)
	fmt.Fprintf(out, "Auto excludes: %s\n", listOrNone(rules.AutoExcludes))
	fmt.Fprintf(out, "Extra excludes: %s\n", listOrNone(opts.Exclude))
	fmt.Fprintf(out, "Ignore globs: %s\n", listOrNone(sorted(opts.Ignore)))
	fmt.Fprintf(out, "Extensions: %s\n", listOrNone(sorted(rules.NormalizeExtensions(opts.Exts))))
	fmt.Fprintf(out, "Include names: %s\n", listOrNone(opts.IncludeNames))

	result, err := combine.Run(a.fs, opts, a.logger)
	if err != nil {
		a.logger.Error("Snapshot failed", zap.Error(err))
		return err
	}

	fmt.Fprintf(out, "Collected %d file(s) for bundling.\n", result.Bundle.Sections)
	if result.Bundle.Failed > 0 {
		fmt.Fprintf(out, "Unreadable: %d file(s), see the notes in %s.\n", result.Bundle.Failed, opts.BundleOut)
	}
	fmt.Fprintln(out, "Done.")
	return nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

// sorted returns a sorted copy of items for display.
func sorted(items []string) []string {
	out := append([]string(nil), items...)
	sort.Strings(out)
	return out
}
