package combine

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"treeme/pkg/bundle"
	"treeme/pkg/rules"
)

// Default output destinations and scan root.
const (
	DefaultRoot      = "."
	DefaultTreeOut   = "tree.txt"
	DefaultBundleOut = "all_texts.txt"
)

// Options holds the resolved configuration for one run.
type Options struct {
	Root         string   // Directory to scan.
	Exclude      []string // Extra folder names to skip at any depth.
	Ignore       []string // Glob patterns matched against root-relative paths.
	Exts         []string // Extensions to bundle; empty means rules.DefaultExtensions.
	IncludeNames []string // Exact file names to bundle regardless of extension.
	TreeOut      string   // Destination of the rendered tree.
	BundleOut    string   // Destination of the concatenated bundle.
}

// DefaultOptions returns the options used when no flags are given.
func DefaultOptions() Options {
	return Options{
		Root:      DefaultRoot,
		Exts:      append([]string(nil), rules.DefaultExtensions...),
		TreeOut:   DefaultTreeOut,
		BundleOut: DefaultBundleOut,
	}
}

// RulesConfig maps the options onto the rule engine input.
func (o Options) RulesConfig() rules.Config {
	return rules.Config{
		ExcludeNames:   o.Exclude,
		IgnorePatterns: o.Ignore,
		Extensions:     o.Exts,
		IncludeNames:   o.IncludeNames,
	}
}

// Validate checks the options that can be verified without touching the
// filesystem.
func (o Options) Validate() error {
	if o.Root == "" {
		return &ConfigError{Err: errors.New("root directory must not be empty")}
	}
	if o.TreeOut == "" {
		return &ConfigError{Err: errors.New("tree output path must not be empty")}
	}
	if o.BundleOut == "" {
		return &ConfigError{Err: errors.New("bundle output path must not be empty")}
	}
	if filepath.Clean(o.TreeOut) == filepath.Clean(o.BundleOut) {
		return &ConfigError{Err: fmt.Errorf("tree and bundle outputs both point to '%s'", o.TreeOut)}
	}
	return nil
}

// ConfigError marks failures caused by the run's configuration: a missing
// root, a root that is not a directory, or a malformed ignore pattern.
// Nothing is written when Run returns one.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Result describes a completed run.
type Result struct {
	Root      string       // Absolute scan root.
	TreeOut   string       // Absolute tree output path.
	BundleOut string       // Absolute bundle output path.
	Dirs      int          // Directories in the tree, root excluded.
	Files     int          // Files in the tree.
	Bundle    bundle.Stats // Bundle statistics.
	Elapsed   time.Duration
}
