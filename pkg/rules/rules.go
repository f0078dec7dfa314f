// Package rules decides which directory entries are excluded, ignored, or
// eligible for the text bundle.
package rules

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// AutoExcludes are folder names skipped regardless of user input.
var AutoExcludes = []string{".git", ".idea", ".venv", "venv"}

// DefaultExtensions are bundled when no extensions are configured.
var DefaultExtensions = []string{".txt", ".sh", ".py", ".sql"}

// Config holds the raw rule inputs, typically straight from the command line.
type Config struct {
	ExcludeNames   []string // Extra folder names, unioned with AutoExcludes.
	IgnorePatterns []string // Globs matched against root-relative paths.
	Extensions     []string // Bundle-eligible extensions; dot optional, any case.
	IncludeNames   []string // Exact file names that are always bundle-eligible.
}

// Engine is the compiled, read-only rule set for one run.
type Engine struct {
	excludes     map[string]struct{}
	patterns     []*Pattern
	extensions   map[string]struct{}
	includeNames map[string]struct{}
	logger       *zap.Logger
}

// New compiles cfg into an Engine. It fails with a *PatternError when an
// ignore pattern is malformed.
func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		excludes:     toSet(AutoExcludes),
		extensions:   toSet(NormalizeExtensions(cfg.Extensions)),
		includeNames: toSet(SplitList(cfg.IncludeNames...)),
		logger:       logger,
	}
	for _, name := range SplitList(cfg.ExcludeNames...) {
		e.excludes[name] = struct{}{}
	}

	for _, raw := range SplitList(cfg.IgnorePatterns...) {
		p, err := CompilePattern(raw)
		if err != nil {
			logger.Error("Invalid ignore pattern", zap.String("pattern", raw), zap.Error(err))
			return nil, err
		}
		e.patterns = append(e.patterns, p)
		logger.Debug("Compiled ignore pattern",
			zap.String("pattern", p.Source),
			zap.String("regex", p.Regexp.String()),
			zap.Bool("dirOnly", p.DirOnly))
	}

	return e, nil
}

// IsExcludedFolder reports whether a directory with this name is skipped
// together with its subtree. Comparison is case-sensitive.
func (e *Engine) IsExcludedFolder(name string) bool {
	_, ok := e.excludes[name]
	return ok
}

// IsIgnored reports whether relPath matches any ignore pattern. relPath is
// relative to the scan root and uses forward slashes.
func (e *Engine) IsIgnored(relPath string, isDir bool) bool {
	for _, p := range e.patterns {
		if p.Match(relPath, isDir) {
			e.logger.Debug("Path matches ignore pattern",
				zap.String("path", relPath),
				zap.String("pattern", p.Source))
			return true
		}
	}
	return false
}

// IsBundleEligible reports whether a regular file with this name goes into
// the bundle: by lower-cased extension, or by exact name.
func (e *Engine) IsBundleEligible(fileName string) bool {
	if _, ok := e.includeNames[fileName]; ok {
		return true
	}
	_, ok := e.extensions[strings.ToLower(Ext(fileName))]
	return ok
}

// Ext returns the extension of a file name, including its dot. A name whose
// only dot is leading (".env") or trailing ("notes.") has no extension.
func Ext(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

// Excludes returns the effective folder excludes, sorted.
func (e *Engine) Excludes() []string { return sortedKeys(e.excludes) }

// Extensions returns the effective extension set, sorted.
func (e *Engine) Extensions() []string { return sortedKeys(e.extensions) }

// IncludeNames returns the exact-name set, sorted.
func (e *Engine) IncludeNames() []string { return sortedKeys(e.includeNames) }

// Patterns returns the ignore patterns in the order they were given.
func (e *Engine) Patterns() []string {
	out := make([]string, 0, len(e.patterns))
	for _, p := range e.patterns {
		out = append(out, p.Source)
	}
	return out
}

// NormalizeExtensions returns lower-case, dot-prefixed, de-duplicated
// extensions. An empty input yields DefaultExtensions.
func NormalizeExtensions(exts []string) []string {
	items := SplitList(exts...)
	if len(items) == 0 {
		items = DefaultExtensions
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, ext := range items {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

// SplitList splits every value on commas, trims the parts, and drops empty
// ones. Order is preserved.
func SplitList(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
