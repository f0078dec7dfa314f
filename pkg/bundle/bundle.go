// Package bundle concatenates the contents of bundle-eligible files into a
// single text stream, each section headed by the file's relative path.
package bundle

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"treeme/pkg/rules"
	"treeme/pkg/tree"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SeparatorLine frames every section header.
var SeparatorLine = strings.Repeat("=", 80)

// Section is one file's contribution to the bundle.
type Section struct {
	Path    string // Relative path, forward slashes.
	Content string // Decoded text; invalid UTF-8 replaced by U+FFFD.
	Err     error  // Set when the file could not be opened or read.
}

// Stats summarizes a Collect call.
type Stats struct {
	Sections int   // Sections written, failed ones included.
	Failed   int   // Files that could not be opened or read.
	Bytes    int64 // Bytes written.
}

// Collector reads eligible files below a walked tree.
type Collector struct {
	Fs     afero.Fs
	Rules  *rules.Engine
	Logger *zap.Logger
}

// NewCollector returns a Collector. A nil logger is replaced by a no-op one.
func NewCollector(fsys afero.Fs, engine *rules.Engine, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{Fs: fsys, Rules: engine, Logger: logger}
}

// Sections returns a section for each bundle-eligible file of root, in the
// same depth-first order the tree is rendered in. rootPath is the directory
// the tree was walked from.
func (c *Collector) Sections(root *tree.Entry, rootPath string) []Section {
	var sections []Section
	for _, file := range root.Files() {
		if !c.Rules.IsBundleEligible(file.Name) {
			c.Logger.Debug("File not eligible for bundle", zap.String("path", file.RelPath))
			continue
		}
		sections = append(sections, c.readSection(rootPath, file.RelPath))
	}
	return sections
}

// Collect writes every section to w. Unreadable files produce a section
// carrying an error note; only a failure to write to w is returned.
func (c *Collector) Collect(w io.Writer, root *tree.Entry, rootPath string) (Stats, error) {
	var stats Stats
	for _, section := range c.Sections(root, rootPath) {
		n, err := io.WriteString(w, FormatSection(section))
		stats.Bytes += int64(n)
		if err != nil {
			c.Logger.Error("Failed to write bundle section",
				zap.String("path", section.Path), zap.Error(err))
			return stats, fmt.Errorf("failed to write section for '%s': %w", section.Path, err)
		}
		stats.Sections++
		if section.Err != nil {
			stats.Failed++
		}
	}

	c.Logger.Debug("Bundle collected",
		zap.Int("sections", stats.Sections),
		zap.Int("failed", stats.Failed),
		zap.Int64("bytes", stats.Bytes))
	return stats, nil
}

// FormatSection renders a section: separator, FILE line, separator, blank
// line, newline-terminated content, and a trailing blank line.
func FormatSection(s Section) string {
	var b strings.Builder
	b.WriteString(SeparatorLine + "\n")
	b.WriteString("FILE: " + s.Path + "\n")
	b.WriteString(SeparatorLine + "\n")
	b.WriteString("\n")

	body := s.Content
	if s.Err != nil {
		body = fmt.Sprintf("[ERROR READING FILE: %v]", s.Err)
	}
	b.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// readSection reads one file permissively.
func (c *Collector) readSection(rootPath, relPath string) Section {
	section := Section{Path: relPath}
	filePath := filepath.Join(rootPath, filepath.FromSlash(relPath))

	content, err := c.readText(filePath)
	if err != nil {
		c.Logger.Warn("Failed to read file, writing a note instead",
			zap.String("filePath", filePath), zap.Error(err))
		section.Err = err
		return section
	}

	c.Logger.Debug("Read file content",
		zap.String("filePath", filePath),
		zap.Int("contentSizeBytes", len(content)))
	section.Content = content
	return section
}

// readText returns the file's content as valid UTF-8.
func (c *Collector) readText(filePath string) (string, error) {
	f, err := c.Fs.Open(filePath)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := f.Close(); err != nil {
			c.Logger.Debug("Failed to close file", zap.String("filePath", filePath), zap.Error(err))
		}
	}()

	decoded, err := io.ReadAll(transform.NewReader(f, unicode.UTF8.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
