package rules

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// doubleStar is the segment that matches zero or more whole path segments.
const doubleStar = "**"

// Pattern is a compiled ignore glob.
type Pattern struct {
	Source   string         // Pattern as supplied by the user.
	Regexp   *regexp.Regexp // Compiled, fully anchored expression.
	DirOnly  bool           // Trailing '/' in the source: matches directories only.
	Anchored bool           // Source contains '/': never tried against bare names.
}

// PatternError reports a glob that cannot be compiled.
type PatternError struct {
	Pattern string
	Reason  string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid ignore pattern %q: %s", e.Pattern, e.Reason)
}

// CompilePattern turns a POSIX-style glob into a Pattern.
//
// Patterns are matched against the whole root-relative path. '*' and '?' stay
// inside one segment, a '**' segment spans zero or more segments. Patterns
// without a '/' are also tried against the entry's base name.
func CompilePattern(pattern string) (*Pattern, error) {
	source := pattern
	trimmed := strings.TrimSpace(pattern)
	trimmed = strings.TrimPrefix(trimmed, "./")
	trimmed = strings.TrimLeft(trimmed, "/")

	dirOnly := false
	if strings.HasSuffix(trimmed, "/") {
		dirOnly = true
		trimmed = strings.TrimRight(trimmed, "/")
	}
	if trimmed == "" {
		return nil, &PatternError{Pattern: source, Reason: "empty pattern"}
	}

	segments := collapseSegments(strings.Split(trimmed, "/"))
	expr, err := segmentsToRegex(segments)
	if err != nil {
		return nil, &PatternError{Pattern: source, Reason: err.Error()}
	}

	compiled, err := regexp.Compile("^" + expr + "$")
	if err != nil {
		return nil, &PatternError{Pattern: source, Reason: err.Error()}
	}

	return &Pattern{
		Source:   source,
		Regexp:   compiled,
		DirOnly:  dirOnly,
		Anchored: len(segments) > 1,
	}, nil
}

// Match reports whether relPath (forward slashes, relative to the scan root)
// is matched by the pattern.
func (p *Pattern) Match(relPath string, isDir bool) bool {
	if p.DirOnly && !isDir {
		return false
	}
	if p.Regexp.MatchString(relPath) {
		return true
	}
	if p.Anchored {
		return false
	}
	return p.Regexp.MatchString(path.Base(relPath))
}

// collapseSegments drops empty segments and folds runs of '**'.
func collapseSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if seg == doubleStar && len(out) > 0 && out[len(out)-1] == doubleStar {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// segmentsToRegex joins per-segment expressions, expanding '**' segments.
func segmentsToRegex(segments []string) (string, error) {
	var b strings.Builder
	last := len(segments) - 1

	for i, seg := range segments {
		if seg == doubleStar {
			switch {
			case i == 0 && i == last:
				b.WriteString(`.*`)
			case i == 0:
				b.WriteString(`(?:.*/)?`)
			case i == last:
				b.WriteString(`(?:/.*)?`)
			default:
				b.WriteString(`(?:/.*)?/`)
			}
			continue
		}

		if i > 0 && segments[i-1] != doubleStar {
			b.WriteString("/")
		}
		expr, err := segmentToRegex(seg)
		if err != nil {
			return "", err
		}
		b.WriteString(expr)
	}

	return b.String(), nil
}

// segmentToRegex converts the wildcards of a single path segment.
func segmentToRegex(seg string) (string, error) {
	var b strings.Builder
	runes := []rune(seg)

	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			// A '**' that is not a whole segment behaves like '*'.
			for i+1 < len(runes) && runes[i+1] == '*' {
				i++
			}
			b.WriteString(`[^/]*`)
		case '?':
			b.WriteString(`[^/]`)
		case '\\':
			if i+1 >= len(runes) {
				return "", fmt.Errorf("trailing escape character")
			}
			i++
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
		case '[':
			class, next, err := classToRegex(runes, i)
			if err != nil {
				return "", err
			}
			b.WriteString(class)
			i = next
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	return b.String(), nil
}

// classToRegex translates the bracket expression starting at runes[start].
// It returns the expression and the index of the closing ']'.
func classToRegex(runes []rune, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1

	negate := false
	if i < len(runes) && (runes[i] == '!' || runes[i] == '^') {
		negate = true
		i++
	}
	if negate {
		b.WriteString(`[^/`)
	} else {
		b.WriteString(`[`)
	}

	first := true
	for ; i < len(runes); i++ {
		r := runes[i]
		if r == ']' && !first {
			b.WriteString(`]`)
			return b.String(), i, nil
		}
		first = false

		switch r {
		case '\\':
			if i+1 >= len(runes) {
				return "", 0, fmt.Errorf("trailing escape character in class")
			}
			i++
			b.WriteString(escapeClassRune(runes[i]))
		case '-':
			b.WriteString(`-`)
		default:
			b.WriteString(escapeClassRune(r))
		}
	}

	return "", 0, fmt.Errorf("unterminated character class")
}

// escapeClassRune quotes a rune for use inside a regexp character class.
func escapeClassRune(r rune) string {
	if strings.ContainsRune(`\-[]^`, r) {
		return `\` + string(r)
	}
	return regexp.QuoteMeta(string(r))
}
