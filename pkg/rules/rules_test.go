package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return e
}

func TestIsExcludedFolder(t *testing.T) {
	e := newEngine(t, Config{ExcludeNames: []string{"node_modules, __pycache__"}})

	tests := []struct {
		name string
		want bool
	}{
		{".git", true},
		{".idea", true},
		{".venv", true},
		{"venv", true},
		{"node_modules", true},
		{"__pycache__", true},
		{"Venv", false},
		{".GIT", false},
		{"src", false},
		{"git", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.IsExcludedFolder(tt.name))
		})
	}
}

func TestIsBundleEligible(t *testing.T) {
	e := newEngine(t, Config{
		Extensions:   []string{".py", "MD"},
		IncludeNames: []string{"Dockerfile"},
	})

	tests := []struct {
		name string
		want bool
	}{
		{"notes.PY", true},
		{"NOTES.PY", true},
		{"notes.py", true},
		{"notes.python", false},
		{"README.md", true},
		{"README.Md", true},
		{"Dockerfile", true},
		{"dockerfile", false},
		{"Dockerfile.prod", false},
		{"Makefile", false},
		{"script.sh", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.IsBundleEligible(tt.name))
		})
	}
}

func TestIsBundleEligibleDotfiles(t *testing.T) {
	e := newEngine(t, Config{Extensions: []string{".env", ".txt"}})

	tests := []struct {
		name string
		want bool
	}{
		{".env", false},
		{".txt", false},
		{"prod.env", true},
		{".prod.env", true},
		{"..env", true},
		{"notes.", false},
		{"notes.TXT", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.IsBundleEligible(tt.name))
		})
	}
}

func TestExt(t *testing.T) {
	tests := map[string]string{
		"main.py":     ".py",
		"archive.tar": ".tar",
		"a.tar.gz":    ".gz",
		".env":        "",
		".bashrc":     "",
		"Makefile":    "",
		"trailing.":   "",
		".config.yml": ".yml",
		"":            "",
	}
	for name, want := range tests {
		assert.Equal(t, want, Ext(name), "name %q", name)
	}
}

func TestDefaultExtensions(t *testing.T) {
	e := newEngine(t, Config{})

	assert.Equal(t, []string{".py", ".sh", ".sql", ".txt"}, e.Extensions())
	assert.True(t, e.IsBundleEligible("run.SH"))
	assert.False(t, e.IsBundleEligible("main.go"))
	assert.Equal(t, []string{".git", ".idea", ".venv", "venv"}, e.Excludes())
}

func TestIsIgnored(t *testing.T) {
	e := newEngine(t, Config{IgnorePatterns: []string{"dist/**", "*.min.js,*.map"}})

	assert.True(t, e.IsIgnored("dist", true))
	assert.True(t, e.IsIgnored("dist/app.js", false))
	assert.True(t, e.IsIgnored("dist/sub/app.js", false))
	assert.False(t, e.IsIgnored("build/dist/app.js", false))
	assert.False(t, e.IsIgnored("build/dist", true))
	assert.True(t, e.IsIgnored("web/app.min.js", false))
	assert.True(t, e.IsIgnored("app.js.map", false))
	assert.False(t, e.IsIgnored("web/app.js", false))
	assert.Equal(t, []string{"dist/**", "*.min.js", "*.map"}, e.Patterns())
}

func TestNewRejectsMalformedPattern(t *testing.T) {
	_, err := New(Config{IgnorePatterns: []string{"ok/*", "bad["}}, nil)
	require.Error(t, err)

	var patternErr *PatternError
	require.True(t, errors.As(err, &patternErr))
	assert.Equal(t, "bad[", patternErr.Pattern)
}

func TestNormalizeExtensions(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "empty uses defaults", in: nil, want: DefaultExtensions},
		{name: "blank entries use defaults", in: []string{" , "}, want: DefaultExtensions},
		{name: "adds dots and lowers case", in: []string{"PY", ".Md"}, want: []string{".py", ".md"}},
		{name: "drops duplicates", in: []string{".py,py,.PY"}, want: []string{".py"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeExtensions(tt.in))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList())
	assert.Nil(t, SplitList("", " , "))
	assert.Equal(t, []string{"a", "b", "c"}, SplitList(" a ,b", "c,"))
}
