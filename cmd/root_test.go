package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"treeme/pkg/combine"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd := NewRootCommand(zaptest.NewLogger(t), afero.NewOsFs())
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	outDir := t.TempDir()
	writeFiles(t, root, map[string]string{
		"app/main.py":           "print('main')\n",
		"app/helper.PY":         "pass\n",
		"docs/README.md":        "# readme\n",
		"Dockerfile":            "FROM scratch\n",
		"node_modules/x/y.txt":  "dependency\n",
		".git/config.txt":       "secret\n",
		"dist/bundle.txt":       "built\n",
		"build/dist/keep.txt":   "kept\n",
		"assets/logo.min.js":    "min\n",
		"scripts/deploy.python": "not bundled\n",
	})
	treeOut := filepath.Join(outDir, "tree.txt")
	bundleOut := filepath.Join(outDir, "nested", "all_texts.txt")

	out, err := runRoot(t,
		"--root", root,
		"--exclude", "node_modules",
		"--ignore", "dist/**,*.min.js",
		"--exts", "py,.MD,.txt",
		"--include-names", "Dockerfile",
		"--out", treeOut,
		"--bundle", bundleOut,
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Root: "+root+"\n")
	assert.Contains(t, out, "Auto excludes: .git, .idea, .venv, venv\n")
	assert.Contains(t, out, "Extra excludes: node_modules\n")
	assert.Contains(t, out, "Ignore globs: *.min.js, dist/**\n")
	assert.Contains(t, out, "Extensions: .md, .py, .txt\n")
	assert.Contains(t, out, "Include names: Dockerfile\n")
	assert.Contains(t, out, "Collected 5 file(s) for bundling.\n")
	assert.True(t, strings.HasSuffix(out, "Done.\n"))

	treeData, err := os.ReadFile(treeOut)
	require.NoError(t, err)
	wantTree := "project/\n" +
		"├── app/\n" +
		"│   ├── helper.PY\n" +
		"│   └── main.py\n" +
		"├── assets/\n" +
		"├── build/\n" +
		"│   └── dist/\n" +
		"│       └── keep.txt\n" +
		"├── docs/\n" +
		"│   └── README.md\n" +
		"├── scripts/\n" +
		"│   └── deploy.python\n" +
		"└── Dockerfile\n"
	assert.Equal(t, wantTree, string(treeData))

	bundleData, err := os.ReadFile(bundleOut)
	require.NoError(t, err)
	bundleText := string(bundleData)
	for _, header := range []string{
		"FILE: app/helper.PY\n",
		"FILE: app/main.py\n",
		"FILE: build/dist/keep.txt\n",
		"FILE: docs/README.md\n",
		"FILE: Dockerfile\n",
	} {
		assert.Contains(t, bundleText, header)
	}
	assert.NotContains(t, bundleText, "secret")
	assert.NotContains(t, bundleText, "dependency")
	assert.NotContains(t, bundleText, "deploy.python")
}

func TestRootCommandDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.sql":   "select 1;\n",
		"b.go":    "package b\n",
		"run.sh":  "echo run\n",
		"x/y.txt": "y\n",
	})
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	out, err := runRoot(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Extensions: .py, .sh, .sql, .txt\n")
	assert.Contains(t, out, "Collected 3 file(s) for bundling.\n")

	treeData, err := os.ReadFile(filepath.Join(dir, combine.DefaultTreeOut))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir)+"/\n├── x/\n│   └── y.txt\n├── a.sql\n├── b.go\n└── run.sh\n", string(treeData))

	_, err = os.Stat(filepath.Join(dir, combine.DefaultBundleOut))
	require.NoError(t, err)
}

func TestRootCommandInvalidRoot(t *testing.T) {
	dir := t.TempDir()
	treeOut := filepath.Join(dir, "tree.txt")

	_, err := runRoot(t, "--root", filepath.Join(dir, "missing"), "--out", treeOut, "--bundle", filepath.Join(dir, "b.txt"))
	require.Error(t, err)

	var configErr *combine.ConfigError
	assert.True(t, errors.As(err, &configErr))

	_, statErr := os.Stat(treeOut)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRootCommandRejectsArgs(t *testing.T) {
	_, err := runRoot(t, "unexpected")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)

	out, err = runRoot(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "treeme version dev (commit: none)"))
}
