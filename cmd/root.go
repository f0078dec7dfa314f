package cmd

import (
	"fmt"

	"treeme/pkg/combine"
	"treeme/pkg/logging"
	"treeme/pkg/rules"
	"treeme/pkg/version"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Flag names, also used as viper keys.
const (
	flagRoot         = "root"
	flagExclude      = "exclude"
	flagIgnore       = "ignore"
	flagExts         = "exts"
	flagIncludeNames = "include-names"
	flagOut          = "out"
	flagBundle       = "bundle"
	flagVerbose      = "verbose"
)

// app carries the state shared by the commands of one invocation.
type app struct {
	logger *zap.Logger
	fs     afero.Fs
	config *viper.Viper
}

// NewRootCommand builds the treeme command tree. fsys is the filesystem that
// is scanned and written to.
func NewRootCommand(logger *zap.Logger, fsys afero.Fs) *cobra.Command {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &app{logger: logger, fs: fsys, config: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "treeme",
		Short: "Write a directory tree and a bundle of selected file contents",
		Long: `treeme scans a directory and writes two files: an ASCII rendering of the
directory tree, and one text bundle holding the contents of the selected
files, each headed by its relative path.

The folders .git, .idea, .venv and venv are always skipped. Symlinks are
never followed. Ignore globs apply to both outputs and are matched against
paths relative to the root; '**' spans whole path segments.`,
		Example: `  treeme --exclude node_modules,__pycache__ --ignore "*.min.js,dist/**" \
    --exts .py,.md --include-names Dockerfile,README --out tree.txt --bundle all_texts.txt`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogger()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCombine(cmd.OutOrStdout(), a.options())
		},
	}

	flags := rootCmd.Flags()
	flags.String(flagRoot, combine.DefaultRoot, "Root directory to scan")
	flags.StringSlice(flagExclude, nil, "Comma-separated folder names to exclude at any depth")
	flags.StringSlice(flagIgnore, nil, `Comma-separated glob patterns to ignore (files and directories), e.g. "*.min.js,dist/**"`)
	flags.StringSlice(flagExts, append([]string(nil), rules.DefaultExtensions...), "Comma-separated file extensions to include in the bundle")
	flags.StringSlice(flagIncludeNames, nil, "Comma-separated exact file names to include in the bundle, e.g. Dockerfile,README")
	flags.String(flagOut, combine.DefaultTreeOut, "Output file for the tree")
	flags.String(flagBundle, combine.DefaultBundleOut, "Output file for the concatenated contents")
	rootCmd.PersistentFlags().BoolP(flagVerbose, "v", false, "Enable debug logging")

	if err := bindFlags(a.config, flags, rootCmd.PersistentFlags()); err != nil {
		// Binding only fails for a nil flag, which would be a programming error.
		panic(err)
	}

	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// Execute builds the command tree over the OS filesystem and runs it.
func Execute(logger *zap.Logger) error {
	return NewRootCommand(logger, afero.NewOsFs()).Execute()
}

// bindFlags exposes every flag of the given sets through v.
func bindFlags(v *viper.Viper, sets ...*pflag.FlagSet) error {
	for _, set := range sets {
		if err := v.BindPFlags(set); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}
	}
	return nil
}

// options resolves the bound flags into run options.
func (a *app) options() combine.Options {
	return combine.Options{
		Root:         a.config.GetString(flagRoot),
		Exclude:      rules.SplitList(a.config.GetStringSlice(flagExclude)...),
		Ignore:       rules.SplitList(a.config.GetStringSlice(flagIgnore)...),
		Exts:         rules.NormalizeExtensions(a.config.GetStringSlice(flagExts)),
		IncludeNames: rules.SplitList(a.config.GetStringSlice(flagIncludeNames)...),
		TreeOut:      a.config.GetString(flagOut),
		BundleOut:    a.config.GetString(flagBundle),
	}
}

// setupLogger switches to a debug logger when --verbose is set.
func (a *app) setupLogger() error {
	if !a.config.GetBool(flagVerbose) {
		return nil
	}
	logger, err := logging.New(logging.Options{
		Debug:      true,
		AppName:    "treeme",
		AppVersion: version.Get().Version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize debug logger: %w", err)
	}
	a.logger = logger
	return nil
}
