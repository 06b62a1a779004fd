package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/TFMV/fcrawl/crawl"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var version = "0.1.0"

// Execute runs the fcrawl command line.
func Execute() error {
	return newRootCmd().Execute()
}

// newRootCmd builds the command tree with its own viper instance.
func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "fcrawl [options] <path>",
		Short: "A fast recursive directory crawler",
		Long: `fcrawl lists the files below a directory, optionally with directories,
counts or per-directory groups. Symlinks can be followed by path or by real
path, and output can be filtered with glob patterns.

Examples:
  fcrawl .
  fcrawl --relative --glob="**/*.go" --exclude-dir=vendor ./src
  fcrawl --counts /var/log
  fcrawl --follow-symlinks --real-paths --format=json ~/projects`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd.Context(), cmd.OutOrStdout(), v, args[0])
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is $HOME/.fcrawl.yaml)")
	rootCmd.PersistentFlags().String("format", "text", "Output format (text|json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Output shape
	rootCmd.Flags().BoolP(crawl.KeyBasePath, "b", false, "Prefix paths with the root")
	rootCmd.Flags().BoolP(crawl.KeyDirs, "d", false, "Include directories")
	rootCmd.Flags().Bool(crawl.KeyOnlyDirs, false, "Output directories only")
	rootCmd.Flags().Bool(crawl.KeyExcludeFiles, false, "Omit files")
	rootCmd.Flags().BoolP(crawl.KeyRelative, "r", false, "Output paths relative to the root")
	rootCmd.Flags().Bool(crawl.KeyFullPaths, false, "Output absolute paths")
	rootCmd.Flags().Bool(crawl.KeyNormalize, false, "Clean the root path")
	rootCmd.Flags().String(crawl.KeySeparator, "", "Path separator used in output")
	rootCmd.Flags().Bool(crawl.KeyGroup, false, "Group files by directory")
	rootCmd.Flags().Bool(crawl.KeyCounts, false, "Output file and directory counts only")

	// Traversal
	rootCmd.Flags().Int(crawl.KeyMaxDepth, 0, "Maximum depth below the root (unlimited when unset)")
	rootCmd.Flags().IntP(crawl.KeyMaxFiles, "n", 0, "Stop after this many results (0 is unlimited)")
	rootCmd.Flags().BoolP(crawl.KeyFollowSymlinks, "L", false, "Follow symbolic links")
	rootCmd.Flags().Bool(crawl.KeyRealPaths, false, "Report followed entries under their real path")
	rootCmd.Flags().Bool(crawl.KeyExcludeSymlinks, false, "Ignore symbolic links")
	rootCmd.Flags().StringSliceP(crawl.KeyExcludeDir, "x", nil, "Directory name patterns not to descend into")
	rootCmd.Flags().Bool(crawl.KeyErrors, false, "Fail on the first file system error")
	rootCmd.Flags().String("driver", "sync", "Traversal driver (sync|async|iterate)")

	// Matching
	rootCmd.Flags().StringSliceP(crawl.KeyGlob, "g", nil, "Glob patterns output paths must match")
	rootCmd.Flags().String(crawl.KeyGlobEngine, "gobwas", "Glob engine (gobwas|zglob)")
	rootCmd.Flags().Bool(crawl.KeyGlobDot, false, "Let wildcards match names starting with '.'")
	rootCmd.Flags().String(crawl.KeyLogLevel, "", "Log level (error|warn|info|debug)")

	// Bind flags to viper
	v.BindPFlags(rootCmd.Flags())
	v.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newWatchCmd(v))
	return rootCmd
}

// initConfig reads in config file and ENV variables if set.
func initConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		// Search config in home directory with name ".fcrawl" (without extension).
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".fcrawl")
	}

	v.SetEnvPrefix("fcrawl")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config: %w", err)
		}
	} else if v.GetBool("verbose") {
		fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", v.ConfigFileUsed())
	}
	return nil
}

// newLogger builds the command's logger from the config.
func newLogger(v *viper.Viper) (*zap.Logger, error) {
	level := crawl.LogLevelError
	if s := v.GetString(crawl.KeyLogLevel); s != "" {
		l, err := crawl.ParseLogLevel(s)
		if err != nil {
			return nil, err
		}
		level = l
	}
	if v.GetBool("verbose") {
		level = crawl.LogLevelDebug
	}
	return crawl.NewLogger(level), nil
}

func runCrawl(ctx context.Context, w io.Writer, v *viper.Viper, root string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	opts, err := crawl.LoadOptions(v)
	if err != nil {
		return err
	}
	logger, err := newLogger(v)
	if err != nil {
		return err
	}
	defer logger.Sync()
	opts.Logger = logger
	opts.Signal = ctx

	format := v.GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s", format)
	}

	api := crawl.Crawl(root, opts)

	var out crawl.Output
	switch driver := v.GetString("driver"); driver {
	case "sync", "":
		out, err = api.Sync()
	case "async":
		out, err = api.Await(ctx)
	case "iterate":
		if format == "text" {
			return streamPaths(w, api)
		}
		var paths crawl.Paths
		for path, iterErr := range api.All() {
			if iterErr != nil {
				return iterErr
			}
			paths = append(paths, path)
		}
		out = paths
	default:
		return fmt.Errorf("invalid driver: %s", driver)
	}

	// Partial output is still printed before the error is returned.
	if out != nil {
		if printErr := printOutput(w, format, out); printErr != nil {
			return printErr
		}
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// streamPaths prints paths as the iterator yields them.
func streamPaths(w io.Writer, api *crawl.API) error {
	for path, err := range api.All() {
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, path); err != nil {
			return err
		}
	}
	return nil
}

func printOutput(w io.Writer, format string, out crawl.Output) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	var err error
	switch o := out.(type) {
	case crawl.Paths:
		for _, p := range o {
			if _, err = fmt.Fprintln(w, p); err != nil {
				return err
			}
		}
	case crawl.Counts:
		_, err = fmt.Fprintf(w, "files: %d\ndirectories: %d\n", o.Files, o.Directories)
	case crawl.Groups:
		for _, g := range o {
			if _, err = fmt.Fprintf(w, "%s\n", g.Directory); err != nil {
				return err
			}
			for _, f := range g.Files {
				if _, err = fmt.Fprintf(w, "  %s\n", f); err != nil {
					return err
				}
			}
		}
	default:
		return fmt.Errorf("unexpected output %T", out)
	}
	return err
}
