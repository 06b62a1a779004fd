package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/TFMV/fcrawl/crawl"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newWatchCmd(v *viper.Viper) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch for filesystem changes",
		Long: `Watch the directories a crawl of path discovers and report files as they
are created, modified or deleted. Directories created while watching are
picked up automatically when watching recursively.

Examples:
  fcrawl watch /path/to/watch
  fcrawl watch --recursive --events=create,modify --pattern="*.go" ./src
  fcrawl watch --recursive --max-depth=2 --format=json .`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Get the directory to watch
			var watchDir string
			if len(args) > 0 {
				watchDir = args[0]
			} else {
				var err error
				watchDir, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("error getting current directory: %w", err)
				}
			}
			return runWatch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), v, watchDir, nil)
		},
	}

	watchCmd.Flags().StringSlice("events", []string{}, "Events to watch for (create, modify, delete, rename, chmod)")
	watchCmd.Flags().Bool("recursive", false, "Watch subdirectories recursively")
	watchCmd.Flags().Int("max-depth", 0, "Maximum depth below the root when recursive (0 is unlimited)")
	watchCmd.Flags().Bool("follow-symlinks", false, "Watch symlinked directories")
	watchCmd.Flags().String("pattern", "", "File pattern to match (e.g., *.go)")
	watchCmd.Flags().String("ignore", "", "File pattern to ignore")
	watchCmd.Flags().Duration("timeout", 0, "Duration to watch before exiting (e.g., 1h, 30m)")
	watchCmd.Flags().Bool("include-hidden", false, "Include hidden files and directories")

	// Bind flags to viper
	for _, name := range []string{"events", "recursive", "max-depth", "follow-symlinks", "pattern", "ignore", "timeout", "include-hidden"} {
		v.BindPFlag("watch."+name, watchCmd.Flags().Lookup(name))
	}

	return watchCmd
}

// parseEvents converts event names to watch events.
func parseEvents(names []string) ([]crawl.WatchEvent, error) {
	var events []crawl.WatchEvent
	for _, e := range names {
		switch strings.ToLower(strings.TrimSpace(e)) {
		case "create":
			events = append(events, crawl.EventCreate)
		case "write", "modify":
			events = append(events, crawl.EventModify)
		case "remove", "delete":
			events = append(events, crawl.EventDelete)
		case "rename":
			events = append(events, crawl.EventRename)
		case "chmod":
			events = append(events, crawl.EventChmod)
		case "":
		default:
			return nil, fmt.Errorf("unknown event type: %s", e)
		}
	}
	return events, nil
}

// watchOptions maps the watch.* keys onto watch options.
func watchOptions(v *viper.Viper) (crawl.WatchOptions, error) {
	events, err := parseEvents(v.GetStringSlice("watch.events"))
	if err != nil {
		return crawl.WatchOptions{}, err
	}
	return crawl.WatchOptions{
		Events:         events,
		Recursive:      v.GetBool("watch.recursive"),
		MaxDepth:       v.GetInt("watch.max-depth"),
		FollowSymlinks: v.GetBool("watch.follow-symlinks"),
		Pattern:        v.GetString("watch.pattern"),
		IgnorePattern:  v.GetString("watch.ignore"),
		IncludeHidden:  v.GetBool("watch.include-hidden"),
		Timeout:        v.GetDuration("watch.timeout"),
	}, nil
}

func runWatch(ctx context.Context, stdout, stderr io.Writer, v *viper.Viper, root string, ready func()) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	opts, err := watchOptions(v)
	if err != nil {
		return err
	}
	logger, err := newLogger(v)
	if err != nil {
		return err
	}
	defer logger.Sync()
	opts.Logger = logger
	opts.Ready = ready

	handler := crawl.WatchHandler(func(_ context.Context, result crawl.WatchResult) error {
		if result.Error != nil {
			fmt.Fprintf(stderr, "Error: %v\n", result.Error)
			return nil
		}
		return printEvent(stdout, v.GetString("format"), result.Message)
	})

	if v.GetString("format") != "json" {
		fmt.Fprintf(stderr, "Watching %s for changes...\n", root)
		fmt.Fprintln(stderr, "Press Ctrl+C to exit.")
	}
	return crawl.Watch(ctx, root, opts, handler)
}

func printEvent(w io.Writer, format string, msg crawl.WatchMessage) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(msg)
	}
	_, err := fmt.Fprintf(w, "%s %s: %s\n", msg.Time.Format(time.RFC3339), strings.ToUpper(string(msg.Event)), msg.Path)
	return err
}
