// Command eyelog converts folders of EyeLink ASCII recordings into trial
// tables.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "eyelog",
	Short: "Convert EyeLink ASCII logs into trial tables",
	Long: `eyelog reads EyeLink .asc recordings, splits them into trials using
start_trial / end_trial messages, collects trial variables and per-phase
pupil and gaze traces, and writes one row per trial.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Log per-line diagnostics")
}

// newLogger returns the CLI logger: text on w, info level, debug with
// --verbose.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("error:", err)
		os.Exit(1)
	}
}
