package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"ssp-admin/internal/infra/logx"
)

const (
	debugLogFile = "debug.log"
	envLogLevel  = "SSP_LOG_LEVEL"
)

// setupLogging routes logx output for the command about to run. --debug
// writes everything to debug.log; the TUI otherwise logs nowhere so the
// screen stays intact, and subcommands log warnings to stderr.
func setupLogging(cmd *cobra.Command, opts *rootOptions) (func() error, error) {
	logx.SetVerbose(opts.verbose)

	if opts.debug {
		f, err := os.OpenFile(debugLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", debugLogFile, err)
		}
		logx.SetOutput(f)
		logx.SetMinLevel(logx.LevelDebug)
		// bubbletea and net/http report through the standard logger
		log.SetOutput(logx.StdlogWriter(logx.LevelDebug, f))
		logx.Debugf("command %s started", cmd.CommandPath())
		return f.Close, nil
	}

	level := logx.LevelWarn
	if v := os.Getenv(envLogLevel); v != "" {
		level = logx.ParseLevel(v)
	}
	logx.SetMinLevel(level)
	if cmd.Root() == cmd {
		logx.SetOutput(nil)
	} else {
		logx.SetOutput(cmd.ErrOrStderr())
	}
	return nil, nil
}
