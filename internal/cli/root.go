// Package cli wires the sspadmin command tree: the interactive TUI on the
// root command and non-interactive template subcommands.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ssp-admin/internal/config"
	"ssp-admin/internal/infra/logx"
	"ssp-admin/internal/ssp"
	"ssp-admin/internal/ui"
)

// ErrNotTerminal is returned when the TUI is started without a terminal.
var ErrNotTerminal = errors.New("stdout is not a terminal; use the templates subcommands")

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type rootOptions struct {
	configPath string
	baseURL    string
	debug      bool
	verbose    bool

	// stdoutIsTerminal is replaced in tests
	stdoutIsTerminal func() bool
	closeLog         func() error
}

// NewRootCmd creates the sspadmin root command.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{stdoutIsTerminal: func() bool { return isTerminal(os.Stdout) }}

	cmd := &cobra.Command{
		Use:           "sspadmin",
		Short:         "Message template admin for the SSP",
		Long:          "sspadmin lists, edits and previews SSP message templates in an interactive terminal UI.",
		Version:       version,
		SilenceUsage:  true,
		Example: `  # Start the interactive admin
  sspadmin --base-url https://ssp.example.edu/ssp/api/1

  # List templates without the TUI
  sspadmin templates list

  # Export every template as YAML
  sspadmin templates export --format yaml > templates.yaml`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			closeLog, err := setupLogging(cmd, opts)
			if err != nil {
				return err
			}
			opts.closeLog = closeLog
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.closeLog == nil {
				return nil
			}
			return opts.closeLog()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (.ssprc KEY=value or .yaml); default ~/.ssprc")
	pf.StringVar(&opts.baseURL, "base-url", "", "SSP API base URL, overrides the config file")
	pf.BoolVar(&opts.debug, "debug", false, "write debug logs to debug.log")
	pf.BoolVar(&opts.verbose, "verbose", false, "do not truncate long log messages")

	cmd.AddCommand(newTemplatesCmd(opts), newConfigCmd(opts))
	return cmd
}

// loadConfig resolves the config file, applies flag overrides and validates
// the result.
func loadConfig(opts *rootOptions) (config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadAuto(expandHome(path))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
	}
	logx.RegisterSecret(cfg.Token)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func newClient(opts *rootOptions) (config.Config, *ssp.Client, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return config.Config{}, nil, err
	}
	client, err := ssp.New(cfg.ClientOptions())
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, client, nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	if !opts.stdoutIsTerminal() {
		return ErrNotTerminal
	}
	cfg, client, err := newClient(opts)
	if err != nil {
		return err
	}
	logx.Infof("starting TUI against %s", cfg.BaseURL)
	p := tea.NewProgram(ui.NewModel(cfg, client), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	snap := client.Metrics().Snapshot()
	logx.Infow("session finished", map[string]any{
		"requests": snap.TotalRequests,
		"retries":  snap.TotalRetries,
		"latency":  snap.MeanLatency.String(),
	})
	return nil
}
