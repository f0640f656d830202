package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ssp-admin/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the sspadmin rc file",
	}
	cmd.AddCommand(newConfigInitCmd(opts))
	return cmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var (
		token string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an rc file with the given base URL and token",
		Example: `  sspadmin config init --base-url https://ssp.example.edu/ssp/api/1 --token s3cr3t`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			path = expandHome(path)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			cfg := config.Default()
			cfg.BaseURL = opts.baseURL
			cfg.Token = token
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			cmd.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token for the SSP API")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
