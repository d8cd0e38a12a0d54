package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/simp-lee/hireline/internal/config"
)

type rootOptions struct {
	configPath string
	envFile    string

	// con is built by PersistentPreRunE; close releases it.
	con *console
}

func (o *rootOptions) close() {
	if o.con != nil {
		o.con.Close()
		o.con = nil
	}
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "hireline-console",
		Short:         "Admin console for the hireline recruitment dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.con, err = newConsole(cmd.Context(), cfg, cmd.ErrOrStderr())
			return err
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "configs/config.yaml", "Path to configuration file")
	root.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "Optional dotenv file loaded before the config")

	root.AddCommand(newLoginCmd(opts))
	root.AddCommand(newLogoutCmd(opts))
	root.AddCommand(newWhoamiCmd(opts))
	root.AddCommand(newDashboardCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newToggleJobCmd(opts))
	root.AddCommand(newApplyCmd(opts))
	root.AddCommand(newSetStatusCmd(opts))

	return root
}
