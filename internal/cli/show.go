package ragchat

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/ragchat/internal/appconfig"
)

func newShowCmd(a *app) *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show settings",
	}
	showCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Show config settings",
		Long:  `Show the merged configuration: defaults, overridden by the config file, overridden by flags. Secrets are never printed.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			appconfig.ShowConfig(cmd.OutOrStdout(), a.cfg, a.cfg.Debug)
		},
	})
	return showCmd
}
