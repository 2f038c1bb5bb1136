package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration edtrun would run with: the defaults, or the
file named by --config merged over them.

Example:
  edtrun config > edt.yaml
  edtrun config --config file:///etc/edt.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := rootOpts.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err = encoder.Encode(config); err != nil {
				return err
			}
			return encoder.Close()
		},
	}
}
