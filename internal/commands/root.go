package commands

import (
	"github.com/spf13/cobra"
)

// Version is stamped at build time.
var Version = "dev"

// RootCmd creates and returns the root command for the formbind CLI.
func RootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "formbind",
		Short: "Bind, validate and render forms from schema documents",
		Long: `formbind loads form schemas from forms documents or OpenAPI request
bodies, binds submitted values and validates them.

Examples:
  formbind list --schema forms.yaml
  formbind validate --schema forms.yaml --form signup --value email=ada@example.com
  formbind render --schema openapi.yaml --form createPet --output pet.html
  formbind prompt --schema forms.yaml --form signup --format pretty`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, verbose, cmd.Flags())
			if err != nil {
				return err
			}
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cfg, ok := configFrom(cmd.Context()); ok {
				_ = cfg.Logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./formbind.yaml)")

	return cmd
}
