package cmd

import (
	"github.com/spf13/cobra"

	"heartrisk/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "heartrisk",
		Short:         "Heart disease risk prediction",
		Long:          "heartrisk encodes a patient form, scales it and runs a pre-trained binary classifier over it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "config.yaml", "Path to the YAML configuration file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newPredictCmd())
	root.AddCommand(newFormCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func Execute() error {
	return newRootCmd().Execute()
}

// loadConfig reads the file named by --config. A missing file yields the
// defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
