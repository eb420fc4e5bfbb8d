package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"heartrisk/form"
)

func newFormCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "form",
		Short: "Print the input widget catalogue as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(form.Widgets())
		},
	}
}
