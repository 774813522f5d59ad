package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the network statistics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats map[string]any
		if err := call(http.MethodGet, "/v1/stats", nil, &stats); err != nil {
			return err
		}
		return printJSON(cmd, stats)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
