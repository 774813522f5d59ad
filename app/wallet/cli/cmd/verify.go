package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	tamper  bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the chain.",
	RunE:  verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&verbose, "verbose", false, "Ask the node to log every check.")
	verifyCmd.Flags().BoolVar(&tamper, "tamper", false, "Run tamper detection and record it in the security log.")
}

func verifyRun(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if tamper {
		var report struct {
			TamperingDetected bool     `json:"tampering_detected"`
			ChainValid        bool     `json:"chain_valid"`
			Errors            []string `json:"errors"`
		}
		if err := call(http.MethodGet, "/v1/chain/tamper", nil, &report); err != nil {
			return err
		}

		fmt.Fprintf(out, "Tampering detected: %v\n", report.TamperingDetected)
		for _, e := range report.Errors {
			fmt.Fprintf(out, "  %s\n", e)
		}
		return nil
	}

	var result struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	if err := call(http.MethodGet, fmt.Sprintf("/v1/chain/verify?verbose=%t", verbose), nil, &result); err != nil {
		return err
	}

	fmt.Fprintf(out, "Chain valid: %v\n", result.Valid)
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  %s\n", e)
	}

	return nil
}
