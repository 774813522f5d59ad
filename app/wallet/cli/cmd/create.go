package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	createName    string
	createBalance float64
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new wallet.",
	RunE:  createRun,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&createName, "name", "n", "", "Name of the wallet.")
	createCmd.Flags().Float64VarP(&createBalance, "balance", "b", 0, "Starting balance, the genesis default when not set.")
	createCmd.MarkFlagRequired("name")
}

func createRun(cmd *cobra.Command, args []string) error {
	body := map[string]any{"name": createName}
	if cmd.Flags().Changed("balance") {
		body["balance"] = createBalance
	}

	var w wallet
	if err := call(http.MethodPost, "/v1/wallets", body, &w); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wallet: %s  Balance: %v\n", w.Name, w.Balance)
	return nil
}
