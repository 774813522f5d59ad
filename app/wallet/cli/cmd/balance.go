package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

type wallet struct {
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

type wallets struct {
	LatestBlock string   `json:"latest_block"`
	Uncommitted int      `json:"uncommitted"`
	Wallets     []wallet `json:"wallets"`
}

var balanceName string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print wallet balances.",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&balanceName, "name", "n", "", "Only print this wallet.")
}

func balanceRun(cmd *cobra.Command, args []string) error {
	path := "/v1/wallets"
	if balanceName != "" {
		path += "/" + balanceName
	}

	var ws wallets
	if err := call(http.MethodGet, path, nil, &ws); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "LatestBlockHash: %s  Uncommitted: %d\n\n", ws.LatestBlock, ws.Uncommitted)
	for _, w := range ws.Wallets {
		fmt.Fprintf(out, "Wallet: %s  Balance: %v\n", w.Name, w.Balance)
	}

	return nil
}
