package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	from   string
	to     string
	amount float64
	fee    float64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&from, "from", "f", "", "Wallet sending the amount.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Wallet receiving the amount.")
	sendCmd.Flags().Float64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.Flags().Float64VarP(&fee, "fee", "c", 0, "Fee paid to the miner.")
	sendCmd.MarkFlagRequired("from")
	sendCmd.MarkFlagRequired("to")
}

func sendRun(cmd *cobra.Command, args []string) error {
	body := map[string]any{
		"from":   from,
		"to":     to,
		"amount": amount,
		"fee":    fee,
	}

	var tx struct {
		ID string `json:"id"`
	}
	if err := call(http.MethodPost, "/v1/tx/transfer", body, &tx); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Transaction: %s  %s -> %s  Amount: %v  Fee: %v\n", tx.ID, from, to, amount, fee)
	return nil
}
