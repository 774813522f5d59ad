package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	miner    string
	maxCount int
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine the pending transactions into a block.",
	RunE:  mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
	mineCmd.Flags().StringVarP(&miner, "miner", "m", "", "Wallet receiving the reward, the node miner when not set.")
	mineCmd.Flags().IntVarP(&maxCount, "max", "x", 0, "Maximum transactions in the block.")
}

func mineRun(cmd *cobra.Command, args []string) error {
	body := map[string]any{
		"miner":     miner,
		"max_count": maxCount,
	}

	var bd struct {
		Hash   string `json:"hash"`
		Header struct {
			Number     uint64 `json:"number"`
			Nonce      uint64 `json:"nonce"`
			Difficulty uint   `json:"difficulty"`
			MinerID    string `json:"miner"`
		} `json:"block"`
		Trans []struct{} `json:"trans"`
	}
	if err := call(http.MethodPost, "/v1/mining/mine", body, &bd); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Block: %d  Hash: %s  Nonce: %d  Difficulty: %d  Miner: %s  Trans: %d\n",
		bd.Header.Number, bd.Hash, bd.Header.Nonce, bd.Header.Difficulty, bd.Header.MinerID, len(bd.Trans))
	return nil
}
