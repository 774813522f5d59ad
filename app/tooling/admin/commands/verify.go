package commands

import (
	"fmt"
	"io"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Verify downloads the chain from the node at url and verifies it locally,
// independent of the node's own view of the chain.
func Verify(w io.Writer, url string, ev func(v string, args ...any)) (bool, error) {
	var bds []database.BlockData
	if err := get(url+"/v1/blocks", &bds); err != nil {
		return false, err
	}

	blocks := make([]database.Block, len(bds))
	for i, bd := range bds {
		blocks[i] = database.ToBlock(bd)
	}

	valid, msgs := database.VerifyChain(blocks, ev)

	fmt.Fprintf(w, "Blocks: %d  Valid: %v\n", len(blocks), valid)
	for _, msg := range msgs {
		fmt.Fprintf(w, "  %s\n", msg)
	}

	return valid, nil
}
