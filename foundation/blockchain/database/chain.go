package database

import (
	"fmt"
	"time"
)

// VerifyChain walks the specified blocks from genesis and checks every
// invariant of the chain: block integrity, hash linkage to the prior block,
// transaction validity and block number sequencing. Every problem found is
// collected, the walk never stops early and the blocks are never modified.
// When an event handler is provided each check is reported to it.
func VerifyChain(blocks []Block, evHandler func(v string, args ...any)) (bool, []string) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	if len(blocks) == 0 {
		return false, []string{"chain has no genesis block"}
	}

	now := time.Now()
	var errs []string

	report := func(msg string) {
		errs = append(errs, msg)
		evHandler("database: VerifyChain: ERROR: %s", msg)
	}

	if err := blocks[0].VerifyIntegrity(now); err != nil {
		report(fmt.Sprintf("genesis block: %s", err))
	}

	for i := 1; i < len(blocks); i++ {
		evHandler("database: VerifyChain: checking blk[%d]", blocks[i].Header.Number)

		for _, msg := range verifyLink(blocks[i-1], blocks[i], now) {
			report(msg)
		}
	}

	if len(errs) == 0 {
		evHandler("database: VerifyChain: chain is valid: blocks[%d]", len(blocks))
	}

	return len(errs) == 0, errs
}

// verifyLink checks the block against the block that precedes it. A fault
// raised while checking is returned as a diagnostic so the rest of the chain
// can still be inspected.
func verifyLink(prev Block, block Block, now time.Time) (errs []string) {
	defer func() {
		if r := recover(); r != nil {
			errs = append(errs, fmt.Sprintf("block #%d: verification fault: %v", block.Header.Number, r))
		}
	}()

	if err := block.VerifyIntegrity(now); err != nil {
		errs = append(errs, fmt.Sprintf("block #%d: %s", block.Header.Number, err))
	}

	if block.Header.PrevBlockHash != prev.Hash {
		errs = append(errs, fmt.Sprintf("block #%d: broken link to previous block", block.Header.Number))
	}

	if !block.HasValidTransactions() {
		errs = append(errs, fmt.Sprintf("block #%d: contains invalid transactions", block.Header.Number))
	}

	if block.Header.Number != prev.Header.Number+1 {
		errs = append(errs, fmt.Sprintf("block #%d: out of order, previous block is #%d", block.Header.Number, prev.Header.Number))
	}

	return errs
}
