package selector

import (
	"sort"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// feeSelect returns the transactions with the best fee. Transactions paying
// the same fee keep their arrival order.
var feeSelect = func(trans []database.Tx, howMany int) []database.Tx {
	final := append([]database.Tx{}, trans...)
	sort.Stable(byFee(final))

	return truncate(final, howMany)
}
