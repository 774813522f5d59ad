package selector

import (
	"sort"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// fairSelect returns transactions with the best fee while giving every
// sender a turn before any sender gets a second transaction selected. Each
// sender's transactions stay in arrival order.
var fairSelect = func(trans []database.Tx, howMany int) []database.Tx {
	if howMany < 0 {
		howMany = len(trans)
	}

	/*
		alice: {Fee: 0.5}, {Fee: 2.0}
		bob:   {Fee: 0.1}, {Fee: 1.0}
		carol: {Fee: 0.3}
	*/

	// Group the transactions by sender keeping the arrival order.
	var senders []database.WalletID
	m := make(map[database.WalletID][]database.Tx)
	for _, tx := range trans {
		if _, exists := m[tx.From]; !exists {
			senders = append(senders, tx.From)
		}
		m[tx.From] = append(m[tx.From], tx)
	}

	// Pick the first transaction for each sender. Each iteration represents
	// a new row of selections. Keep doing that until all the transactions
	// have been selected.
	var rows [][]database.Tx
	for {
		var row []database.Tx
		for _, from := range senders {
			if len(m[from]) > 0 {
				row = append(row, m[from][0])
				m[from] = m[from][1:]
			}
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}

	/*
		0: alice: {Fee: 0.5}, bob: {Fee: 0.1}, carol: {Fee: 0.3}
		1: alice: {Fee: 2.0}, bob: {Fee: 1.0}
	*/

	// Sort each row by fee unless we will take all transactions from that row
	// anyway. Keep pulling transactions from each row until the amount is
	// fulfilled or there are no more transactions.
	final := []database.Tx{}
done:
	for _, row := range rows {
		need := howMany - len(final)
		if len(row) > need {
			sort.Stable(byFee(row))
			final = append(final, row[:need]...)
			break done
		}
		final = append(final, row...)
	}

	return final
}
