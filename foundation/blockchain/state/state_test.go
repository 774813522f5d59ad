package state_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func equal(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func newState(t *testing.T, storage database.Storage) *state.State {
	t.Helper()

	gen := genesis.Default()
	gen.Difficulty = 1

	st, err := state.New(state.Config{
		Genesis: gen,
		Storage: storage,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	return st
}

func createWallets(t *testing.T, st *state.State, wallets map[database.WalletID]float64) {
	t.Helper()

	for id, bal := range wallets {
		if err := st.CreateWallet(id, bal); err != nil {
			t.Fatalf("\t%s\tShould be able to create wallet %s: %v", failed, id, err)
		}
	}
}

func mine(t *testing.T, st *state.State) database.Block {
	t.Helper()

	block, err := st.MinePendingTransactions(context.Background(), "miner", 10)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
	}

	return block
}

// =============================================================================

func Test_BalanceReplay(t *testing.T) {
	t.Log("Given the need to replay mined blocks into balances.")
	{
		st := newState(t, nil)
		createWallets(t, st, map[database.WalletID]float64{"alice": 100, "bob": 50})

		t.Log("\tWhen alice sends bob 25 with a 0.1 fee.")
		{
			if _, err := st.Transfer("alice", "bob", 25, 0.1); err != nil {
				t.Fatalf("\t%s\tShould be able to transfer: %v", failed, err)
			}
			t.Logf("\t%s\tShould be able to transfer.", success)

			block := mine(t, st)
			if len(block.Trans) != 1 || block.Header.Number != 1 {
				t.Fatalf("\t%s\tShould mine block 1 with the transfer.", failed)
			}
			t.Logf("\t%s\tShould mine block 1 with the transfer.", success)

			exp := map[database.WalletID]float64{"alice": 74.9, "bob": 75, "miner": 50.1}
			for id, bal := range exp {
				if got := st.Balance(id); !equal(got, bal) {
					t.Fatalf("\t%s\tShould have %s at %v, got %v.", failed, id, bal, got)
				}
			}
			t.Logf("\t%s\tShould have alice 74.9, bob 75 and miner 50.1.", success)
		}

		t.Log("\tWhen looking at the pool after mining.")
		{
			pool := st.Mempool()
			if len(pool) != 1 || !pool[0].IsCoinbase() || pool[0].To != "miner" || pool[0].Amount != 50 {
				t.Fatalf("\t%s\tShould hold only the miner reward: %v", failed, pool)
			}
			t.Logf("\t%s\tShould hold only the miner reward.", success)
		}

		t.Log("\tWhen mining the next block.")
		{
			block := mine(t, st)
			if len(block.Trans) != 1 || !block.Trans[0].IsCoinbase() {
				t.Fatalf("\t%s\tShould include the previous reward.", failed)
			}
			t.Logf("\t%s\tShould include the previous reward.", success)

			if got := st.Balance("miner"); !equal(got, 150.1) {
				t.Fatalf("\t%s\tShould credit the lagged reward, got %v.", failed, got)
			}
			t.Logf("\t%s\tShould credit the lagged reward.", success)

			ns, err := st.NetworkStats()
			if err != nil {
				t.Fatalf("\t%s\tShould get the stats: %v", failed, err)
			}
			if ns.Blocks != 3 || ns.TransactionsProcessed != 2 || ns.Wallets != 3 || ns.PoolSize != 1 {
				t.Fatalf("\t%s\tShould count blocks and transactions: %+v", failed, ns)
			}
			t.Logf("\t%s\tShould count blocks and transactions.", success)
		}
	}
}

func Test_TransferRejections(t *testing.T) {
	type table struct {
		name   string
		from   database.WalletID
		to     database.WalletID
		amount float64
		fee    float64
		err    error
	}

	tt := []table{
		{"insufficient funds", "alice", "bob", 1000, 1, state.ErrInsufficientFunds},
		{"unknown sender", "zoe", "bob", 1, 0, state.ErrUnknownWallet},
		{"unknown receiver", "alice", "zoe", 1, 0, state.ErrUnknownWallet},
		{"self transfer", "alice", "alice", 1, 0, state.ErrSelfTransfer},
		{"zero amount", "alice", "bob", 0, 0, state.ErrInvalidAmount},
		{"negative fee", "alice", "bob", 1, -1, state.ErrInvalidAmount},
		{"fee over balance", "alice", "bob", 9, 2, state.ErrInsufficientFunds},
		{"NaN amount", "alice", "bob", math.NaN(), 0, state.ErrInvalidAmount},
		{"NaN fee", "alice", "bob", 1, math.NaN(), state.ErrInvalidAmount},
		{"infinite amount", "alice", "bob", math.Inf(1), 0, state.ErrInvalidAmount},
		{"infinite fee", "alice", "bob", 1, math.Inf(1), state.ErrInvalidAmount},
	}

	t.Log("Given the need to reject bad transfers without changing state.")
	{
		st := newState(t, nil)
		createWallets(t, st, map[database.WalletID]float64{"alice": 10, "bob": 50})

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen the transfer has %s.", testID, tst.name)
			{
				_, err := st.Transfer(tst.from, tst.to, tst.amount, tst.fee)
				if !errors.Is(err, tst.err) {
					t.Fatalf("\t%s\tTest %d:\tShould get %v, got %v.", failed, testID, tst.err, err)
				}
				t.Logf("\t%s\tTest %d:\tShould get %v.", success, testID, tst.err)

				if st.Balance("alice") != 10 || st.Balance("bob") != 50 || st.MempoolLength() != 0 {
					t.Fatalf("\t%s\tTest %d:\tShould leave balances and pool unchanged.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould leave balances and pool unchanged.", success, testID)
			}
		}
	}
}

func Test_NonFiniteTransactions(t *testing.T) {
	t.Log("Given the need to keep non-finite values out of the chain.")
	{
		st := newState(t, nil)
		createWallets(t, st, map[database.WalletID]float64{"alice": 10, "bob": 50})

		nan := database.NewTx("alice", "bob", 1, math.NaN())
		nan.Signature = "signed_nan"

		t.Log("\tWhen a client submits a transaction with a NaN fee.")
		{
			if err := st.SubmitTransaction(nan); !errors.Is(err, state.ErrInvalidTransaction) {
				t.Fatalf("\t%s\tShould reject the transaction, got %v.", failed, err)
			}
			if st.MempoolLength() != 0 {
				t.Fatalf("\t%s\tShould leave the pool empty.", failed)
			}
			t.Logf("\t%s\tShould reject the transaction.", success)
		}

		t.Log("\tWhen the transaction is mined directly.")
		{
			st.SetDifficulty(6)
			if _, err := st.AddBlock(context.Background(), "miner", []database.Tx{nan}); !errors.Is(err, state.ErrInvalidTransaction) {
				t.Fatalf("\t%s\tShould refuse to mine it, got %v.", failed, err)
			}
			t.Logf("\t%s\tShould refuse to mine it.", success)
		}

		t.Log("\tWhen checking the ledger afterwards.")
		{
			if st.ChainLength() != 1 {
				t.Fatalf("\t%s\tShould hold only the genesis block, got %d.", failed, st.ChainLength())
			}
			if st.Balance("alice") != 10 || st.Balance("bob") != 50 {
				t.Fatalf("\t%s\tShould leave balances unchanged, alice %v bob %v.", failed, st.Balance("alice"), st.Balance("bob"))
			}
			if ok, errs := st.IsChainValid(false); !ok {
				t.Fatalf("\t%s\tShould leave a valid chain: %v", failed, errs)
			}
			t.Logf("\t%s\tShould leave the ledger unchanged.", success)
		}
	}
}

func Test_SubmitCoinbase(t *testing.T) {
	t.Log("Given the need to keep reward creation inside the node.")
	{
		st := newState(t, nil)
		createWallets(t, st, map[database.WalletID]float64{"bob": 0})

		reward, err := database.NewCoinbaseTx("bob", 1000, signature.Placeholder{})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the reward: %v", failed, err)
		}

		t.Log("\tWhen a client submits a signed reward transaction.")
		{
			if err := st.SubmitTransaction(reward); !errors.Is(err, state.ErrCoinbaseSubmit) {
				t.Fatalf("\t%s\tShould reject the transaction, got %v.", failed, err)
			}
			if st.MempoolLength() != 0 || st.Balance("bob") != 0 {
				t.Fatalf("\t%s\tShould leave the pool and balances unchanged.", failed)
			}
			t.Logf("\t%s\tShould reject the transaction.", success)
		}
	}
}

func Test_CreateWallet(t *testing.T) {
	t.Log("Given the need to create wallets.")
	{
		st := newState(t, nil)

		if err := st.CreateWallet("alice", 100); err != nil {
			t.Fatalf("\t%s\tShould create the wallet: %v", failed, err)
		}
		if err := st.CreateWallet("alice", 1); !errors.Is(err, database.ErrWalletExists) {
			t.Fatalf("\t%s\tShould reject a duplicate: %v", failed, err)
		}
		if err := st.CreateWallet(database.CoinbaseID, 1); !errors.Is(err, database.ErrReservedWallet) {
			t.Fatalf("\t%s\tShould reject the coinbase name: %v", failed, err)
		}
		if err := st.CreateWallet("", 1); !errors.Is(err, database.ErrInvalidWallet) {
			t.Fatalf("\t%s\tShould reject an empty name: %v", failed, err)
		}
		if st.Balance("alice") != 100 || len(st.Wallets()) != 1 {
			t.Fatalf("\t%s\tShould keep only the first wallet.", failed)
		}
		t.Logf("\t%s\tShould create each wallet once.", success)
	}
}

func Test_MineEmptyPool(t *testing.T) {
	t.Log("Given the need to mine with nothing to mine.")
	{
		st := newState(t, nil)

		_, err := st.MinePendingTransactions(context.Background(), "miner", 10)
		if !errors.Is(err, state.ErrNoTransactions) {
			t.Fatalf("\t%s\tShould get no transactions: %v", failed, err)
		}
		if st.ChainLength() != 1 {
			t.Fatalf("\t%s\tShould not change the chain.", failed)
		}
		t.Logf("\t%s\tShould do nothing.", success)
	}
}

func Test_Halving(t *testing.T) {
	t.Log("Given the need to halve the reward.")
	{
		gen := genesis.Default()
		gen.Difficulty = 1
		gen.HalvingInterval = 2

		st, err := state.New(state.Config{Genesis: gen})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}
		createWallets(t, st, map[database.WalletID]float64{"alice": 100, "bob": 50})

		if _, err := st.Transfer("alice", "bob", 1, 0); err != nil {
			t.Fatalf("\t%s\tShould be able to transfer: %v", failed, err)
		}

		exp := []float64{50, 50, 25, 25, 12.5}
		for i, reward := range exp {
			if got := st.CurrentBlockReward(); got != reward {
				t.Fatalf("\t%s\tShould get reward %v after %d blocks, got %v.", failed, reward, i, got)
			}
			t.Logf("\t%s\tShould get reward %v after %d blocks.", success, reward, i)

			mine(t, st)
		}
	}
}

func Test_ChainLinkage(t *testing.T) {
	t.Log("Given the need to keep a linked chain.")
	{
		st := newState(t, nil)
		createWallets(t, st, map[database.WalletID]float64{"alice": 100, "bob": 50})

		for i := 0; i < 4; i++ {
			if _, err := st.Transfer("alice", "bob", 1, 0.01); err != nil {
				t.Fatalf("\t%s\tShould be able to transfer: %v", failed, err)
			}
			mine(t, st)
		}

		blocks, err := st.Blocks()
		if err != nil || len(blocks) != 5 {
			t.Fatalf("\t%s\tShould have 5 blocks: %v", failed, err)
		}

		for i := 1; i < len(blocks); i++ {
			if blocks[i].Header.PrevBlockHash != blocks[i-1].Hash {
				t.Fatalf("\t%s\tShould link block %d to block %d.", failed, i, i-1)
			}
		}
		t.Logf("\t%s\tShould link every block to the one before.", success)

		ok, errs := st.IsChainValid(true)
		if !ok || len(errs) != 0 {
			t.Fatalf("\t%s\tShould be valid: %v", failed, errs)
		}
		if len(st.SecurityLog()) != 0 {
			t.Fatalf("\t%s\tShould not log a valid chain.", failed)
		}
		t.Logf("\t%s\tShould be valid with no errors.", success)

		report := st.DetectTampering()
		if report.TamperingDetected || !report.ChainValid || len(report.Errors) != 0 {
			t.Fatalf("\t%s\tShould report no tampering: %+v", failed, report)
		}
		if len(st.SecurityLog()) != 1 {
			t.Fatalf("\t%s\tShould log the tamper check.", failed)
		}
		t.Logf("\t%s\tShould report no tampering.", success)
	}
}

func Test_DetectTampering(t *testing.T) {
	t.Log("Given the need to detect a tampered chain.")
	{
		storage := newTamperStorage()
		st := newState(t, storage)
		createWallets(t, st, map[database.WalletID]float64{"alice": 100, "bob": 50})

		for i := 0; i < 3; i++ {
			if _, err := st.Transfer("alice", "bob", 5, 0.1); err != nil {
				t.Fatalf("\t%s\tShould be able to transfer: %v", failed, err)
			}
			mine(t, st)
		}

		storage.tamper(2, func(bd *database.BlockData) {
			for i := range bd.Trans {
				if !bd.Trans[i].IsCoinbase() {
					bd.Trans[i].Amount = 999
				}
			}
		})

		t.Log("\tWhen an amount in block 2 is changed.")
		{
			ok, errs := st.IsChainValid(false)
			if ok || len(errs) == 0 {
				t.Fatalf("\t%s\tShould find the chain invalid.", failed)
			}
			t.Logf("\t%s\tShould find the chain invalid: %v", success, errs)

			before := len(st.SecurityLog())
			report := st.DetectTampering()
			if !report.TamperingDetected || report.ChainValid || len(report.Errors) == 0 {
				t.Fatalf("\t%s\tShould report the tampering: %+v", failed, report)
			}
			t.Logf("\t%s\tShould report the tampering.", success)

			st.DetectTampering()
			if got := len(st.SecurityLog()); got != before+2 {
				t.Fatalf("\t%s\tShould log one entry per check, got %d, exp %d.", failed, got, before+2)
			}
			t.Logf("\t%s\tShould log one entry per check.", success)

			blocks, _ := st.Blocks()
			for _, i := range []int{1, 3} {
				if err := blocks[i].VerifyIntegrity(time.Now()); err != nil {
					t.Fatalf("\t%s\tShould leave block %d intact: %v", failed, i, err)
				}
			}
			t.Logf("\t%s\tShould leave unrelated blocks intact.", success)
		}
	}
}

func Test_AdjustDifficulty(t *testing.T) {
	t.Log("Given the need to react to the block time.")
	{
		st := newState(t, nil)
		createWallets(t, st, map[database.WalletID]float64{"alice": 100, "bob": 50})

		t.Log("\tWhen only genesis exists.")
		{
			if got := st.AdjustDifficulty(time.Hour); got != 1 {
				t.Fatalf("\t%s\tShould not change the difficulty, got %d.", failed, got)
			}
			t.Logf("\t%s\tShould not change the difficulty.", success)
		}

		st.Transfer("alice", "bob", 1, 0)
		mine(t, st)

		t.Log("\tWhen the block was mined fast.")
		{
			if got := st.AdjustDifficulty(time.Hour); got != 2 {
				t.Fatalf("\t%s\tShould raise the difficulty to 2, got %d.", failed, got)
			}
			t.Logf("\t%s\tShould raise the difficulty by one.", success)
		}

		t.Log("\tWhen the block was mined slow.")
		{
			if got := st.AdjustDifficulty(time.Nanosecond); got != 1 {
				t.Fatalf("\t%s\tShould lower the difficulty to 1, got %d.", failed, got)
			}
			if got := st.AdjustDifficulty(time.Nanosecond); got != 1 {
				t.Fatalf("\t%s\tShould not go below 1, got %d.", failed, got)
			}
			t.Logf("\t%s\tShould lower the difficulty but never below 1.", success)
		}
	}
}

func Test_MineCancel(t *testing.T) {
	t.Log("Given the need to cancel mining.")
	{
		st := newState(t, nil)
		createWallets(t, st, map[database.WalletID]float64{"alice": 100, "bob": 50})
		st.Transfer("alice", "bob", 1, 0)
		st.SetDifficulty(64)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := st.MinePendingTransactions(ctx, "miner", 10)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("\t%s\tShould stop with the context error: %v", failed, err)
		}
		if st.ChainLength() != 1 || st.MempoolLength() != 1 || st.Balance("alice") != 100 {
			t.Fatalf("\t%s\tShould leave the state unchanged.", failed)
		}
		t.Logf("\t%s\tShould stop and leave the state unchanged.", success)
	}
}

func Test_AddBlock(t *testing.T) {
	t.Log("Given the need to mine a specific set of transactions.")
	{
		st := newState(t, nil)
		createWallets(t, st, map[database.WalletID]float64{"alice": 100, "bob": 50})

		t.Log("\tWhen the transactions are valid.")
		{
			tx := database.NewTx("alice", "bob", 10, 0)
			tx.SignWith("alice")

			block, err := st.AddBlock(context.Background(), "miner", []database.Tx{tx})
			if err != nil {
				t.Fatalf("\t%s\tShould be able to add the block: %v", failed, err)
			}
			if st.LatestBlock().Hash != block.Hash || st.Balance("bob") != 60 {
				t.Fatalf("\t%s\tShould append and replay the block.", failed)
			}
			t.Logf("\t%s\tShould append and replay the block.", success)
		}

		t.Log("\tWhen a transaction is not signed.")
		{
			tx := database.NewTx("alice", "bob", 10, 0)

			_, err := st.AddBlock(context.Background(), "miner", []database.Tx{tx})
			if !errors.Is(err, state.ErrInvalidTransaction) {
				t.Fatalf("\t%s\tShould reject the block: %v", failed, err)
			}
			if st.ChainLength() != 2 {
				t.Fatalf("\t%s\tShould not append the block.", failed)
			}
			t.Logf("\t%s\tShould reject the block.", success)
		}
	}
}

func Test_Reload(t *testing.T) {
	t.Log("Given the need to restart from stored blocks.")
	{
		storage := memory.New()
		st := newState(t, storage)
		createWallets(t, st, map[database.WalletID]float64{"alice": 100, "bob": 50})

		st.Transfer("alice", "bob", 25, 0.1)
		mine(t, st)
		mine(t, st)

		again := newState(t, storage)
		if again.ChainLength() != 3 || again.CurrentBlockReward() != st.CurrentBlockReward() {
			t.Fatalf("\t%s\tShould rebuild the chain counters.", failed)
		}
		t.Logf("\t%s\tShould rebuild the chain counters.", success)

		if ok, errs := again.IsChainValid(false); !ok {
			t.Fatalf("\t%s\tShould load a valid chain: %v", failed, errs)
		}
		t.Logf("\t%s\tShould load a valid chain.", success)
	}
}

// =============================================================================

// tamperStorage wraps the memory storage and changes blocks as they are read.
type tamperStorage struct {
	*memory.Memory

	mu  sync.Mutex
	fns map[uint64]func(bd *database.BlockData)
}

func newTamperStorage() *tamperStorage {
	return &tamperStorage{
		Memory: memory.New(),
		fns:    make(map[uint64]func(bd *database.BlockData)),
	}
}

func (ts *tamperStorage) tamper(num uint64, fn func(bd *database.BlockData)) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.fns[num] = fn
}

func (ts *tamperStorage) GetBlock(num uint64) (database.BlockData, error) {
	bd, err := ts.Memory.GetBlock(num)
	if err != nil {
		return bd, err
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if fn, exists := ts.fns[num]; exists {
		fn(&bd)
	}

	return bd, nil
}

func (ts *tamperStorage) ForEach() database.Iterator {
	return &tamperIterator{storage: ts}
}

type tamperIterator struct {
	storage *tamperStorage
	current uint64
	eoc     bool
}

func (ti *tamperIterator) Next() (database.BlockData, error) {
	if ti.eoc {
		return database.BlockData{}, memory.ErrEndOfChain
	}

	bd, err := ti.storage.GetBlock(ti.current)
	if err != nil {
		ti.eoc = true
	}
	ti.current++

	return bd, err
}

func (ti *tamperIterator) Done() bool {
	return ti.eoc
}
