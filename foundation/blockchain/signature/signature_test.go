package signature_test

import (
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	h := signature.Hash(value)
	if !signature.IsHash(h) {
		t.Fatalf("Should get back a well formed hash: %s", h)
	}

	if h2 := signature.Hash(value); h2 != h {
		t.Logf("got: %s", h2)
		t.Logf("exp: %s", h)
		t.Fatalf("Should get back the same hash twice.")
	}

	value.Name = "Jill"
	if h3 := signature.Hash(value); h3 == h {
		t.Fatalf("Should get back a different hash for different data.")
	}
}

func Test_HashSolved(t *testing.T) {
	type table struct {
		name       string
		difficulty uint
		hash       string
		solved     bool
	}

	tt := []table{
		{name: "zero", difficulty: 0, hash: "0xf0" + strings.Repeat("1", 62), solved: true},
		{name: "one", difficulty: 1, hash: "0x0f" + strings.Repeat("1", 62), solved: true},
		{name: "short", difficulty: 2, hash: "0x0f" + strings.Repeat("1", 62), solved: false},
		{name: "four", difficulty: 4, hash: "0x0000" + strings.Repeat("a", 60), solved: true},
		{name: "noprefix", difficulty: 1, hash: strings.Repeat("0", 64), solved: false},
		{name: "length", difficulty: 1, hash: "0x000", solved: false},
		{name: "sentinel", difficulty: 64, hash: signature.ZeroHash, solved: true},
		{name: "toohard", difficulty: 65, hash: signature.ZeroHash, solved: false},
	}

	t.Log("Given the need to validate proof of work solutions.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				got := signature.IsHashSolved(tst.difficulty, tst.hash)
				if got != tst.solved {
					t.Fatalf("\t%s\tTest %d:\tShould get %v for difficulty %d, got %v.", failed, testID, tst.solved, tst.difficulty, got)
				}
				t.Logf("\t%s\tTest %d:\tShould get %v for difficulty %d.", success, testID, tst.solved, tst.difficulty)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Placeholder(t *testing.T) {
	hash := signature.Hash("payload")

	sig, err := signature.Placeholder{}.Sign(hash)
	if err != nil {
		t.Fatalf("Should be able to sign: %s", err)
	}

	if sig != "signed_"+hash {
		t.Logf("got: %s", sig)
		t.Logf("exp: %s", "signed_"+hash)
		t.Fatalf("Should get back the placeholder signature.")
	}

	keyed, err := signature.Placeholder{Key: "alice"}.Sign(hash)
	if err != nil {
		t.Fatalf("Should be able to sign with a key: %s", err)
	}

	if keyed != "signed_with_alice_"+hash {
		t.Logf("got: %s", keyed)
		t.Fatalf("Should get back the keyed placeholder signature.")
	}

	again, _ := signature.Placeholder{Key: "alice"}.Sign(hash)
	if again != keyed {
		t.Fatalf("Should get back the same signature when signing twice.")
	}

	for _, s := range []string{sig, keyed} {
		if !signature.WellFormed(s) {
			t.Fatalf("Should see %q as well formed.", s[:12])
		}
	}

	for _, s := range []string{"", "signed_", "unsigned_" + hash} {
		if signature.WellFormed(s) {
			t.Fatalf("Should not see %q as well formed.", s)
		}
	}
}
