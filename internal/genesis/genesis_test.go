package genesis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hbulgarini/imbue/internal/identity"
	"github.com/hbulgarini/imbue/internal/ledger"
)

const sample = `
balances:
  - account: "0x00000000000000000000000000000000000000b0"
    currency: DOT
    amount: 1000000
  - account: "0x00000000000000000000000000000000000000c0"
    currency: DOT
    amount: 500
identities:
  - account: "0x00000000000000000000000000000000000000a1"
    judgement: reasonable
  - account: "0x00000000000000000000000000000000000000b0"
    judgement: fee_paid
`

func TestLoadAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	g, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	l := ledger.NewMemory()
	r := identity.NewRegistry()
	if err := g.Apply(l, r); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	bob := common.HexToAddress("0xb0")
	carol := common.HexToAddress("0xc0")
	alice := common.HexToAddress("0xa1")

	if got := l.Balance("DOT", bob); got != 1_000_000 {
		t.Errorf("bob balance = %d, want 1000000", got)
	}
	if got := l.Balance("DOT", carol); got != 500 {
		t.Errorf("carol balance = %d, want 500", got)
	}
	if !r.HasSufficientAttestation(alice) {
		t.Error("alice should have a sufficient attestation")
	}
	if r.HasSufficientAttestation(bob) {
		t.Error("fee_paid must not count as sufficient")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte("balance:\n  - account: x\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestApplyValidatesBeforeWriting(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "bad account",
			doc: `
balances:
  - account: "0x00000000000000000000000000000000000000b0"
    currency: DOT
    amount: 10
  - account: "not-an-address"
    currency: DOT
    amount: 10
`,
		},
		{
			name: "missing currency",
			doc: `
balances:
  - account: "0x00000000000000000000000000000000000000b0"
    amount: 10
`,
		},
		{
			name: "unknown judgement",
			doc: `
balances:
  - account: "0x00000000000000000000000000000000000000b0"
    currency: DOT
    amount: 10
identities:
  - account: "0x00000000000000000000000000000000000000a1"
    judgement: trusted
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			l := ledger.NewMemory()
			if err := g.Apply(l, identity.NewRegistry()); err == nil {
				t.Fatal("expected Apply to fail")
			}
			if got := l.Balance("DOT", common.HexToAddress("0xb0")); got != 0 {
				t.Errorf("balance written before validation finished: %d", got)
			}
		})
	}
}
