package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hbulgarini/imbue/internal/model"
)

func TestEscrowAccountDeterministic(t *testing.T) {
	a := EscrowAccount("imbue/pr", 1)
	if a != EscrowAccount("imbue/pr", 1) {
		t.Fatal("escrow account not deterministic")
	}
	if a == EscrowAccount("imbue/pr", 2) {
		t.Error("different projects share an escrow account")
	}
	if a == EscrowAccount("other", 1) {
		t.Error("different pallet ids share an escrow account")
	}
	if a == (common.Address{}) {
		t.Error("escrow account is zero")
	}
}

func TestMemoryTransfer(t *testing.T) {
	alice := common.HexToAddress("0x0a")
	bob := common.HexToAddress("0x0b")

	l := NewMemory()
	if err := l.Deposit("DOT", alice, 100); err != nil {
		t.Fatal(err)
	}

	if err := l.Transfer("DOT", alice, bob, 40); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got := l.Balance("DOT", alice); got != 60 {
		t.Errorf("alice = %d, want 60", got)
	}
	if got := l.Balance("DOT", bob); got != 40 {
		t.Errorf("bob = %d, want 40", got)
	}

	err := l.Transfer("DOT", bob, alice, 41)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}
	if got := l.Balance("DOT", bob); got != 40 {
		t.Errorf("bob after failed transfer = %d, want 40", got)
	}

	// 币种互相隔离
	if got := l.Balance("KSM", alice); got != 0 {
		t.Errorf("alice KSM = %d, want 0", got)
	}
}

func TestMemoryDepositOverflow(t *testing.T) {
	a := common.HexToAddress("0x01")
	l := NewMemory()
	if err := l.Deposit("DOT", a, model.Balance(math.MaxUint64)); err != nil {
		t.Fatal(err)
	}
	if err := l.Deposit("DOT", a, 1); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("got %v, want ErrBalanceOverflow", err)
	}
}
