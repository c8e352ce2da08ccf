package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/hbulgarini/imbue/internal/config"
	"github.com/hbulgarini/imbue/internal/model"
)

func TestLocalClock(t *testing.T) {
	c := NewLocalClock(10)
	if got := c.CurrentHeight(); got != 10 {
		t.Fatalf("start = %d", got)
	}
	if got := c.Advance(5); got != 15 {
		t.Errorf("Advance = %d, want 15", got)
	}
	c.Set(12)
	if got := c.CurrentHeight(); got != 15 {
		t.Errorf("Set backwards moved clock to %d", got)
	}
	c.Set(40)
	h, err := c.Sync(context.Background())
	if err != nil || h != 41 {
		t.Errorf("Sync = %d, %v; want 41", h, err)
	}
}

type fakeHead struct {
	heads  []uint64
	err    error
	closed bool
}

func (f *fakeHead) BlockNumber(context.Context) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	h := f.heads[0]
	if len(f.heads) > 1 {
		f.heads = f.heads[1:]
	}
	return h, nil
}

func (f *fakeHead) Close() { f.closed = true }

func TestEthClockSyncMonotonic(t *testing.T) {
	f := &fakeHead{heads: []uint64{100, 90, 120}}
	c := newEthClock(f, "ethereum")
	ctx := context.Background()

	want := []model.BlockNumber{100, 100, 120}
	for i, w := range want {
		got, err := c.Sync(ctx)
		if err != nil {
			t.Fatalf("sync %d: %v", i, err)
		}
		if got != w {
			t.Errorf("sync %d = %d, want %d", i, got, w)
		}
	}

	f.err = errors.New("rpc down")
	if _, err := c.Sync(ctx); err == nil {
		t.Error("expected sync error")
	}
	if c.CurrentHeight() != 120 {
		t.Errorf("height after failure = %d", c.CurrentHeight())
	}
	if s := c.GetHealthStatus(ctx); s["client_status"] != "disconnected" {
		t.Errorf("status = %v", s["client_status"])
	}

	c.Close()
	if !f.closed {
		t.Error("client not closed")
	}
}

func TestNewEthClockValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := NewEthClock(ctx, config.ChainConfig{ChainType: "ethereum"}); err == nil {
		t.Error("expected error for empty rpc url")
	}
	if _, err := NewEthClock(ctx, config.ChainConfig{ChainType: "solana", RpcUrl: "http://localhost:8545"}); err == nil {
		t.Error("expected error for unsupported chain type")
	}
}
