package chain

import (
	"context"
	"sync/atomic"

	"github.com/hbulgarini/imbue/internal/model"
)

// Clock 提供单调递增的当前区块高度
type Clock interface {
	CurrentHeight() model.BlockNumber
}

// Source 可推进的高度来源，由出块任务周期调用
type Source interface {
	Clock
	Sync(ctx context.Context) (model.BlockNumber, error)
}

// LocalClock 本地高度，开发节点按固定间隔出块，测试可直接设置
type LocalClock struct {
	height atomic.Uint64
}

// NewLocalClock 创建从 start 开始的本地时钟
func NewLocalClock(start model.BlockNumber) *LocalClock {
	c := &LocalClock{}
	c.height.Store(uint64(start))
	return c
}

// CurrentHeight 当前高度
func (c *LocalClock) CurrentHeight() model.BlockNumber {
	return model.BlockNumber(c.height.Load())
}

// Advance 前进 n 个区块
func (c *LocalClock) Advance(n uint64) model.BlockNumber {
	return model.BlockNumber(c.height.Add(n))
}

// Set 设置高度，低于当前高度时忽略
func (c *LocalClock) Set(h model.BlockNumber) {
	for {
		cur := c.height.Load()
		if uint64(h) <= cur || c.height.CompareAndSwap(cur, uint64(h)) {
			return
		}
	}
}

// Sync 出块一次
func (c *LocalClock) Sync(context.Context) (model.BlockNumber, error) {
	return c.Advance(1), nil
}
