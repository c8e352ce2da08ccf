package chain

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	"github.com/hbulgarini/imbue/internal/config"
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
)

// supportedTypes 支持的 EVM 兼容链
var supportedTypes = []string{"ethereum", "polygon", "bsc", "arbitrum", "optimism"}

// headReader ethclient.Client 中用到的部分
type headReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

// EthClock 以 EVM 链最新区块号作为高度
//
// 高度缓存在本地，只有 Sync 访问节点，引擎调用不会阻塞在 RPC 上。
type EthClock struct {
	client    headReader
	chainType string
	height    atomic.Uint64
}

// NewEthClock 连接节点并读取初始高度
func NewEthClock(ctx context.Context, cfg config.ChainConfig) (*EthClock, error) {
	if cfg.RpcUrl == "" {
		return nil, errors.New("no RPC URL configured")
	}
	if !isSupported(cfg.ChainType) {
		return nil, errors.Errorf("unsupported chain type %s, supported types: %v", cfg.ChainType, supportedTypes)
	}

	logger.Info("Creating %s client connection (RPC: %s)", cfg.ChainType, cfg.RpcUrl)
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", cfg.ChainType)
	}

	c := newEthClock(client, cfg.ChainType)
	if _, err := c.Sync(ctx); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "client connection test failed (%s)", cfg.ChainType)
	}

	logger.Info("Successfully created %s client at height %d", cfg.ChainType, c.CurrentHeight())
	return c, nil
}

func newEthClock(client headReader, chainType string) *EthClock {
	return &EthClock{client: client, chainType: chainType}
}

func isSupported(chainType string) bool {
	for _, t := range supportedTypes {
		if t == chainType {
			return true
		}
	}
	return false
}

// CurrentHeight 最近一次同步到的高度
func (c *EthClock) CurrentHeight() model.BlockNumber {
	return model.BlockNumber(c.height.Load())
}

// Sync 从节点读取最新区块号，高度只增不减
func (c *EthClock) Sync(ctx context.Context) (model.BlockNumber, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		return c.CurrentHeight(), errors.Wrap(err, "failed to get block number")
	}
	for {
		cur := c.height.Load()
		if head <= cur {
			return model.BlockNumber(cur), nil
		}
		if c.height.CompareAndSwap(cur, head) {
			return model.BlockNumber(head), nil
		}
	}
}

// GetHealthStatus 获取健康状态
func (c *EthClock) GetHealthStatus(ctx context.Context) map[string]interface{} {
	status := "connected"
	if _, err := c.client.BlockNumber(ctx); err != nil {
		status = "disconnected"
	}
	return map[string]interface{}{
		"chain_type":    c.chainType,
		"client_status": status,
		"height":        c.CurrentHeight(),
	}
}

// Close 关闭客户端
func (c *EthClock) Close() {
	c.client.Close()
	logger.Info("Chain client closed")
}
