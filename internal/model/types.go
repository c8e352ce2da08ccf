package model

import (
	"math/bits"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ProjectKey 项目编号，按创建顺序递增
type ProjectKey uint32

// RoundKey 轮次编号，按创建顺序递增
type RoundKey uint32

// MilestoneKey 里程碑编号，项目内从0开始
type MilestoneKey uint32

// BlockNumber 区块高度
type BlockNumber uint64

// CurrencyID 币种标识
type CurrencyID string

// AccountID 账户地址
type AccountID = common.Address

// Balance 以最小单位计的金额
type Balance uint64

// ZeroAccount 空地址
var ZeroAccount AccountID

// ParseAccount 解析十六进制账户地址
func ParseAccount(s string) (AccountID, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return ZeroAccount, errors.Errorf("invalid account address %q", s)
	}
	return common.HexToAddress(s), nil
}

// Add 返回 b+o，溢出时 ok 为 false
func (b Balance) Add(o Balance) (Balance, bool) {
	sum, carry := bits.Add64(uint64(b), uint64(o), 0)
	return Balance(sum), carry == 0
}

// Sub 返回 b-o，不足时 ok 为 false
func (b Balance) Sub(o Balance) (Balance, bool) {
	if o > b {
		return 0, false
	}
	return b - o, true
}

// MulDiv 返回 b*num/den（向下取整），中间结果使用128位
func (b Balance) MulDiv(num, den uint64) (Balance, bool) {
	if den == 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(b), num)
	if hi >= den {
		return 0, false
	}
	q, _ := bits.Div64(hi, lo, den)
	return Balance(q), true
}
