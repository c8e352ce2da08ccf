package ledger

import (
	"encoding/binary"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/hbulgarini/imbue/internal/model"
)

var (
	// ErrInsufficientBalance 余额不足
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBalanceOverflow 入账溢出
	ErrBalanceOverflow = errors.New("balance overflow")
)

// Ledger 账本适配器，持有并划转各币种余额
type Ledger interface {
	Transfer(currency model.CurrencyID, from, to model.AccountID, amount model.Balance) error
	Balance(currency model.CurrencyID, account model.AccountID) model.Balance
}

// EscrowAccount 由模块标识与项目编号派生项目托管子账户
func EscrowAccount(palletID string, key model.ProjectKey) model.AccountID {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], uint32(key))
	hash := crypto.Keccak256([]byte(palletID), []byte("project"), k[:])
	return common.BytesToAddress(hash[12:])
}

type balanceKey struct {
	currency model.CurrencyID
	account  model.AccountID
}

// Memory 内存账本，开发节点与测试使用
type Memory struct {
	mu       sync.RWMutex
	balances map[balanceKey]model.Balance
}

// NewMemory 创建空的内存账本
func NewMemory() *Memory {
	return &Memory{balances: make(map[balanceKey]model.Balance)}
}

// Deposit 直接为账户入账
func (m *Memory) Deposit(currency model.CurrencyID, account model.AccountID, amount model.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := balanceKey{currency, account}
	sum, ok := m.balances[k].Add(amount)
	if !ok {
		return ErrBalanceOverflow
	}
	m.balances[k] = sum
	return nil
}

// Transfer 在账户间划转，失败时余额不变
func (m *Memory) Transfer(currency model.CurrencyID, from, to model.AccountID, amount model.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount == 0 || from == to {
		return nil
	}
	fromKey := balanceKey{currency, from}
	toKey := balanceKey{currency, to}

	rest, ok := m.balances[fromKey].Sub(amount)
	if !ok {
		return errors.Wrapf(ErrInsufficientBalance, "%s has %d %s, needs %d",
			from.Hex(), m.balances[fromKey], currency, amount)
	}
	sum, ok := m.balances[toKey].Add(amount)
	if !ok {
		return ErrBalanceOverflow
	}
	m.balances[fromKey] = rest
	m.balances[toKey] = sum
	return nil
}

// Balance 查询余额
func (m *Memory) Balance(currency model.CurrencyID, account model.AccountID) model.Balance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[balanceKey{currency, account}]
}
