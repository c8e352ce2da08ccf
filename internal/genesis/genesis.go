package genesis

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hbulgarini/imbue/internal/identity"
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
)

// Balance 初始余额
type Balance struct {
	Account  string `yaml:"account"`
	Currency string `yaml:"currency"`
	Amount   uint64 `yaml:"amount"`
}

// Identity 初始身份认证
type Identity struct {
	Account   string `yaml:"account"`
	Judgement string `yaml:"judgement"`
}

// Genesis 开发节点的初始状态
type Genesis struct {
	Balances   []Balance  `yaml:"balances"`
	Identities []Identity `yaml:"identities"`
}

// Depositor 可直接入账的账本
type Depositor interface {
	Deposit(currency model.CurrencyID, account model.AccountID, amount model.Balance) error
}

// Attester 可写入认证结论的身份注册表
type Attester interface {
	AddJudgement(account model.AccountID, j identity.Judgement)
}

// Load 读取 YAML 初始状态文件
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read genesis %s", path)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "genesis %s", path)
	}
	return g, nil
}

// Parse 解析初始状态，拒绝未知字段
func Parse(data []byte) (*Genesis, error) {
	var g Genesis
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	return &g, nil
}

type deposit struct {
	currency model.CurrencyID
	account  model.AccountID
	amount   model.Balance
}

type judgement struct {
	account model.AccountID
	value   identity.Judgement
}

// Apply 校验全部条目后写入账本与身份注册表
func (g *Genesis) Apply(l Depositor, r Attester) error {
	deposits := make([]deposit, 0, len(g.Balances))
	for i, b := range g.Balances {
		account, err := model.ParseAccount(b.Account)
		if err != nil {
			return errors.Wrapf(err, "balances[%d]", i)
		}
		if b.Currency == "" {
			return errors.Errorf("balances[%d]: currency is empty", i)
		}
		deposits = append(deposits, deposit{model.CurrencyID(b.Currency), account, model.Balance(b.Amount)})
	}

	judgements := make([]judgement, 0, len(g.Identities))
	for i, id := range g.Identities {
		account, err := model.ParseAccount(id.Account)
		if err != nil {
			return errors.Wrapf(err, "identities[%d]", i)
		}
		j, err := identity.ParseJudgement(id.Judgement)
		if err != nil {
			return errors.Wrapf(err, "identities[%d]", i)
		}
		judgements = append(judgements, judgement{account, j})
	}

	for _, d := range deposits {
		if err := l.Deposit(d.currency, d.account, d.amount); err != nil {
			return errors.Wrapf(err, "deposit %d %s to %s", d.amount, d.currency, d.account.Hex())
		}
	}
	for _, j := range judgements {
		r.AddJudgement(j.account, j.value)
	}

	logger.Info("Genesis applied: %d balances, %d identities", len(deposits), len(judgements))
	return nil
}
