package engine

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/hbulgarini/imbue/internal/chain"
	"github.com/hbulgarini/imbue/internal/config"
	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/identity"
	"github.com/hbulgarini/imbue/internal/ledger"
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
	"github.com/hbulgarini/imbue/internal/store"
)

const (
	// MaxStringFieldLength 项目文本字段的最大字节数
	MaxStringFieldLength = 256

	// MaxMilestonesPerProject 单个项目的里程碑上限
	MaxMilestonesPerProject = 100

	// MaxProjectsPerRoundLimit max_projects_per_round 参数的上限
	MaxProjectsPerRoundLimit = 50
)

// Config 引擎常量
type Config struct {
	PalletID  string
	Authority model.AccountID
	Treasury  model.AccountID

	FeePercent               uint64
	MilestoneVotingWindow    uint64
	NoConfidenceTimeLimit    uint64
	MilestoneApprovalPercent uint64
	MilestoneQuorumPercent   uint64
	NoConfidencePassPercent  uint64

	// DefaultParams 存储中没有参数记录时写入
	DefaultParams model.Params
}

// DefaultConfig 默认常量，账户需调用方填写
func DefaultConfig() Config {
	return Config{
		PalletID:                 "imbue/pr",
		FeePercent:               5,
		MilestoneVotingWindow:    100,
		NoConfidenceTimeLimit:    100,
		MilestoneApprovalPercent: 50,
		MilestoneQuorumPercent:   0,
		NoConfidencePassPercent:  75,
		DefaultParams:            model.Params{MaxProjectsPerRound: 5},
	}
}

// NewConfig 从配置文件构建引擎常量
func NewConfig(c config.EngineConfig) (Config, error) {
	cfg := DefaultConfig()

	authority, err := model.ParseAccount(c.Authority)
	if err != nil {
		return cfg, errors.Wrap(err, "engine.authority")
	}
	cfg.Authority = authority
	if c.Treasury != "" {
		treasury, err := model.ParseAccount(c.Treasury)
		if err != nil {
			return cfg, errors.Wrap(err, "engine.treasury")
		}
		cfg.Treasury = treasury
	}
	if c.PalletID != "" {
		cfg.PalletID = c.PalletID
	}
	cfg.FeePercent = c.FeePercent
	cfg.MilestoneVotingWindow = c.MilestoneVotingWindow
	cfg.NoConfidenceTimeLimit = c.NoConfidenceTimeLimit
	cfg.MilestoneApprovalPercent = c.MilestoneApprovalPercent
	cfg.MilestoneQuorumPercent = c.MilestoneQuorumPercent
	cfg.NoConfidencePassPercent = c.NoConfidencePassPercent
	if c.MaxProjectsPerRound != 0 {
		cfg.DefaultParams.MaxProjectsPerRound = c.MaxProjectsPerRound
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch {
	case c.Authority == model.ZeroAccount:
		return errors.New("authority account not set")
	case c.FeePercent > 100:
		return errors.Errorf("fee percent %d exceeds 100", c.FeePercent)
	case c.FeePercent > 0 && c.Treasury == model.ZeroAccount:
		return errors.New("treasury account required when fee percent is set")
	case c.MilestoneApprovalPercent > 100 || c.MilestoneQuorumPercent > 100:
		return errors.New("milestone thresholds must be within 0..100")
	case c.NoConfidencePassPercent == 0 || c.NoConfidencePassPercent > 100:
		return errors.New("no-confidence pass percent must be within 1..100")
	case c.MilestoneVotingWindow == 0 || c.NoConfidenceTimeLimit == 0:
		return errors.New("voting windows must be positive")
	case c.DefaultParams.MaxProjectsPerRound == 0 || c.DefaultParams.MaxProjectsPerRound > MaxProjectsPerRoundLimit:
		return errors.Errorf("max projects per round %d out of range", c.DefaultParams.MaxProjectsPerRound)
	}
	return nil
}

// Engine 项目众筹状态机
//
// 所有写操作串行执行，每次调用要么完整生效，要么存储与账本都保持不变。
type Engine struct {
	mu sync.Mutex

	cfg       Config
	store     *store.Store
	ledger    ledger.Ledger
	identity  identity.Provider
	clock     chain.Clock
	publisher event.Publisher
}

// New 创建引擎，publisher 可为 nil
func New(cfg Config, st *store.Store, l ledger.Ledger, id identity.Provider, clock chain.Clock, publisher event.Publisher) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:       cfg,
		store:     st,
		ledger:    l,
		identity:  id,
		clock:     clock,
		publisher: publisher,
	}

	err := st.Update(func(tx *store.Tx) error {
		_, ok, err := tx.Params()
		if err != nil || ok {
			return err
		}
		return tx.PutParams(cfg.DefaultParams)
	})
	if err != nil {
		return nil, errors.Wrap(err, "init params")
	}
	return e, nil
}

// Config 引擎常量
func (e *Engine) Config() Config {
	return e.cfg
}

// CurrentHeight 当前区块高度
func (e *Engine) CurrentHeight() model.BlockNumber {
	return e.clock.CurrentHeight()
}

// EscrowAccount 项目托管账户
func (e *Engine) EscrowAccount(key model.ProjectKey) model.AccountID {
	return ledger.EscrowAccount(e.cfg.PalletID, key)
}

// transfer 已执行的划转，用于失败回滚
type transfer struct {
	currency model.CurrencyID
	from, to model.AccountID
	amount   model.Balance
}

// call 单次调用的执行上下文
type call struct {
	e       *Engine
	tx      *store.Tx
	now     model.BlockNumber
	params  model.Params
	journal []transfer
	events  []event.Event
}

// execute 在单个存储事务中执行 fn，失败时撤销已完成的账本划转
func (e *Engine) execute(name string, fn func(c *call) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := &call{e: e, now: e.clock.CurrentHeight()}
	err := e.store.Update(func(tx *store.Tx) error {
		c.tx = tx
		params, ok, err := tx.Params()
		if err != nil {
			return wrap(ErrStorage, err)
		}
		if !ok {
			params = e.cfg.DefaultParams
		}
		c.params = params
		return fn(c)
	})
	if err != nil {
		c.rollback()
		var engineErr *Error
		if !errors.As(err, &engineErr) {
			err = wrap(ErrStorage, err)
		}
		logger.Debug("%s rejected at height %d: %v", name, c.now, err)
		return err
	}

	logger.Debug("%s committed at height %d with %d events", name, c.now, len(c.events))
	if e.publisher != nil && len(c.events) > 0 {
		e.publisher.Publish(c.events)
	}
	return nil
}

// view 在只读快照上执行查询
func (e *Engine) view(fn func(tx *store.Tx) error) error {
	err := e.store.View(fn)
	if err == nil {
		return nil
	}
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return err
	}
	return wrap(ErrStorage, err)
}

func (c *call) transfer(currency model.CurrencyID, from, to model.AccountID, amount model.Balance) error {
	if amount == 0 {
		return nil
	}
	if err := c.e.ledger.Transfer(currency, from, to, amount); err != nil {
		return wrap(ErrLedger, err)
	}
	c.journal = append(c.journal, transfer{currency, from, to, amount})
	return nil
}

func (c *call) rollback() {
	for i := len(c.journal) - 1; i >= 0; i-- {
		t := c.journal[i]
		if err := c.e.ledger.Transfer(t.currency, t.to, t.from, t.amount); err != nil {
			logger.Error("Failed to revert transfer of %d %s from %s to %s: %v",
				t.amount, t.currency, t.from.Hex(), t.to.Hex(), err)
		}
	}
	c.journal = nil
}

func (c *call) emit(ev event.Event) {
	c.events = append(c.events, ev)
}

func (c *call) newEvent(t event.Type, project model.ProjectKey) event.Event {
	return event.New(t, c.now, project)
}

func (c *call) requireAuthority(caller model.AccountID) error {
	if caller != c.e.cfg.Authority {
		return fail(ErrNotAuthority, "%s", caller.Hex())
	}
	return nil
}

func requireInitiator(p model.Project, caller model.AccountID) error {
	if p.Initiator != caller {
		return fail(ErrUserIsNotInitiator, "project %d", p.Key)
	}
	return nil
}

func (c *call) project(key model.ProjectKey) (model.Project, error) {
	p, ok, err := c.tx.Project(key)
	if err != nil {
		return p, wrap(ErrStorage, err)
	}
	if !ok {
		return p, fail(ErrProjectNotFound, "project %d", key)
	}
	return p, nil
}

func (c *call) putProject(p model.Project) error {
	if err := c.tx.PutProject(p); err != nil {
		return wrap(ErrStorage, err)
	}
	return nil
}

func (c *call) round(key model.RoundKey) (model.Round, error) {
	r, ok, err := c.tx.Round(key)
	if err != nil {
		return r, wrap(ErrStorage, err)
	}
	if !ok {
		return r, fail(ErrRoundNotFound, "round %d", key)
	}
	return r, nil
}

func (c *call) putRound(r model.Round) error {
	if err := c.tx.PutRound(r); err != nil {
		return wrap(ErrStorage, err)
	}
	return nil
}

// contributionWeight 调用方的累计贡献，即投票权重
func contributionWeight(p model.Project, account model.AccountID) (model.Balance, error) {
	contribution, ok := p.ContributionOf(account)
	if !ok || contribution.Value == 0 {
		return 0, fail(ErrOnlyContributorsCanVote, "project %d", p.Key)
	}
	return contribution.Value, nil
}

func requireOpen(p model.Project) error {
	if p.Cancelled {
		return fail(ErrProjectCancelled, "project %d", p.Key)
	}
	return nil
}

func requireApproved(p model.Project) error {
	if err := requireOpen(p); err != nil {
		return err
	}
	if !p.ApprovedForFunding {
		return fail(ErrProjectNotApproved, "project %d", p.Key)
	}
	return nil
}
