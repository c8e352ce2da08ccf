package event

import (
	"github.com/google/uuid"

	"github.com/hbulgarini/imbue/internal/model"
)

// Type 事件类型
type Type string

const (
	TypeProjectCreated             Type = "ProjectCreated"
	TypeWhitelistAdded             Type = "WhitelistAdded"
	TypeWhitelistRemoved           Type = "WhitelistRemoved"
	TypeFundingRoundCreated        Type = "FundingRoundCreated"
	TypeVotingRoundCreated         Type = "VotingRoundCreated"
	TypeNoConfidenceRoundCreated   Type = "NoConfidenceRoundCreated"
	TypeRoundCancelled             Type = "RoundCancelled"
	TypeContributeSucceeded        Type = "ContributeSucceeded"
	TypeProjectApproved            Type = "ProjectApproved"
	TypeVoteComplete               Type = "VoteComplete"
	TypeMilestoneApproved          Type = "MilestoneApproved"
	TypeMilestoneRejected          Type = "MilestoneRejected"
	TypeProjectFundsWithdrawn      Type = "ProjectFundsWithdrawn"
	TypeNoConfidenceRoundVotedUpon Type = "NoConfidenceRoundVotedUpon"
	TypeNoConfidenceRoundFinalised Type = "NoConfidenceRoundFinalised"
	TypeProjectLockedFundsRefunded Type = "ProjectLockedFundsRefunded"
	TypeParamsUpdated              Type = "ParamsUpdated"
)

// Refund 单个贡献者的退款
type Refund struct {
	Account model.AccountID `json:"account"`
	Amount  model.Balance   `json:"amount"`
}

// Event 已提交的状态变更事件
//
// 字段按事件类型选填，Project 为变更后的项目快照。
type Event struct {
	ID     string            `json:"id"`
	Type   Type              `json:"type"`
	Height model.BlockNumber `json:"height"`

	ProjectKey   model.ProjectKey    `json:"project_key"`
	RoundKey     *model.RoundKey     `json:"round_key,omitempty"`
	MilestoneKey *model.MilestoneKey `json:"milestone_key,omitempty"`
	Account      model.AccountID     `json:"account"`

	Amount   model.Balance    `json:"amount,omitempty"`
	Fee      model.Balance    `json:"fee,omitempty"`
	Currency model.CurrencyID `json:"currency,omitempty"`
	Approved bool             `json:"approved,omitempty"`
	Yay      model.Balance    `json:"yay,omitempty"`
	Nay      model.Balance    `json:"nay,omitempty"`
	Reason   string           `json:"reason,omitempty"`

	Round      *model.Round           `json:"round,omitempty"`
	Milestones []model.MilestoneKey   `json:"milestones,omitempty"`
	Refunds    []Refund               `json:"refunds,omitempty"`
	Whitelist  []model.WhitelistEntry `json:"whitelist,omitempty"`
	Project    *model.Project         `json:"project,omitempty"`
	Params     *model.Params          `json:"params,omitempty"`
}

// New 创建带唯一编号的事件
func New(t Type, height model.BlockNumber, project model.ProjectKey) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Height:     height,
		ProjectKey: project,
	}
}

// WithRound 设置轮次编号
func (e Event) WithRound(k model.RoundKey) Event {
	e.RoundKey = &k
	return e
}

// WithMilestone 设置里程碑编号
func (e Event) WithMilestone(k model.MilestoneKey) Event {
	e.MilestoneKey = &k
	return e
}

// WithProject 附带项目快照
func (e Event) WithProject(p model.Project) Event {
	c := p.Clone()
	e.Project = &c
	return e
}

// Publisher 接收已提交事件
type Publisher interface {
	Publish(events []Event)
}

// PublisherFunc 函数形式的 Publisher
type PublisherFunc func(events []Event)

// Publish 实现 Publisher
func (f PublisherFunc) Publish(events []Event) {
	f(events)
}

// AllTypes 全部事件类型
var AllTypes = []Type{
	TypeProjectCreated,
	TypeWhitelistAdded,
	TypeWhitelistRemoved,
	TypeFundingRoundCreated,
	TypeVotingRoundCreated,
	TypeNoConfidenceRoundCreated,
	TypeRoundCancelled,
	TypeContributeSucceeded,
	TypeProjectApproved,
	TypeVoteComplete,
	TypeMilestoneApproved,
	TypeMilestoneRejected,
	TypeProjectFundsWithdrawn,
	TypeNoConfidenceRoundVotedUpon,
	TypeNoConfidenceRoundFinalised,
	TypeProjectLockedFundsRefunded,
	TypeParamsUpdated,
}

func (e Event) roundKey() int64 {
	if e.RoundKey == nil {
		return 0
	}
	return int64(*e.RoundKey)
}
