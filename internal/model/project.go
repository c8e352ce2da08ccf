package model

import (
	"bytes"
	"sort"
)

// Project 众筹项目
type Project struct {
	Key         ProjectKey `json:"key"`
	Name        string     `json:"name"`
	Logo        string     `json:"logo"`
	Description string     `json:"description"`
	Website     string     `json:"website"`

	Milestones    []Milestone    `json:"milestones"`
	Contributions []Contribution `json:"contributions"`

	// 资金信息
	Currency       CurrencyID `json:"currency"`
	RequiredFunds  Balance    `json:"required_funds"`
	RaisedFunds    Balance    `json:"raised_funds"`
	WithdrawnFunds Balance    `json:"withdrawn_funds"`
	RefundedFunds  Balance    `json:"refunded_funds"`

	Initiator AccountID   `json:"initiator"`
	CreatedAt BlockNumber `json:"created_at"`

	// 状态
	ApprovedForFunding  bool `json:"approved_for_funding"`
	FundingThresholdMet bool `json:"funding_threshold_met"`
	Cancelled           bool `json:"cancelled"`
}

// Contribution 单个贡献者对项目的累计贡献
type Contribution struct {
	Account                   AccountID   `json:"account"`
	Value                     Balance     `json:"value"`
	LastContributionTimestamp BlockNumber `json:"last_contribution_timestamp"`
}

// Clone 深拷贝项目
func (p Project) Clone() Project {
	c := p
	c.Milestones = append([]Milestone(nil), p.Milestones...)
	c.Contributions = append([]Contribution(nil), p.Contributions...)
	return c
}

// Milestone 按编号查找里程碑
func (p Project) Milestone(key MilestoneKey) (Milestone, bool) {
	for _, m := range p.Milestones {
		if m.Key == key {
			return m, true
		}
	}
	return Milestone{}, false
}

// SetMilestone 替换同编号的里程碑
func (p *Project) SetMilestone(m Milestone) bool {
	for i := range p.Milestones {
		if p.Milestones[i].Key == m.Key {
			p.Milestones[i] = m
			return true
		}
	}
	return false
}

// ContributionOf 查找账户的贡献记录
func (p Project) ContributionOf(account AccountID) (Contribution, bool) {
	i := p.contributionIndex(account)
	if i < len(p.Contributions) && p.Contributions[i].Account == account {
		return p.Contributions[i], true
	}
	return Contribution{}, false
}

// SetContribution 写入贡献记录，保持按账户排序
func (p *Project) SetContribution(c Contribution) {
	i := p.contributionIndex(c.Account)
	if i < len(p.Contributions) && p.Contributions[i].Account == c.Account {
		p.Contributions[i] = c
		return
	}
	p.Contributions = append(p.Contributions, Contribution{})
	copy(p.Contributions[i+1:], p.Contributions[i:])
	p.Contributions[i] = c
}

func (p Project) contributionIndex(account AccountID) int {
	return sort.Search(len(p.Contributions), func(i int) bool {
		return bytes.Compare(p.Contributions[i].Account[:], account[:]) >= 0
	})
}

// ApprovedPercentage 已批准里程碑的解锁比例之和
func (p Project) ApprovedPercentage() uint64 {
	var total uint64
	for _, m := range p.Milestones {
		if m.IsApproved {
			total += uint64(m.PercentageToUnlock)
		}
	}
	return total
}

// TotalContributions 所有贡献之和
func (p Project) TotalContributions() (Balance, bool) {
	var total Balance
	for _, c := range p.Contributions {
		var ok bool
		total, ok = total.Add(c.Value)
		if !ok {
			return 0, false
		}
	}
	return total, true
}
