package model

// Milestone 项目里程碑，解锁比例在创建时确定
type Milestone struct {
	Key                MilestoneKey `json:"key"`
	Name               string       `json:"name"`
	PercentageToUnlock uint32       `json:"percentage_to_unlock"`
	IsApproved         bool         `json:"is_approved"`
}

// ProposedMilestone 创建项目时提交的里程碑
type ProposedMilestone struct {
	Name               string `json:"name"`
	PercentageToUnlock uint32 `json:"percentage_to_unlock"`
}
