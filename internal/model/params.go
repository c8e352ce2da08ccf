package model

// Params 可由管理员调整的运行参数
type Params struct {
	MaxProjectsPerRound       uint32 `json:"max_projects_per_round"`
	IdentityRequired          bool   `json:"identity_required"`
	AllowResubmitDuringVoting bool   `json:"allow_resubmit_during_voting"`
}
