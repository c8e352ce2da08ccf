package handler

import (
	"github.com/hbulgarini/imbue/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorData 引擎错误附带的数据
type ErrorData struct {
	Code int    `json:"code"`
	Kind string `json:"kind"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 命令请求模型

// ContributeRequest 贡献请求，RoundKey 为空时使用项目当前的募资轮
type ContributeRequest struct {
	RoundKey *model.RoundKey `json:"round_key"`
	Amount   model.Balance   `json:"amount"`
}

// ApproveRequest 管理员批准请求
type ApproveRequest struct {
	RoundKey      *model.RoundKey      `json:"round_key"`
	MilestoneKeys []model.MilestoneKey `json:"milestone_keys"`
}

// MilestoneVoteRequest 里程碑投票请求
type MilestoneVoteRequest struct {
	RoundKey *model.RoundKey `json:"round_key"`
	Approve  bool            `json:"approve"`
}

// NoConfidenceVoteRequest 不信任投票请求
type NoConfidenceVoteRequest struct {
	RoundKey *model.RoundKey `json:"round_key"`
	IsYay    bool            `json:"is_yay"`
}

// RoundRefRequest 只指定轮次的请求
type RoundRefRequest struct {
	RoundKey *model.RoundKey `json:"round_key"`
}

// WhitelistRequest 白名单请求
type WhitelistRequest struct {
	Entries []model.WhitelistEntry `json:"entries"`
}

// ParamsRequest 参数修改请求，只修改出现的字段
type ParamsRequest struct {
	MaxProjectsPerRound       *uint32 `json:"max_projects_per_round"`
	IdentityRequired          *bool   `json:"identity_required"`
	AllowResubmitDuringVoting *bool   `json:"allow_resubmit_during_voting"`
}

// 查询响应模型

// ProjectResponse 项目详情
type ProjectResponse struct {
	model.Project
	Escrow model.AccountID     `json:"escrow"`
	Status model.ProjectStatus `json:"status"`
}

// KeyResponse 新建记录的编号
type KeyResponse struct {
	Key uint32 `json:"key"`
}

// OutcomeResponse 投票结算结果
type OutcomeResponse struct {
	Passed bool `json:"passed"`
}

// WithdrawResponse 提款结果
type WithdrawResponse struct {
	Gross model.Balance `json:"gross"`
	Fee   model.Balance `json:"fee"`
	Net   model.Balance `json:"net"`
}

// RefundResponse 退款结果
type RefundResponse struct {
	Refunded model.Balance `json:"refunded"`
}

// MilestoneVoteResponse 里程碑计票
type MilestoneVoteResponse struct {
	Exists bool       `json:"exists"`
	Vote   model.Vote `json:"vote"`
}

// NoConfidenceVoteResponse 不信任投票计票
type NoConfidenceVoteResponse struct {
	Exists bool                   `json:"exists"`
	Vote   model.NoConfidenceVote `json:"vote"`
}

// ListResponse 带分页的列表
type ListResponse struct {
	Records    interface{} `json:"records"`
	Pagination Pagination  `json:"pagination"`
}
