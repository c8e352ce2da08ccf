package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hbulgarini/imbue/internal/engine"
)

// VoteHandler 里程碑与不信任投票
type VoteHandler struct {
	engine *engine.Engine
}

// NewVoteHandler 创建投票处理器
func NewVoteHandler(e *engine.Engine) *VoteHandler {
	return &VoteHandler{engine: e}
}

// SubmitMilestone 发起人提交里程碑投票
func (h *VoteHandler) SubmitMilestone(c *gin.Context) {
	project, ok := parseProjectKey(c)
	if !ok {
		return
	}
	milestone, ok := parseMilestoneKey(c)
	if !ok {
		return
	}

	round, err := h.engine.SubmitMilestone(callerOf(c), project, milestone)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "里程碑已提交投票", KeyResponse{Key: uint32(round)})
}

// VoteOnMilestone 贡献者对里程碑投票
func (h *VoteHandler) VoteOnMilestone(c *gin.Context) {
	project, ok := parseProjectKey(c)
	if !ok {
		return
	}
	milestone, ok := parseMilestoneKey(c)
	if !ok {
		return
	}
	var req MilestoneVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.VoteOnMilestone(callerOf(c), project, milestone, req.RoundKey, req.Approve); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "投票成功", nil)
}

// FinaliseMilestone 结算里程碑投票
func (h *VoteHandler) FinaliseMilestone(c *gin.Context) {
	project, ok := parseProjectKey(c)
	if !ok {
		return
	}
	milestone, ok := parseMilestoneKey(c)
	if !ok {
		return
	}

	passed, err := h.engine.FinaliseMilestoneVoting(callerOf(c), project, milestone)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "里程碑投票已结算", OutcomeResponse{Passed: passed})
}

// GetMilestoneVote 获取里程碑计票
func (h *VoteHandler) GetMilestoneVote(c *gin.Context) {
	project, ok := parseProjectKey(c)
	if !ok {
		return
	}
	milestone, ok := parseMilestoneKey(c)
	if !ok {
		return
	}

	vote, exists, err := h.engine.MilestoneVote(project, milestone)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取计票成功", MilestoneVoteResponse{Exists: exists, Vote: vote})
}

// RaiseNoConfidence 贡献者发起不信任投票
func (h *VoteHandler) RaiseNoConfidence(c *gin.Context) {
	project, ok := parseProjectKey(c)
	if !ok {
		return
	}

	round, err := h.engine.RaiseVoteOfNoConfidence(callerOf(c), project)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "不信任投票已发起", KeyResponse{Key: uint32(round)})
}

// VoteOnNoConfidence 贡献者参与不信任投票
func (h *VoteHandler) VoteOnNoConfidence(c *gin.Context) {
	project, ok := parseProjectKey(c)
	if !ok {
		return
	}
	var req NoConfidenceVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.VoteOnNoConfidenceRound(callerOf(c), req.RoundKey, project, req.IsYay); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "投票成功", nil)
}

// FinaliseNoConfidence 结算不信任投票
func (h *VoteHandler) FinaliseNoConfidence(c *gin.Context) {
	project, ok := parseProjectKey(c)
	if !ok {
		return
	}
	var req RoundRefRequest
	if !bindOptional(c, &req) {
		return
	}

	passed, err := h.engine.FinaliseNoConfidenceRound(callerOf(c), req.RoundKey, project)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "不信任投票已结算", OutcomeResponse{Passed: passed})
}

// GetNoConfidenceVote 获取不信任投票计票
func (h *VoteHandler) GetNoConfidenceVote(c *gin.Context) {
	project, ok := parseProjectKey(c)
	if !ok {
		return
	}

	vote, exists, err := h.engine.NoConfidenceVote(project)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取计票成功", NoConfidenceVoteResponse{Exists: exists, Vote: vote})
}
