package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hbulgarini/imbue/internal/engine"
	"github.com/hbulgarini/imbue/internal/model"
)

// RoundHandler 轮次与参数管理
type RoundHandler struct {
	engine *engine.Engine
}

// NewRoundHandler 创建轮次处理器
func NewRoundHandler(e *engine.Engine) *RoundHandler {
	return &RoundHandler{engine: e}
}

// ScheduleRound 管理员排期轮次
func (h *RoundHandler) ScheduleRound(c *gin.Context) {
	var req engine.ScheduleRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	key, err := h.engine.ScheduleRound(callerOf(c), req)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "轮次已创建", KeyResponse{Key: uint32(key)})
}

// CancelRound 管理员取消未开始的轮次
func (h *RoundHandler) CancelRound(c *gin.Context) {
	key, ok := parseRoundKey(c)
	if !ok {
		return
	}

	if err := h.engine.CancelRound(callerOf(c), key); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "轮次已取消", nil)
}

// GetRounds 获取全部轮次
func (h *RoundHandler) GetRounds(c *gin.Context) {
	rounds, err := h.engine.Rounds()
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取轮次列表成功", rounds)
}

// GetRound 获取轮次详情
func (h *RoundHandler) GetRound(c *gin.Context) {
	key, ok := parseRoundKey(c)
	if !ok {
		return
	}

	round, err := h.engine.Round(key)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取轮次详情成功", round)
}

// LatestRound 项目在指定高度的活动轮次，默认当前高度的募资轮
func (h *RoundHandler) LatestRound(c *gin.Context) {
	project, ok := parseProjectKey(c)
	if !ok {
		return
	}

	roundType, err := model.ParseRoundType(c.DefaultQuery("type", "contribution"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	height := h.engine.CurrentHeight()
	if s := c.Query("height"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "无效的区块高度")
			return
		}
		height = model.BlockNumber(v)
	}

	round, err := h.engine.LatestRoundFor(project, height, roundType)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取活动轮次成功", round)
}

// GetParams 获取运行参数
func (h *RoundHandler) GetParams(c *gin.Context) {
	params, err := h.engine.Params()
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	projects, err := h.engine.ProjectCount()
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	rounds, err := h.engine.RoundCount()
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取参数成功", gin.H{
		"params":        params,
		"height":        h.engine.CurrentHeight(),
		"fee_percent":   h.engine.Config().FeePercent,
		"project_count": projects,
		"round_count":   rounds,
	})
}

// UpdateParams 管理员修改运行参数，按字段依次生效
func (h *RoundHandler) UpdateParams(c *gin.Context) {
	var req ParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	admin := callerOf(c)
	if req.MaxProjectsPerRound != nil {
		if err := h.engine.SetMaxProjectsPerRound(admin, *req.MaxProjectsPerRound); err != nil {
			EngineErrorResponse(c, err)
			return
		}
	}
	if req.IdentityRequired != nil {
		if err := h.engine.SetIdentityRequired(admin, *req.IdentityRequired); err != nil {
			EngineErrorResponse(c, err)
			return
		}
	}
	if req.AllowResubmitDuringVoting != nil {
		if err := h.engine.SetAllowResubmitDuringVoting(admin, *req.AllowResubmitDuringVoting); err != nil {
			EngineErrorResponse(c, err)
			return
		}
	}

	params, err := h.engine.Params()
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "参数已更新", params)
}
