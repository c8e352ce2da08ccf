package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hbulgarini/imbue/internal/engine"
	"github.com/hbulgarini/imbue/internal/model"
)

// ProjectHandler 项目相关命令与查询
type ProjectHandler struct {
	engine *engine.Engine
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(e *engine.Engine) *ProjectHandler {
	return &ProjectHandler{engine: e}
}

func (h *ProjectHandler) response(p model.Project) ProjectResponse {
	return ProjectResponse{
		Project: p,
		Escrow:  h.engine.EscrowAccount(p.Key),
		Status:  model.ProjectStatusOf(p),
	}
}

// bindOptional 请求体为空时保留零值
func bindOptional(c *gin.Context, obj interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req engine.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	key, err := h.engine.CreateProject(callerOf(c), req)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "项目创建成功", KeyResponse{Key: uint32(key)})
}

// GetProjects 获取全部项目
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	projects, err := h.engine.Projects()
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	list := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		list = append(list, h.response(p))
	}
	SuccessResponse(c, http.StatusOK, "获取项目列表成功", list)
}

// GetProject 获取单个项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}

	project, err := h.engine.Project(key)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取项目详情成功", h.response(project))
}

// GetWhitelist 获取项目白名单
func (h *ProjectHandler) GetWhitelist(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}

	w, exists, err := h.engine.Whitelist(key)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	if !exists {
		EngineErrorResponse(c, engine.ErrNoWhitelist)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取白名单成功", w)
}

// AddWhitelist 添加白名单条目
func (h *ProjectHandler) AddWhitelist(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}
	var req WhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.AddProjectWhitelist(callerOf(c), key, req.Entries); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "白名单已更新", nil)
}

// RemoveWhitelist 删除项目白名单
func (h *ProjectHandler) RemoveWhitelist(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}

	if err := h.engine.RemoveProjectWhitelist(callerOf(c), key); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "白名单已删除", nil)
}

// Contribute 向项目贡献资金
func (h *ProjectHandler) Contribute(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}
	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.Contribute(callerOf(c), req.RoundKey, key, req.Amount); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "贡献成功", nil)
}

// Approve 管理员批准项目
func (h *ProjectHandler) Approve(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}
	var req ApproveRequest
	if !bindOptional(c, &req) {
		return
	}

	if err := h.engine.Approve(callerOf(c), req.RoundKey, key, req.MilestoneKeys); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "项目已批准", nil)
}

// Withdraw 发起人提取已解锁资金
func (h *ProjectHandler) Withdraw(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}

	res, err := h.engine.Withdraw(callerOf(c), key)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "提款成功", WithdrawResponse{
		Gross: res.Gross,
		Fee:   res.Fee,
		Net:   res.Net,
	})
}

// Refund 管理员退还锁定资金
func (h *ProjectHandler) Refund(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}

	total, err := h.engine.Refund(callerOf(c), key)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "退款成功", RefundResponse{Refunded: total})
}
