package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hbulgarini/imbue/internal/logic"
	"github.com/hbulgarini/imbue/internal/model"
)

// RecordHandler 读模型查询，只在启用数据库时注册
type RecordHandler struct {
	projectLogic    *logic.ProjectLogic
	milestoneLogic  *logic.MilestoneLogic
	contributeLogic *logic.ContributeRecordLogic
	refundLogic     *logic.RefundRecordLogic
	withdrawalLogic *logic.WithdrawalRecordLogic
	eventLogic      *logic.EventLogic
}

// NewRecordHandler 创建读模型查询处理器
func NewRecordHandler(db *gorm.DB) *RecordHandler {
	return &RecordHandler{
		projectLogic:    logic.NewProjectLogic(db),
		milestoneLogic:  logic.NewMilestoneLogic(db),
		contributeLogic: logic.NewContributeRecordLogic(db),
		refundLogic:     logic.NewRefundRecordLogic(db),
		withdrawalLogic: logic.NewWithdrawalRecordLogic(db),
		eventLogic:      logic.NewEventLogic(db),
	}
}

// GetProjects 按状态查询项目
func (h *RecordHandler) GetProjects(c *gin.Context) {
	page, pageSize := pageParams(c)
	status := model.ProjectStatus(c.Query("status"))

	projects, total, err := h.projectLogic.GetProjects(status, page, pageSize)
	if err != nil {
		readModelError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取项目列表成功", ListResponse{
		Records:    projects,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetProject 获取项目读模型
func (h *RecordHandler) GetProject(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}

	project, err := h.projectLogic.GetProject(int64(key))
	if err != nil {
		readModelError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取项目详情成功", project)
}

// GetProjectStats 获取项目统计
func (h *RecordHandler) GetProjectStats(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}

	stats, err := h.projectLogic.GetProjectStats(int64(key))
	if err != nil {
		readModelError(c, err)
		return
	}
	contributeStats, err := h.contributeLogic.GetContributeStats(int64(key))
	if err != nil {
		readModelError(c, err)
		return
	}
	stats["average_contribution"] = contributeStats["average_amount"]

	SuccessResponse(c, http.StatusOK, "获取项目统计成功", stats)
}

// GetMilestones 获取项目里程碑状态
func (h *RecordHandler) GetMilestones(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}

	milestones, err := h.milestoneLogic.GetProjectMilestones(int64(key))
	if err != nil {
		readModelError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取里程碑成功", milestones)
}

// GetContributions 获取项目贡献记录
func (h *RecordHandler) GetContributions(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	records, total, err := h.contributeLogic.GetProjectContributeRecords(int64(key), page, pageSize)
	if err != nil {
		readModelError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取项目贡献记录成功", ListResponse{
		Records:    records,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetAccountContributions 获取账户的贡献记录
func (h *RecordHandler) GetAccountContributions(c *gin.Context) {
	account, err := model.ParseAccount(c.Param("address"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的账户地址")
		return
	}
	page, pageSize := pageParams(c)

	records, total, err := h.contributeLogic.GetAccountContributeRecords(account.Hex(), page, pageSize)
	if err != nil {
		readModelError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取账户贡献记录成功", ListResponse{
		Records:    records,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetRefunds 获取项目退款记录
func (h *RecordHandler) GetRefunds(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	records, total, err := h.refundLogic.GetProjectRefundRecords(int64(key), page, pageSize)
	if err != nil {
		readModelError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取项目退款记录成功", ListResponse{
		Records:    records,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetWithdrawals 获取项目提款记录
func (h *RecordHandler) GetWithdrawals(c *gin.Context) {
	key, ok := parseProjectKey(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	records, total, err := h.withdrawalLogic.GetProjectWithdrawalRecords(int64(key), page, pageSize)
	if err != nil {
		readModelError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取项目提款记录成功", ListResponse{
		Records:    records,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetEvents 查询事件记录
func (h *RecordHandler) GetEvents(c *gin.Context) {
	filter := logic.EventFilter{
		EventType: c.Query("type"),
		Account:   c.Query("account"),
	}
	if s := c.Query("project_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
			return
		}
		filter.ProjectId = &id
	}
	page, pageSize := pageParams(c)

	events, total, err := h.eventLogic.GetEvents(filter, page, pageSize)
	if err != nil {
		readModelError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取事件列表成功", ListResponse{
		Records:    events,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetEvent 按编号获取事件
func (h *RecordHandler) GetEvent(c *gin.Context) {
	event, err := h.eventLogic.GetEvent(c.Param("eventId"))
	if err != nil {
		readModelError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取事件成功", event)
}

// GetStats 平台统计
func (h *RecordHandler) GetStats(c *gin.Context) {
	stats, err := h.projectLogic.GetAllProjectStats()
	if err != nil {
		readModelError(c, err)
		return
	}
	events, err := h.eventLogic.GetEventStatistics(nil)
	if err != nil {
		readModelError(c, err)
		return
	}
	stats["events"] = events

	SuccessResponse(c, http.StatusOK, "获取统计信息成功", stats)
}
