package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/hbulgarini/imbue/internal/engine"
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/logic"
	"github.com/hbulgarini/imbue/internal/model"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// EngineErrorResponse 按错误类别映射状态码，附带错误码
func EngineErrorResponse(c *gin.Context, err error) {
	var e *engine.Error
	if !errors.As(err, &e) {
		logger.Error("Unexpected error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(StatusOf(e), Response{
		Success: false,
		Message: e.Error(),
		Data: ErrorData{
			Code: int(e.Code),
			Kind: e.Kind().String(),
		},
	})
}

// StatusOf 错误类别对应的 HTTP 状态码
func StatusOf(e *engine.Error) int {
	if e.Code.NotFound() {
		return http.StatusNotFound
	}
	switch e.Kind() {
	case engine.KindValidation:
		return http.StatusBadRequest
	case engine.KindAuthorization:
		return http.StatusForbidden
	case engine.KindLifecycle:
		return http.StatusConflict
	case engine.KindResource:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// readModelError 读模型查询错误
func readModelError(c *gin.Context, err error) {
	if errors.Is(err, logic.ErrNotFound) {
		ErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}
	logger.Error("Read model query failed: %v", err)
	ErrorResponse(c, http.StatusInternalServerError, err.Error())
}

func parseProjectKey(c *gin.Context) (model.ProjectKey, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return 0, false
	}
	return model.ProjectKey(id), true
}

func parseMilestoneKey(c *gin.Context) (model.MilestoneKey, bool) {
	id, err := strconv.ParseUint(c.Param("milestone"), 10, 32)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑编号")
		return 0, false
	}
	return model.MilestoneKey(id), true
}

func parseRoundKey(c *gin.Context) (model.RoundKey, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的轮次编号")
		return 0, false
	}
	return model.RoundKey(id), true
}

// maxPageSize 单页记录上限
const maxPageSize = 100

func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func newPagination(page, pageSize int, total int64) Pagination {
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}
