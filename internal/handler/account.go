package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hbulgarini/imbue/internal/model"
)

const (
	// AccountHeader 调用方账户，认证由宿主网关完成
	AccountHeader = "X-Account"

	accountKey = "account"
)

// RequireAccount 解析调用方账户，缺失或格式错误时返回 401
func RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := model.ParseAccount(c.GetHeader(AccountHeader))
		if err != nil {
			ErrorResponse(c, http.StatusUnauthorized, "缺少或无效的 "+AccountHeader)
			c.Abort()
			return
		}
		c.Set(accountKey, account)
		c.Next()
	}
}

// callerOf 取 RequireAccount 写入的账户
func callerOf(c *gin.Context) model.AccountID {
	v, _ := c.Get(accountKey)
	account, _ := v.(model.AccountID)
	return account
}
