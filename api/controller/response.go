package controller

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse 统一错误响应，code 为机器可读的错误码
func ErrorResponse(ctx *gin.Context, status int, code, message string) {
	ctx.AbortWithStatusJSON(status, gin.H{
		"status":  "failed",
		"code":    code,
		"message": message,
	})
}

// SuccessResponse 统一成功响应，数据放在 key 字段下
func SuccessResponse(ctx *gin.Context, key string, data interface{}, count int) {
	ctx.JSON(200, gin.H{
		"status": "ok",
		key:      data,
		"count":  count,
	})
}
