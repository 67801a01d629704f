package handler

import (
	"wallet-signer/internal/handler/response"

	"github.com/gin-gonic/gin"
)

// HealthCheck 返回服务状态
func HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "UP",
		"version": "1.0.0",
		"service": "signer-server",
	})
}
