package middleware

import (
	"net/http"

	"RemindlyGo/config"

	"github.com/gin-gonic/gin"
)

// InternalAuthMiddleware 内部接口认证中间件，用于邮件Webhook与定时扫描触发
func InternalAuthMiddleware() gin.HandlerFunc {
	conf, err := config.LoadConfig(".")
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	return func(c *gin.Context) {
		// 获取请求头中的认证信息
		authToken := c.GetHeader("X-Internal-Auth")

		// 验证认证信息
		if authToken != conf.InternalAuthToken {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Forbidden",
			})
			return
		}

		c.Next()
	}
}
