package controllers

import (
	"net/http"
	"time"

	"RemindlyGo/config"
	"RemindlyGo/models"
	"RemindlyGo/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct{}

// IssueToken 内部接口：为指定用户签发JWT。用户不存在时顺带创建，
// 供运维排障与测试环境使用，线上登录由外部身份系统负责。
func (ac *AuthController) IssueToken(c *gin.Context) {
	var req models.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求"})
		return
	}

	var user models.User
	if err := config.DB.Where("id = ?", req.UserID).First(&user).Error; err != nil {
		user = models.User{
			ID:        req.UserID,
			Username:  req.Username,
			Email:     req.Email,
			CreatedAt: time.Now().UTC(),
		}
		if err := config.DB.Create(&user).Error; err != nil {
			config.Logger.Errorw("创建用户失败", "error", err, "userID", req.UserID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "创建用户失败"})
			return
		}
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		config.Logger.Errorw("签发令牌失败", "error", err, "userID", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "签发令牌失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}
