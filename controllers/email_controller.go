package controllers

import (
	"errors"
	"net/http"
	"time"

	"RemindlyGo/config"
	"RemindlyGo/models"
	"RemindlyGo/services"

	"github.com/gin-gonic/gin"
)

// EmailController 邮件回复Webhook控制器，由邮件服务商回调
type EmailController struct {
	store      services.TaskStore
	dispatcher *services.ActionDispatcher
}

func NewEmailController(store services.TaskStore, dispatcher *services.ActionDispatcher) *EmailController {
	return &EmailController{store: store, dispatcher: dispatcher}
}

// HandleInbound 处理一封入站回复：解析出结构化指令后交给分发器执行
func (ec *EmailController) HandleInbound(c *gin.Context) {
	var req models.InboundEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求"})
		return
	}

	// 任务标识嵌在用户回复的目标地址里，服务商没给时退回发件地址
	address := req.ReplyTo
	if address == "" {
		address = req.From
	}

	cmd := services.ParseEmailCommand(address, req.Subject, req.Content, time.Now().UTC())

	if cmd.TaskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing-task-reference"})
		return
	}

	ctx := c.Request.Context()
	task, err := ec.store.GetTask(ctx, cmd.TaskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task-not-found"})
			return
		}
		config.Logger.Errorw("查询任务失败", "error", err, "taskID", cmd.TaskID, "messageID", req.MessageID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing-failure"})
		return
	}

	result, err := ec.dispatcher.Dispatch(ctx, cmd, task, req.From)
	if err != nil {
		config.Logger.Errorw("邮件指令执行失败",
			"error", err,
			"taskID", cmd.TaskID,
			"action", cmd.Action,
			"messageID", req.MessageID,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing-failure"})
		return
	}

	c.JSON(http.StatusOK, models.InboundEmailResponse{
		Success: result.Success,
		Action:  result.Action,
		TaskID:  result.TaskID,
		Result:  result.Result,
	})
}
