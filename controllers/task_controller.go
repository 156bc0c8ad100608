package controllers

import (
	"net/http"
	"time"

	"RemindlyGo/config"
	"RemindlyGo/models"
	"RemindlyGo/services"
	"RemindlyGo/utils"

	"github.com/gin-gonic/gin"
)

type TaskController struct {
	store     services.TaskStore
	instances services.InstanceStore
	scheduler *services.ReminderScheduler
	guard     *services.RescheduleGuard
	notifier  *services.CompletionNotifier
}

func NewTaskController(store services.TaskStore, instances services.InstanceStore, scheduler *services.ReminderScheduler, guard *services.RescheduleGuard, notifier *services.CompletionNotifier) *TaskController {
	return &TaskController{store: store, instances: instances, scheduler: scheduler, guard: guard, notifier: notifier}
}

// ListTasks 获取当前用户的任务列表
func (tc *TaskController) ListTasks(c *gin.Context) {
	uid := c.GetString("uid")

	var tasks []models.Task
	if err := config.DB.Where("user_id = ?", uid).Order("last_modified desc").Find(&tasks).Error; err != nil {
		config.Logger.Errorw("查询任务列表失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询任务列表失败"})
		return
	}

	responses := make([]models.TaskResponse, len(tasks))
	for i := range tasks {
		responses[i] = models.NewTaskResponse(&tasks[i])
	}

	c.JSON(http.StatusOK, gin.H{"tasks": responses})
}

// CreateTask 创建任务，带截止时间时同步生成提醒实例
func (tc *TaskController) CreateTask(c *gin.Context) {
	uid := c.GetString("uid")

	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求"})
		return
	}
	req.ConvertToUTC()

	now := time.Now().UTC()
	task := models.Task{
		ID:           utils.GenerateID(),
		Title:        req.Title,
		Notes:        req.Notes,
		DueDate:      req.DueDate,
		UserID:       uid,
		LastModified: now,
	}

	if err := config.DB.Create(&task).Error; err != nil {
		config.Logger.Errorw("创建任务失败", "error", err, "uid", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建任务失败"})
		return
	}

	if _, err := tc.scheduler.Schedule(c.Request.Context(), &task, now); err != nil {
		// 提醒生成失败不影响任务创建
		config.Logger.Errorw("生成提醒实例失败", "error", err, "taskID", task.ID)
	}

	c.JSON(http.StatusOK, models.NewTaskResponse(&task))
}

// UpdateDueDate 修改任务截止时间，经改期守卫处理提醒实例
func (tc *TaskController) UpdateDueDate(c *gin.Context) {
	uid := c.GetString("uid")
	taskID := c.Param("id")

	var task models.Task
	if err := config.DB.Where("id = ? AND user_id = ?", taskID, uid).First(&task).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}

	var req models.UpdateDueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求"})
		return
	}
	req.ConvertToUTC()

	now := time.Now().UTC()
	oldDue := task.DueDate

	if err := tc.guard.HandleDueDateChange(c.Request.Context(), &task, oldDue, req.DueDate, now); err != nil {
		config.Logger.Errorw("处理截止时间变更失败", "error", err, "taskID", task.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "处理截止时间变更失败"})
		return
	}

	if err := config.DB.Model(&task).Updates(map[string]interface{}{
		"due_date":      req.DueDate,
		"last_modified": now,
	}).Error; err != nil {
		config.Logger.Errorw("更新截止时间失败", "error", err, "taskID", task.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新截止时间失败"})
		return
	}
	task.LastModified = now

	tc.appendLog(c, task.ID, models.ActionRescheduled, uid, now)

	c.JSON(http.StatusOK, models.NewTaskResponse(&task))
}

// ToggleCompletion 切换任务完成状态，完成时取消剩余提醒实例并触发通知
func (tc *TaskController) ToggleCompletion(c *gin.Context) {
	uid := c.GetString("uid")
	taskID := c.Param("id")

	var task models.Task
	if err := config.DB.Where("id = ? AND user_id = ?", taskID, uid).First(&task).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}

	var req models.ToggleCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求"})
		return
	}

	if task.IsCompleted == req.IsCompleted {
		c.JSON(http.StatusOK, models.NewTaskResponse(&task))
		return
	}

	now := time.Now().UTC()
	fields := map[string]interface{}{
		"is_completed":  req.IsCompleted,
		"last_modified": now,
	}
	if req.IsCompleted {
		fields["completed_at"] = now
	} else {
		fields["completed_at"] = nil
	}

	if err := config.DB.Model(&task).Updates(fields).Error; err != nil {
		config.Logger.Errorw("更新完成状态失败", "error", err, "taskID", task.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新完成状态失败"})
		return
	}
	task.IsCompleted = req.IsCompleted
	task.LastModified = now
	if req.IsCompleted {
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}

	ctx := c.Request.Context()
	if req.IsCompleted {
		// 完成的任务不再需要剩余提醒
		if _, err := tc.instances.CancelPendingByTask(ctx, task.ID); err != nil {
			config.Logger.Errorw("取消提醒实例失败", "error", err, "taskID", task.ID)
		}
		tc.appendLog(c, task.ID, models.ActionCompleted, uid, now)
	} else if task.DueDate != nil && task.DueDate.After(now) {
		// 重新打开且截止时间还没到，重建提醒
		if _, err := tc.scheduler.Schedule(ctx, &task, now); err != nil {
			config.Logger.Errorw("重建提醒实例失败", "error", err, "taskID", task.ID)
		}
	}

	actor := ""
	if user, err := tc.store.GetUser(ctx, uid); err == nil {
		actor = user.GetDisplayName()
	}
	if err := tc.notifier.NotifyToggle(ctx, &task, actor); err != nil {
		// 通知失败不影响状态切换
		config.Logger.Errorw("完成通知发送失败", "error", err, "taskID", task.ID)
	}

	c.JSON(http.StatusOK, models.NewTaskResponse(&task))
}

// GetTaskActions 获取任务的动作日志
func (tc *TaskController) GetTaskActions(c *gin.Context) {
	uid := c.GetString("uid")
	taskID := c.Param("id")

	var task models.Task
	if err := config.DB.Where("id = ? AND user_id = ?", taskID, uid).First(&task).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}

	var logs []models.TaskActionLog
	if err := config.DB.Where("task_id = ?", taskID).Order("created_at desc").Find(&logs).Error; err != nil {
		config.Logger.Errorw("查询动作日志失败", "error", err, "taskID", taskID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询动作日志失败"})
		return
	}

	responses := make([]models.ActionLogResponse, len(logs))
	for i, entry := range logs {
		responses[i] = models.ActionLogResponse{
			Action:    entry.Action,
			Actor:     entry.Actor,
			Source:    entry.Source,
			Detail:    entry.Detail,
			CreatedAt: entry.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"actions": responses})
}

func (tc *TaskController) appendLog(c *gin.Context, taskID, action, actor string, now time.Time) {
	entry := models.TaskActionLog{
		ID:        utils.GenerateID(),
		TaskID:    taskID,
		Action:    action,
		Actor:     actor,
		Source:    models.ActionSourceAPI,
		CreatedAt: now,
	}
	if err := config.DB.Create(&entry).Error; err != nil {
		config.Logger.Errorw("追加动作日志失败", "error", err, "taskID", taskID, "action", action)
	}
}
