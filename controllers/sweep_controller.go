package controllers

import (
	"net/http"
	"time"

	"RemindlyGo/config"
	"RemindlyGo/models"
	"RemindlyGo/services"

	"github.com/gin-gonic/gin"
)

// SweepController 定时扫描触发控制器，由外部调度器按固定周期调用
type SweepController struct {
	sweeper *services.Sweeper
}

func NewSweepController(sweeper *services.Sweeper) *SweepController {
	return &SweepController{sweeper: sweeper}
}

// TriggerSweep 执行一次扫描并返回处理统计
func (sc *SweepController) TriggerSweep(c *gin.Context) {
	result, err := sc.sweeper.Run(c.Request.Context(), time.Now().UTC())
	if err != nil {
		config.Logger.Errorw("扫描执行失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "扫描执行失败"})
		return
	}

	c.JSON(http.StatusOK, models.SweepResponse{
		InstancesProcessed: result.InstancesProcessed,
		OverdueAlerts:      result.OverdueAlerts,
	})
}
