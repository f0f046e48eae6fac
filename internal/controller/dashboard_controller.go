package controller

import (
	"learning_portal/internal/service"
	"learning_portal/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
}

func NewDashboardController(dashboardService *service.DashboardService) *DashboardController {
	return &DashboardController{DashboardService: dashboardService}
}

// @Summary 获取首页数据
// @Description 并发加载我的课程、考试、待交作业、未读通知和未解决答疑；失败的区块写入 errors，不影响其他区块
// @Tags 首页
// @Accept json
// @Produce json
// @Param   X-Device-ID header string true "设备标识"
// @Success 200 {object} util.Response{data=service.Dashboard}
// @Router /api/dashboard [get]
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	util.Success(ctx, c.DashboardService.GetDashboard(ctx.Request.Context(), util.GetSession(ctx)))
}
