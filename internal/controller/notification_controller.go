package controller

import (
	"learning_portal/internal/model"
	"learning_portal/internal/service"
	"learning_portal/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	NotificationService *service.NotificationService
}

func NewNotificationController(notificationService *service.NotificationService) *NotificationController {
	return &NotificationController{NotificationService: notificationService}
}

// ListNotifications godoc
// @Summary 通知列表
// @Tags 通知
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Success 200 {object} util.Response{data=model.NotificationView} "成功"
// @Router /api/notifications [get]
func (c *NotificationController) ListNotifications(ctx *gin.Context) {
	view, err := c.NotificationService.List(ctx.Request.Context(), util.GetSession(ctx))
	c.respond(ctx, view, err)
}

// MarkRead godoc
// @Summary 标记已读
// @Description 本地先更新，上游失败时回滚
// @Tags 通知
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "通知ID"
// @Success 200 {object} util.Response{data=model.NotificationView} "成功"
// @Router /api/notifications/{id}/read [patch]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	view, err := c.NotificationService.MarkRead(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	c.respond(ctx, view, err)
}

// MarkAllRead godoc
// @Summary 全部已读
// @Tags 通知
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Success 200 {object} util.Response{data=model.NotificationView} "成功"
// @Router /api/notifications/read-all [post]
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	view, err := c.NotificationService.MarkAllRead(ctx.Request.Context(), util.GetSession(ctx))
	c.respond(ctx, view, err)
}

// DeleteNotification godoc
// @Summary 删除通知
// @Tags 通知
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "通知ID"
// @Success 200 {object} util.Response{data=model.NotificationView} "成功"
// @Router /api/notifications/{id} [delete]
func (c *NotificationController) DeleteNotification(ctx *gin.Context) {
	view, err := c.NotificationService.Delete(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	c.respond(ctx, view, err)
}

// GetSettings godoc
// @Summary 通知设置
// @Tags 通知
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Success 200 {object} util.Response{data=model.NotificationSettings} "成功"
// @Router /api/notifications/settings [get]
func (c *NotificationController) GetSettings(ctx *gin.Context) {
	settings, err := c.NotificationService.Settings(ctx.Request.Context(), util.GetSession(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, settings)
}

// UpdateSettings godoc
// @Summary 修改通知设置
// @Description 只修改请求中出现的开关，上游失败时回滚
// @Tags 通知
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   body body model.SettingsPatch true "开关"
// @Success 200 {object} util.Response{data=model.NotificationSettings} "成功"
// @Router /api/notifications/settings [patch]
func (c *NotificationController) UpdateSettings(ctx *gin.Context) {
	var patch model.SettingsPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	settings, err := c.NotificationService.UpdateSettings(ctx.Request.Context(), util.GetSession(ctx), patch)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, settings)
}

func (c *NotificationController) respond(ctx *gin.Context, view *model.NotificationView, err error) {
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
