package controller

import (
	"learning_portal/internal/model"
	"learning_portal/internal/service"
	"learning_portal/internal/util"

	"github.com/gin-gonic/gin"
)

// DoubtController 答疑会话，实时部分经由 RoomHub 推给前端
type DoubtController struct {
	DoubtService *service.DoubtService
	Hub          *service.RoomHub
}

func NewDoubtController(doubtService *service.DoubtService, hub *service.RoomHub) *DoubtController {
	return &DoubtController{DoubtService: doubtService, Hub: hub}
}

// DoubtMessageRequest 发送答疑消息
// swagger:model DoubtMessageRequest
type DoubtMessageRequest struct {
	Content string `json:"content" binding:"required" example:"第三步为什么要取对数？"`
}

// DoubtStatusRequest 修改答疑状态
// swagger:model DoubtStatusRequest
type DoubtStatusRequest struct {
	Status model.DoubtStatus `json:"status" binding:"required" example:"resolved"`
}

// HandleWS godoc
// @Summary 答疑 WebSocket
// @Description 连接后先推送房间快照，之后每次变化推送 ROOM_SNAPSHOT；客户端可发送 SEND_MESSAGE
// @Tags 答疑
// @Param   device query string true "设备标识"
// @Param   id path string true "答疑ID"
// @Success 101 {string} string "Switching Protocols"
// @Failure 404 {object} util.Response "房间未打开"
// @Router /api/doubts/{id}/ws [get]
func (c *DoubtController) HandleWS(ctx *gin.Context) {
	deviceID := util.DeviceID(ctx)
	doubtID := ctx.Param("id")
	snapshot, err := c.DoubtService.Room(deviceID, doubtID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	service.ServeWs(c.Hub, ctx.Writer, ctx.Request, service.RoomKey(deviceID, doubtID), snapshot)
}

// ListDoubts godoc
// @Summary 答疑列表
// @Tags 答疑
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   status query string false "状态(pending/in_progress/resolved)"
// @Success 200 {object} util.Response{data=[]model.Doubt} "成功"
// @Router /api/doubts [get]
func (c *DoubtController) ListDoubts(ctx *gin.Context) {
	doubts, err := c.DoubtService.List(ctx.Request.Context(), util.GetSession(ctx), ctx.Query("status"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, doubts)
}

// CreateDoubt godoc
// @Summary 提问
// @Tags 答疑
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   body body model.NewDoubt true "科目、标题与第一条消息"
// @Success 201 {object} util.Response{data=model.Doubt} "已创建"
// @Failure 400 {object} util.Response "校验失败"
// @Router /api/doubts [post]
func (c *DoubtController) CreateDoubt(ctx *gin.Context) {
	var in model.NewDoubt
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	doubt, err := c.DoubtService.Create(ctx.Request.Context(), util.GetSession(ctx), in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, doubt)
}

// OpenDoubt godoc
// @Summary 进入答疑会话
// @Description 加入实时房间并返回当前消息，重复打开返回已有房间
// @Tags 答疑
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "答疑ID"
// @Success 200 {object} util.Response{data=model.Doubt} "成功"
// @Router /api/doubts/{id}/open [post]
func (c *DoubtController) OpenDoubt(ctx *gin.Context) {
	doubt, err := c.DoubtService.Open(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, doubt)
}

// GetMessages godoc
// @Summary 会话消息
// @Tags 答疑
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "答疑ID"
// @Success 200 {object} util.Response{data=[]model.Message} "成功"
// @Router /api/doubts/{id}/messages [get]
func (c *DoubtController) GetMessages(ctx *gin.Context) {
	msgs, err := c.DoubtService.Messages(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, msgs)
}

// SendMessage godoc
// @Summary 发送消息
// @Description 消息先以待确认状态出现在会话中，失败时撤回
// @Tags 答疑
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "答疑ID"
// @Param   body body DoubtMessageRequest true "消息内容"
// @Success 201 {object} util.Response{data=model.Message} "已发送"
// @Failure 404 {object} util.Response "房间未打开"
// @Router /api/doubts/{id}/messages [post]
func (c *DoubtController) SendMessage(ctx *gin.Context) {
	var req DoubtMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	msg, err := c.DoubtService.Send(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"), req.Content)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, msg)
}

// CloseDoubt godoc
// @Summary 离开答疑会话
// @Tags 答疑
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "答疑ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/doubts/{id}/close [post]
func (c *DoubtController) CloseDoubt(ctx *gin.Context) {
	if err := c.DoubtService.Close(util.DeviceID(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UpdateStatus godoc
// @Summary 修改答疑状态
// @Description 学生只能标记为已解决
// @Tags 答疑
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "答疑ID"
// @Param   body body DoubtStatusRequest true "状态"
// @Success 200 {object} util.Response{data=model.Doubt} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/doubts/{id}/status [patch]
func (c *DoubtController) UpdateStatus(ctx *gin.Context) {
	var req DoubtStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	doubt, err := c.DoubtService.UpdateStatus(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"), req.Status)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, doubt)
}
