package controller

import (
	"learning_portal/internal/model"
	"learning_portal/internal/service"
	"learning_portal/internal/util"

	"github.com/gin-gonic/gin"
)

type PlaybackController struct {
	PlaybackService *service.PlaybackService
}

func NewPlaybackController(playbackService *service.PlaybackService) *PlaybackController {
	return &PlaybackController{PlaybackService: playbackService}
}

// StartPlayback godoc
// @Summary 开始播放课时
// @Description 创建进度跟踪会话，返回续播位置
// @Tags 播放
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   body body model.PlaybackStart true "课时与视频地址"
// @Success 201 {object} util.Response{data=model.PlaybackSession} "会话已创建"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/playback [post]
func (c *PlaybackController) StartPlayback(ctx *gin.Context) {
	var req model.PlaybackStart
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sess, err := c.PlaybackService.Start(ctx.Request.Context(), util.GetSession(ctx), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, sess)
}

// Report godoc
// @Summary 上报播放位置
// @Tags 播放
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   sid path string true "会话ID"
// @Param   body body model.PlaybackReport true "当前位置"
// @Success 200 {object} util.Response{data=service.TrackerState} "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/playback/{sid}/report [post]
func (c *PlaybackController) Report(ctx *gin.Context) {
	var req model.PlaybackReport
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	state, err := c.PlaybackService.Report(util.DeviceID(ctx), ctx.Param("sid"), req)
	c.respond(ctx, state, err)
}

// Play godoc
// @Summary 播放
// @Tags 播放
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   sid path string true "会话ID"
// @Success 200 {object} util.Response{data=service.TrackerState} "成功"
// @Router /api/playback/{sid}/play [post]
func (c *PlaybackController) Play(ctx *gin.Context) {
	state, err := c.PlaybackService.Play(util.DeviceID(ctx), ctx.Param("sid"))
	c.respond(ctx, state, err)
}

// Pause godoc
// @Summary 暂停
// @Tags 播放
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   sid path string true "会话ID"
// @Success 200 {object} util.Response{data=service.TrackerState} "成功"
// @Router /api/playback/{sid}/pause [post]
func (c *PlaybackController) Pause(ctx *gin.Context) {
	state, err := c.PlaybackService.Pause(util.DeviceID(ctx), ctx.Param("sid"))
	c.respond(ctx, state, err)
}

// End godoc
// @Summary 播放结束
// @Description 位置归零并标记课时完成
// @Tags 播放
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   sid path string true "会话ID"
// @Success 200 {object} util.Response{data=service.TrackerState} "成功"
// @Router /api/playback/{sid}/end [post]
func (c *PlaybackController) End(ctx *gin.Context) {
	state, err := c.PlaybackService.End(util.DeviceID(ctx), ctx.Param("sid"))
	c.respond(ctx, state, err)
}

// StopPlayback godoc
// @Summary 离开播放页
// @Tags 播放
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   sid path string true "会话ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/playback/{sid} [delete]
func (c *PlaybackController) StopPlayback(ctx *gin.Context) {
	if err := c.PlaybackService.Stop(util.DeviceID(ctx), ctx.Param("sid")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func (c *PlaybackController) respond(ctx *gin.Context, state *service.TrackerState, err error) {
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, state)
}
