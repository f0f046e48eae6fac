package controller

import (
	"context"
	"learning_portal/internal/repository"
	"learning_portal/internal/service"
	"learning_portal/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	Store    repository.TokenStore
	Channels *service.ChannelPool
	Playback *service.PlaybackService
}

func NewHealthController(store repository.TokenStore, channels *service.ChannelPool, playback *service.PlaybackService) *HealthController {
	return &HealthController{Store: store, Channels: channels, Playback: playback}
}

// @Summary 健康检查
// @Description 检查令牌存储与实时频道状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response "令牌存储不可用"
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := repository.PingStore(pingCtx, c.Store); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Token store unavailable")
		return
	}

	realtime := "disabled"
	total, connected := c.Channels.Stats()
	if c.Channels.Enabled() {
		realtime = "up"
		if connected < total {
			realtime = "degraded"
		}
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"store":    "up",
			"realtime": realtime,
		},
		"realtimeConnections": gin.H{"total": total, "connected": connected},
		"activeTrackers":      c.Playback.Count(),
	})
}
