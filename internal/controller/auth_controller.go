package controller

import (
	"learning_portal/internal/service"
	"learning_portal/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// LoginRequest defines model for login
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary 登录
// @Description 用上游账号登录，令牌加密保存在本机并绑定到设备
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   body body LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=object} "登录成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "账号或密码错误"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sess, user, err := c.AuthService.Login(ctx.Request.Context(), util.DeviceID(ctx), req.Email, req.Password)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"session": sess,
		"user":    user,
	})
}

// Logout godoc
// @Summary 登出
// @Description 删除本机令牌，停止该设备的播放跟踪并关闭聊天室
// @Tags 认证
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Success 200 {object} util.Response "登出成功"
// @Router /api/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	sess := util.GetSession(ctx)
	if err := c.AuthService.Logout(ctx.Request.Context(), sess.DeviceID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetProfile godoc
// @Summary 当前用户信息
// @Tags 认证
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 401 {object} util.Response "未登录"
// @Router /api/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	user, err := c.AuthService.Profile(ctx.Request.Context(), util.GetSession(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}
