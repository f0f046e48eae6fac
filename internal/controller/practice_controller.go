package controller

import (
	"learning_portal/internal/model"
	"learning_portal/internal/service"
	"learning_portal/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PracticeController struct {
	PracticeService *service.PracticeTestService
}

func NewPracticeController(practiceService *service.PracticeTestService) *PracticeController {
	return &PracticeController{PracticeService: practiceService}
}

// PracticeRequest 自定义练习表单
// swagger:model PracticeRequest
type PracticeRequest struct {
	model.PracticeTestConfig
	RequireChapters bool `json:"requireChapters" example:"false"`
}

// newPracticeRequest 以表单默认值打底，请求体只覆盖传入的字段
func newPracticeRequest() PracticeRequest {
	return PracticeRequest{PracticeTestConfig: service.NewPracticeForm().Config}
}

// DifficultyRequest 调整某一难度的占比
// swagger:model DifficultyRequest
type DifficultyRequest struct {
	Difficulty model.Difficulty      `json:"difficulty"`
	Level      model.DifficultyLevel `json:"level" binding:"required" example:"easy"`
	Value      int                   `json:"value" example:"50"`
}

// Defaults godoc
// @Summary 练习表单默认值
// @Tags 练习
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Success 200 {object} util.Response{data=model.PracticeTestConfig} "成功"
// @Router /api/practice-tests/defaults [get]
func (c *PracticeController) Defaults(ctx *gin.Context) {
	util.Success(ctx, service.NewPracticeForm().Config)
}

// Validate godoc
// @Summary 校验练习表单
// @Tags 练习
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   body body PracticeRequest true "练习配置"
// @Success 200 {object} util.Response "校验通过"
// @Failure 400 {object} util.Response "校验失败"
// @Router /api/practice-tests/validate [post]
func (c *PracticeController) Validate(ctx *gin.Context) {
	req := newPracticeRequest()
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := service.ValidatePracticeConfig(req.PracticeTestConfig, req.RequireChapters); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"valid": true})
}

// Difficulty godoc
// @Summary 重新分配难度占比
// @Description 设置一个难度后，其余两个按原比例分摊剩余百分比
// @Tags 练习
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   body body DifficultyRequest true "难度调整"
// @Success 200 {object} util.Response{data=model.Difficulty} "成功"
// @Router /api/practice-tests/difficulty [post]
func (c *PracticeController) Difficulty(ctx *gin.Context) {
	var req DifficultyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	d, err := c.PracticeService.Redistribute(req.Difficulty, req.Level, req.Value)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, d)
}

// Create godoc
// @Summary 创建并开始练习
// @Tags 练习
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   body body PracticeRequest true "练习配置"
// @Success 201 {object} util.Response{data=model.PracticeTestStart} "已开始"
// @Failure 400 {object} util.Response "校验失败"
// @Failure 502 {object} util.Response "已创建但开始失败"
// @Router /api/practice-tests [post]
func (c *PracticeController) Create(ctx *gin.Context) {
	req := newPracticeRequest()
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	start, err := c.PracticeService.Create(ctx.Request.Context(), util.GetSession(ctx), req.PracticeTestConfig, req.RequireChapters)
	if err != nil && start != nil {
		util.ErrorWithData(ctx, http.StatusBadGateway, "practice test created but could not be started", start)
		return
	}
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, start)
}
