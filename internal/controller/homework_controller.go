package controller

import (
	"learning_portal/internal/model"
	"learning_portal/internal/service"
	"learning_portal/internal/util"

	"github.com/gin-gonic/gin"
)

type HomeworkController struct {
	HomeworkService *service.HomeworkService
}

func NewHomeworkController(homeworkService *service.HomeworkService) *HomeworkController {
	return &HomeworkController{HomeworkService: homeworkService}
}

// SubmitHomeworkRequest 学生提交作业
// swagger:model SubmitHomeworkRequest
type SubmitHomeworkRequest struct {
	Content     string             `json:"content" example:"第一题答案..."`
	Attachments []model.Attachment `json:"attachments"`
}

// ListHomework godoc
// @Summary 作业列表
// @Tags 作业
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   status query string false "状态(draft/published/closed)"
// @Success 200 {object} util.Response{data=[]model.Homework} "成功"
// @Router /api/homework [get]
func (c *HomeworkController) ListHomework(ctx *gin.Context) {
	list, err := c.HomeworkService.List(ctx.Request.Context(), util.GetSession(ctx), ctx.Query("status"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// GetHomework godoc
// @Summary 作业详情
// @Tags 作业
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "作业ID"
// @Success 200 {object} util.Response{data=model.Homework} "成功"
// @Router /api/homework/{id} [get]
func (c *HomeworkController) GetHomework(ctx *gin.Context) {
	hw, err := c.HomeworkService.Detail(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, hw)
}

// SubmitHomework godoc
// @Summary 提交作业
// @Tags 作业
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "作业ID"
// @Param   body body SubmitHomeworkRequest true "答案与附件"
// @Success 201 {object} util.Response{data=model.Submission} "已提交"
// @Failure 400 {object} util.Response "内容为空"
// @Router /api/homework/{id}/submit [post]
func (c *HomeworkController) SubmitHomework(ctx *gin.Context) {
	var req SubmitHomeworkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sub, err := c.HomeworkService.Submit(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"), req.Content, req.Attachments)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, sub)
}

// CreateHomework godoc
// @Summary 布置作业(草稿)
// @Tags 作业
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   X-Device-ID header string true "设备标识"
// @Param   body body model.HomeworkForm true "作业表单"
// @Success 201 {object} util.Response{data=model.Homework} "已保存草稿"
// @Router /api/homework [post]
func (c *HomeworkController) CreateHomework(ctx *gin.Context) {
	var form model.HomeworkForm
	if err := ctx.ShouldBindJSON(&form); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	hw, err := c.HomeworkService.Create(ctx.Request.Context(), util.GetSession(ctx), form)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, hw)
}

// UpdateHomework godoc
// @Summary 修改作业
// @Tags 作业
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "作业ID"
// @Param   body body model.HomeworkForm true "作业表单"
// @Success 200 {object} util.Response{data=model.Homework} "成功"
// @Router /api/homework/{id} [put]
func (c *HomeworkController) UpdateHomework(ctx *gin.Context) {
	var form model.HomeworkForm
	if err := ctx.ShouldBindJSON(&form); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	hw, err := c.HomeworkService.Update(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"), form)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, hw)
}

// PublishHomework godoc
// @Summary 发布作业
// @Description 截止时间必须晚于当前时间
// @Tags 作业
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "作业ID"
// @Success 200 {object} util.Response{data=model.Homework} "已发布"
// @Router /api/homework/{id}/publish [post]
func (c *HomeworkController) PublishHomework(ctx *gin.Context) {
	hw, err := c.HomeworkService.Publish(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, hw)
}

// CloseHomework godoc
// @Summary 关闭作业
// @Tags 作业
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "作业ID"
// @Success 200 {object} util.Response{data=model.Homework} "已关闭"
// @Router /api/homework/{id}/close [post]
func (c *HomeworkController) CloseHomework(ctx *gin.Context) {
	hw, err := c.HomeworkService.Close(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, hw)
}

// DeleteHomework godoc
// @Summary 删除作业
// @Tags 作业
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "作业ID"
// @Success 200 {object} util.Response "已删除"
// @Router /api/homework/{id} [delete]
func (c *HomeworkController) DeleteHomework(ctx *gin.Context) {
	if err := c.HomeworkService.Delete(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListSubmissions godoc
// @Summary 作业提交列表
// @Tags 作业
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "作业ID"
// @Success 200 {object} util.Response{data=[]model.Submission} "成功"
// @Router /api/homework/{id}/submissions [get]
func (c *HomeworkController) ListSubmissions(ctx *gin.Context) {
	subs, err := c.HomeworkService.Submissions(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, subs)
}

// GradeSubmission godoc
// @Summary 批改作业
// @Tags 作业
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "作业ID"
// @Param   sid path string true "提交ID"
// @Param   body body model.GradeInput true "分数与评语"
// @Success 200 {object} util.Response{data=model.Submission} "成功"
// @Failure 400 {object} util.Response "分数超出范围"
// @Router /api/homework/{id}/submissions/{sid}/grade [put]
func (c *HomeworkController) GradeSubmission(ctx *gin.Context) {
	var in model.GradeInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sub, err := c.HomeworkService.Grade(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"), ctx.Param("sid"), in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, sub)
}
