package controller

import (
	"learning_portal/internal/model"
	"learning_portal/internal/service"
	"learning_portal/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
}

func NewExamController(examService *service.ExamService) *ExamController {
	return &ExamController{ExamService: examService}
}

// ListExams godoc
// @Summary 考试列表
// @Description 按状态排序：进行中、可参加、即将开始、已提交、已结束
// @Tags 考试
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Success 200 {object} util.Response{data=[]model.ExamListing} "成功"
// @Router /api/exams [get]
func (c *ExamController) ListExams(ctx *gin.Context) {
	listings, err := c.ExamService.Listings(ctx.Request.Context(), util.GetSession(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, listings)
}

// StartAttempt godoc
// @Summary 开始考试
// @Tags 考试
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "考试ID"
// @Success 201 {object} util.Response{data=model.Attempt} "已开始"
// @Router /api/exams/{id}/attempts [post]
func (c *ExamController) StartAttempt(ctx *gin.Context) {
	attempt, err := c.ExamService.StartAttempt(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

// GetAttempt godoc
// @Summary 作答详情
// @Tags 考试
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "作答ID"
// @Success 200 {object} util.Response{data=model.Attempt} "成功"
// @Router /api/attempts/{id} [get]
func (c *ExamController) GetAttempt(ctx *gin.Context) {
	attempt, err := c.ExamService.GetAttempt(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// SaveAnswer godoc
// @Summary 保存答案
// @Tags 考试
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "作答ID"
// @Param   body body model.Answer true "答案"
// @Success 200 {object} util.Response "已保存"
// @Router /api/attempts/{id}/answers [put]
func (c *ExamController) SaveAnswer(ctx *gin.Context) {
	var answer model.Answer
	if err := ctx.ShouldBindJSON(&answer); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.ExamService.SaveAnswer(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"), answer); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// SubmitAttempt godoc
// @Summary 交卷
// @Tags 考试
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "作答ID"
// @Success 200 {object} util.Response{data=model.Attempt} "已交卷"
// @Router /api/attempts/{id}/submit [post]
func (c *ExamController) SubmitAttempt(ctx *gin.Context) {
	attempt, err := c.ExamService.SubmitAttempt(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}
