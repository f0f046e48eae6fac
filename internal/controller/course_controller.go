package controller

import (
	"learning_portal/internal/service"
	"learning_portal/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// ListCourses godoc
// @Summary 课程列表
// @Description 全部课程，可按科目与关键字筛选
// @Tags 课程
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   subject query string false "科目"
// @Param   search query string false "关键字"
// @Success 200 {object} util.Response{data=[]model.Course} "成功"
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	courses, err := c.CourseService.List(ctx.Request.Context(), util.GetSession(ctx), ctx.Query("subject"), ctx.Query("search"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// MyCourses godoc
// @Summary 我的课程
// @Tags 课程
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Success 200 {object} util.Response{data=[]model.Course} "成功"
// @Router /api/courses/my [get]
func (c *CourseController) MyCourses(ctx *gin.Context) {
	courses, err := c.CourseService.MyCourses(ctx.Request.Context(), util.GetSession(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// GetCourse godoc
// @Summary 课程详情
// @Tags 课程
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	course, err := c.CourseService.Detail(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// Enroll godoc
// @Summary 报名课程
// @Description 报名后重新拉取课程详情
// @Tags 课程
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "报名成功"
// @Router /api/courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	course, err := c.CourseService.Enroll(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// Syllabus godoc
// @Summary 课程大纲
// @Description 大纲及每个章节的完成进度
// @Tags 课程
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.SyllabusView} "成功"
// @Router /api/courses/{id}/syllabus [get]
func (c *CourseController) Syllabus(ctx *gin.Context) {
	view, err := c.CourseService.Syllabus(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
