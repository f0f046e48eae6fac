package controller

import (
	"learning_portal/internal/model"
	"learning_portal/internal/service"
	"learning_portal/internal/util"

	"github.com/gin-gonic/gin"
)

// AttendanceController 考勤与请假
type AttendanceController struct {
	AttendanceService *service.AttendanceService
	LeaveService      *service.LeaveService
}

func NewAttendanceController(attendanceService *service.AttendanceService, leaveService *service.LeaveService) *AttendanceController {
	return &AttendanceController{
		AttendanceService: attendanceService,
		LeaveService:      leaveService,
	}
}

// GetAttendance godoc
// @Summary 考勤记录
// @Description 日期区间内的考勤记录与出勤率
// @Tags 考勤
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   from query string false "开始日期(YYYY-MM-DD)"
// @Param   to query string false "结束日期(YYYY-MM-DD)"
// @Param   classId query string false "班级ID"
// @Success 200 {object} util.Response{data=model.AttendanceView} "成功"
// @Failure 400 {object} util.Response "日期格式错误"
// @Router /api/attendance [get]
func (c *AttendanceController) GetAttendance(ctx *gin.Context) {
	view, err := c.AttendanceService.Records(ctx.Request.Context(), util.GetSession(ctx),
		ctx.Query("from"), ctx.Query("to"), ctx.Query("classId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// MarkAttendance godoc
// @Summary 点名
// @Tags 考勤
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   body body model.AttendanceMark true "班级考勤"
// @Success 200 {object} util.Response "成功"
// @Router /api/attendance [post]
func (c *AttendanceController) MarkAttendance(ctx *gin.Context) {
	var mark model.AttendanceMark
	if err := ctx.ShouldBindJSON(&mark); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.AttendanceService.Mark(ctx.Request.Context(), util.GetSession(ctx), mark); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListLeaves godoc
// @Summary 请假列表
// @Tags 请假
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   status query string false "状态(pending/approved/rejected)"
// @Success 200 {object} util.Response{data=[]model.LeaveRequest} "成功"
// @Router /api/leaves [get]
func (c *AttendanceController) ListLeaves(ctx *gin.Context) {
	leaves, err := c.LeaveService.List(ctx.Request.Context(), util.GetSession(ctx), ctx.Query("status"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, leaves)
}

// ApplyLeave godoc
// @Summary 申请请假
// @Tags 请假
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   body body model.LeaveRequest true "请假申请"
// @Success 201 {object} util.Response{data=model.LeaveRequest} "已提交"
// @Failure 400 {object} util.Response "校验失败"
// @Router /api/leaves [post]
func (c *AttendanceController) ApplyLeave(ctx *gin.Context) {
	var req model.LeaveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	leave, err := c.LeaveService.Apply(ctx.Request.Context(), util.GetSession(ctx), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, leave)
}

// CancelLeave godoc
// @Summary 撤回请假
// @Description 只能撤回自己待审批的申请
// @Tags 请假
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "申请ID"
// @Success 200 {object} util.Response "已撤回"
// @Router /api/leaves/{id} [delete]
func (c *AttendanceController) CancelLeave(ctx *gin.Context) {
	if err := c.LeaveService.Cancel(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ReviewLeave godoc
// @Summary 审批请假
// @Tags 请假
// @Accept  json
// @Produce  json
// @Param   X-Device-ID header string true "设备标识"
// @Param   id path string true "申请ID"
// @Param   body body model.LeaveReview true "审批结果"
// @Success 200 {object} util.Response{data=model.LeaveRequest} "成功"
// @Router /api/leaves/{id} [patch]
func (c *AttendanceController) ReviewLeave(ctx *gin.Context) {
	var review model.LeaveReview
	if err := ctx.ShouldBindJSON(&review); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	leave, err := c.LeaveService.Review(ctx.Request.Context(), util.GetSession(ctx), ctx.Param("id"), review)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, leave)
}
