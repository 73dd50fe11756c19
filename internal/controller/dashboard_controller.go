package controller

import (
	"eduflow_backend/internal/service"
	"eduflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
}

func NewDashboardController(dashboardService *service.DashboardService) *DashboardController {
	return &DashboardController{DashboardService: dashboardService}
}

// StudentDashboard godoc
// @Summary 学生首页
// @Description 在读课程卡片、结课数量、证书列表
// @Tags 看板
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.StudentDashboard} "成功"
// @Router /api/dashboard [get]
func (c *DashboardController) StudentDashboard(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	dashboard, err := c.DashboardService.GetStudentDashboard(claims.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, dashboard)
}

// InstructorDashboard godoc
// @Summary 讲师看板
// @Description 每门课程的报名数、平均进度、结课人数和近期答题记录
// @Tags 看板
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.InstructorDashboard} "成功"
// @Router /api/instructor/dashboard [get]
func (c *DashboardController) InstructorDashboard(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	dashboard, err := c.DashboardService.GetInstructorDashboard(claims.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, dashboard)
}
