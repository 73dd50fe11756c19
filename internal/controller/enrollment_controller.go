package controller

import (
	"eduflow_backend/internal/model"
	"eduflow_backend/internal/service"
	"eduflow_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollService     *service.EnrollmentService
	CompletionService *service.CompletionService
	CertService       *service.CertificateService
}

func NewEnrollmentController(
	enrollService *service.EnrollmentService,
	completionService *service.CompletionService,
	certService *service.CertificateService,
) *EnrollmentController {
	return &EnrollmentController{
		EnrollService:     enrollService,
		CompletionService: completionService,
		CertService:       certService,
	}
}

// Enroll godoc
// @Summary 报名课程
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 201 {object} util.Response{data=model.Enrollment} "报名成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Failure 409 {object} util.Response "已报名该课程"
// @Router /api/courses/{id}/enroll [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	enrollment, err := c.EnrollService.Enroll(claims.UserID, courseID)
	if err != nil {
		if errors.Is(err, util.ErrAlreadyEnrolled) {
			util.Error(ctx, 409, "已报名该课程")
			return
		}
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// ListMine godoc
// @Summary 我的课程
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "成功"
// @Router /api/enrollments [get]
func (c *EnrollmentController) ListMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	views, err := c.EnrollService.ListByStudent(claims.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// Get godoc
// @Summary 单课程学习进度
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.EnrollmentDetail} "成功"
// @Failure 404 {object} util.Response "未报名该课程"
// @Router /api/courses/{id}/enrollment [get]
func (c *EnrollmentController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	detail, err := c.EnrollService.Get(claims.UserID, courseID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// LessonCompleteResponse 课时完成的响应。
// certificateWarning 非空表示课程已结课但证书签发失败，可稍后重发。
type LessonCompleteResponse struct {
	Progress           int                `json:"progress"`
	CourseCompleted    bool               `json:"courseCompleted"`
	Certificate        *model.Certificate `json:"certificate,omitempty"`
	CertificateWarning string             `json:"certificateWarning,omitempty"`
}

// CompleteLesson godoc
// @Summary 标记课时完成
// @Description 幂等操作；进度达到100%时自动签发结业证书
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   lessonId path int true "课时ID"
// @Success 200 {object} util.Response{data=LessonCompleteResponse} "成功"
// @Failure 404 {object} util.Response "未报名该课程"
// @Router /api/courses/{id}/lessons/{lessonId}/complete [post]
func (c *EnrollmentController) CompleteLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	lessonID, err := util.ParseUint(ctx.Param("lessonId"))
	if err != nil {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	outcome, err := c.CompletionService.OnLessonCompleted(ctx.Request.Context(), claims.UserID, courseID, lessonID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	resp := LessonCompleteResponse{
		Progress:        outcome.Progress,
		CourseCompleted: outcome.CourseCompleted,
		Certificate:     outcome.Certificate,
	}
	if outcome.CertificateError != nil {
		resp.CertificateWarning = "课程已完成，但证书生成失败，请稍后重试"
	}
	util.Success(ctx, resp)
}

// ListCertificates godoc
// @Summary 我的证书
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "成功"
// @Router /api/certificates [get]
func (c *EnrollmentController) ListCertificates(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	certs, err := c.CertService.ListByStudent(claims.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, certs)
}

// GetCertificate godoc
// @Summary 查询单课程证书
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Certificate} "成功"
// @Failure 404 {object} util.Response "证书不存在"
// @Router /api/courses/{id}/certificate [get]
func (c *EnrollmentController) GetCertificate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	cert, err := c.CertService.FindByStudentAndCourse(claims.UserID, courseID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, cert)
}

// ReissueCertificate godoc
// @Summary 重发证书
// @Description 课程已结课时重新生成证书文件；首次签发失败时也可用本接口补发
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Certificate} "成功"
// @Failure 400 {object} util.Response "课程尚未结课"
// @Router /api/courses/{id}/certificate/reissue [post]
func (c *EnrollmentController) ReissueCertificate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	cert, err := c.CompletionService.ReissueCertificate(ctx.Request.Context(), claims.UserID, courseID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, cert)
}
