package controller

import (
	"eduflow_backend/internal/service"
	"eduflow_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
	QuizService   *service.QuizService
}

func NewCourseController(courseService *service.CourseService, quizService *service.QuizService) *CourseController {
	return &CourseController{
		CourseService: courseService,
		QuizService:   quizService,
	}
}

// List godoc
// @Summary 课程目录
// @Description 分页浏览已发布课程，支持分类过滤和标题搜索
// @Tags 课程
// @Produce  json
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页数量" default(20)
// @Param   category query string false "分类"
// @Param   search query string false "标题关键词"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	category := ctx.Query("category")
	search := ctx.Query("search")

	courses, total, err := c.CourseService.List(page, limit, category, search)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  courses,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// ListFeatured godoc
// @Summary 精选课程
// @Tags 课程
// @Produce  json
// @Param   limit query int false "数量" default(6)
// @Success 200 {object} util.Response "成功"
// @Router /api/courses/featured [get]
func (c *CourseController) ListFeatured(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "6"))
	courses, err := c.CourseService.ListFeatured(limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// GetDetail godoc
// @Summary 课程详情
// @Description 课程信息与按顺序排列的课时列表
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetDetail(ctx *gin.Context) {
	courseID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	course, err := c.CourseService.GetDetail(ctx.Request.Context(), courseID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// ListQuizzes godoc
// @Summary 课程下的测验列表
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/courses/{id}/quizzes [get]
func (c *CourseController) ListQuizzes(ctx *gin.Context) {
	courseID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	quizzes, err := c.QuizService.ListByCourse(courseID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// ===== 讲师端 =====

// Create godoc
// @Summary 创建课程
// @Tags 讲师
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateCourseInput true "课程信息"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Router /api/instructor/courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.CreateCourseInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.Create(claims.UserID, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// Update godoc
// @Summary 更新课程
// @Tags 讲师
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.UpdateCourseInput true "更新字段"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 403 {object} util.Response "无权操作他人课程"
// @Router /api/instructor/courses/{id} [put]
func (c *CourseController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req service.UpdateCourseInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.Update(ctx.Request.Context(), courseID, claims.UserID, &req)
	if err != nil {
		if err == util.ErrPermissionDenied {
			util.Forbidden(ctx)
			return
		}
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// Delete godoc
// @Summary 删除课程
// @Tags 讲师
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/instructor/courses/{id} [delete]
func (c *CourseController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	if err := c.CourseService.Delete(ctx.Request.Context(), courseID, claims.UserID); err != nil {
		if err == util.ErrPermissionDenied {
			util.Forbidden(ctx)
			return
		}
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListMine godoc
// @Summary 我的课程（讲师）
// @Tags 讲师
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "成功"
// @Router /api/instructor/courses [get]
func (c *CourseController) ListMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courses, err := c.CourseService.ListByInstructor(claims.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// CreateLesson godoc
// @Summary 新增课时
// @Description 视频课时未填时长时服务端自动探测
// @Tags 讲师
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.CreateLessonInput true "课时信息"
// @Success 201 {object} util.Response{data=model.Lesson} "创建成功"
// @Router /api/instructor/courses/{id}/lessons [post]
func (c *CourseController) CreateLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req service.CreateLessonInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.CourseService.CreateLesson(ctx.Request.Context(), courseID, claims.UserID, &req)
	if err != nil {
		if err == util.ErrPermissionDenied {
			util.Forbidden(ctx)
			return
		}
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// UpdateLesson godoc
// @Summary 更新课时
// @Tags 讲师
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   lessonId path int true "课时ID"
// @Param   body body service.CreateLessonInput true "课时信息"
// @Success 200 {object} util.Response{data=model.Lesson} "成功"
// @Router /api/instructor/lessons/{lessonId} [put]
func (c *CourseController) UpdateLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	lessonID, err := util.ParseUint(ctx.Param("lessonId"))
	if err != nil {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	var req service.CreateLessonInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.CourseService.UpdateLesson(ctx.Request.Context(), lessonID, claims.UserID, &req)
	if err != nil {
		if err == util.ErrPermissionDenied {
			util.Forbidden(ctx)
			return
		}
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// DeleteLesson godoc
// @Summary 删除课时
// @Description 删除后学生进度按新的课时总数重新计算
// @Tags 讲师
// @Produce  json
// @Security ApiKeyAuth
// @Param   lessonId path int true "课时ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/instructor/lessons/{lessonId} [delete]
func (c *CourseController) DeleteLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	lessonID, err := util.ParseUint(ctx.Param("lessonId"))
	if err != nil {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	if err := c.CourseService.DeleteLesson(ctx.Request.Context(), lessonID, claims.UserID); err != nil {
		if err == util.ErrPermissionDenied {
			util.Forbidden(ctx)
			return
		}
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
