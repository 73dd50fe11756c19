package controller

import (
	"eduflow_backend/internal/service"
	"eduflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// Get godoc
// @Summary 获取测验（答题视图）
// @Description 题目按顺序下发，不包含正确答案
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response{data=service.StudentQuizView} "成功"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quizzes/{id} [get]
func (c *QuizController) Get(ctx *gin.Context) {
	quizID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	view, err := c.QuizService.GetQuizForStudent(quizID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// SubmitRequest 答卷提交。answers 以 0 基题目下标为键。
type SubmitRequest struct {
	Answers service.AnswerSet `json:"answers" binding:"required"`
}

// SubmitResponse 判分结果与本次答题记录
type SubmitResponse struct {
	Result        *service.GradeResult `json:"result"`
	AttemptNumber int                  `json:"attemptNumber"`
}

// Submit godoc
// @Summary 提交答卷
// @Description 全部题目作答后判分，漏答返回400且不产生成绩
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Param   body body SubmitRequest true "答卷"
// @Success 200 {object} util.Response{data=SubmitResponse} "判分结果"
// @Failure 400 {object} util.Response "答卷不完整"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quizzes/{id}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, attempt, err := c.QuizService.SubmitQuiz(claims.UserID, quizID, req.Answers)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, SubmitResponse{
		Result:        result,
		AttemptNumber: attempt.AttemptNumber,
	})
}

// ListAttempts godoc
// @Summary 我的答题历史
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/quizzes/{id}/attempts [get]
func (c *QuizController) ListAttempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	attempts, err := c.QuizService.ListAttempts(claims.UserID, quizID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// ===== 讲师端 =====

// CreateQuiz godoc
// @Summary 创建测验
// @Tags 讲师
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.CreateQuizInput true "测验信息"
// @Success 201 {object} util.Response{data=model.Quiz} "创建成功"
// @Router /api/instructor/courses/{id}/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req service.CreateQuizInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.CreateQuiz(courseID, claims.UserID, &req)
	if err != nil {
		if err == util.ErrPermissionDenied {
			util.Forbidden(ctx)
			return
		}
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// DeleteQuiz godoc
// @Summary 删除测验
// @Tags 讲师
// @Produce  json
// @Security ApiKeyAuth
// @Param   quizId path int true "测验ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/instructor/quizzes/{quizId} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := util.ParseUint(ctx.Param("quizId"))
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	if err := c.QuizService.DeleteQuiz(quizID, claims.UserID); err != nil {
		if err == util.ErrPermissionDenied {
			util.Forbidden(ctx)
			return
		}
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// AddQuestion godoc
// @Summary 添加题目
// @Description 按题型校验答案键：单选需有效选项下标，判断需布尔答案，填空需标准答案
// @Tags 讲师
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   quizId path int true "测验ID"
// @Param   body body service.QuestionInput true "题目信息"
// @Success 201 {object} util.Response{data=model.QuizQuestion} "创建成功"
// @Router /api/instructor/quizzes/{quizId}/questions [post]
func (c *QuizController) AddQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := util.ParseUint(ctx.Param("quizId"))
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuizService.AddQuestion(quizID, claims.UserID, &req)
	if err != nil {
		if err == util.ErrPermissionDenied {
			util.Forbidden(ctx)
			return
		}
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Tags 讲师
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   questionId path int true "题目ID"
// @Param   body body service.QuestionInput true "题目信息"
// @Success 200 {object} util.Response{data=model.QuizQuestion} "成功"
// @Router /api/instructor/questions/{questionId} [put]
func (c *QuizController) UpdateQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	questionID, err := util.ParseUint(ctx.Param("questionId"))
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuizService.UpdateQuestion(questionID, claims.UserID, &req)
	if err != nil {
		if err == util.ErrPermissionDenied {
			util.Forbidden(ctx)
			return
		}
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 讲师
// @Produce  json
// @Security ApiKeyAuth
// @Param   questionId path int true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/instructor/questions/{questionId} [delete]
func (c *QuizController) DeleteQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	questionID, err := util.ParseUint(ctx.Param("questionId"))
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	if err := c.QuizService.DeleteQuestion(questionID, claims.UserID); err != nil {
		if err == util.ErrPermissionDenied {
			util.Forbidden(ctx)
			return
		}
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
