package controller

import (
	"eduflow_backend/internal/service"
	"eduflow_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// Register godoc
// @Summary 注册新用户
// @Description 注册学生或讲师账号，邮箱唯一
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.RegisterInput true "注册信息"
// @Success 201 {object} util.Response{data=model.User} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Router /api/auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req service.RegisterInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AuthService.Register(&req)
	if err != nil {
		if errors.Is(err, util.ErrEmailRegistered) {
			util.Error(ctx, 409, "该邮箱已被注册")
			return
		}
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, user)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary 用户登录
// @Description 校验邮箱密码，返回JWT令牌
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=service.LoginResult} "登录成功"
// @Failure 401 {object} util.Response "邮箱或密码错误"
// @Router /api/auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AuthService.Login(req.Email, req.Password)
	if err != nil {
		// 不区分"用户不存在"和"密码错误"，避免探测邮箱
		if errors.Is(err, util.ErrUserNotFound) || errors.Is(err, util.ErrPermissionDenied) {
			util.Error(ctx, 401, "邮箱或密码错误")
			return
		}
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// GetProfile godoc
// @Summary 获取个人资料
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Router /api/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	user, err := c.AuthService.GetProfile(claims.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpdateProfile godoc
// @Summary 更新个人资料
// @Tags 认证
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.UpdateProfileInput true "资料字段"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Router /api/profile [put]
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.UpdateProfileInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AuthService.UpdateProfile(claims.UserID, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}
