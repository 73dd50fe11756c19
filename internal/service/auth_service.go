package service

import (
	"eduflow_backend/internal/config"
	"eduflow_backend/internal/model"
	"eduflow_backend/internal/repository"
	"eduflow_backend/internal/util"
	"eduflow_backend/pkg/logger"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Config   *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{UserRepo: userRepo, Config: cfg}
}

// RegisterInput 注册参数
type RegisterInput struct {
	Name     string         `json:"name" binding:"required"`
	Email    string         `json:"email" binding:"required,email"`
	Password string         `json:"password" binding:"required,min=6"`
	Role     model.UserRole `json:"role"`
}

// Register 注册新用户。邮箱唯一；角色只允许学生或讲师，
// 管理员账号不开放自助注册。
func (s *AuthService) Register(input *RegisterInput) (*model.User, error) {
	if _, err := s.UserRepo.FindByEmail(input.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewPersistenceError("user lookup", err)
	}

	role := input.Role
	if role != model.Instructor {
		role = model.Student
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashed),
		Role:     role,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, util.NewPersistenceError("user create", err)
	}

	logger.Log.Info("新用户注册",
		zap.Uint("userId", user.ID),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// LoginResult 登录成功后的令牌和用户信息
type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, util.NewPersistenceError("user lookup", err)
	}
	if user.Disabled {
		return nil, util.ErrPermissionDenied
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, util.ErrUserNotFound
	}

	token, err := util.GenerateJWT(user, s.Config.JWT.Secret, s.Config.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	if err := s.UserRepo.UpdateLastLogin(user.ID); err != nil {
		logger.Log.Warn("更新最近登录时间失败", zap.Uint("userId", user.ID), zap.Error(err))
	}

	return &LoginResult{Token: token, User: user}, nil
}

func (s *AuthService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, util.NewPersistenceError("user lookup", err)
	}
	return user, nil
}

// UpdateProfileInput 个人资料更新，nil 字段不变
type UpdateProfileInput struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
	Bio    *string `json:"bio"`
}

func (s *AuthService) UpdateProfile(userID uint, input *UpdateProfileInput) (*model.User, error) {
	user, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, util.NewPersistenceError("user update", err)
	}
	return user, nil
}
