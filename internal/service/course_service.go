package service

import (
	"context"
	"eduflow_backend/internal/model"
	"eduflow_backend/internal/repository"
	"eduflow_backend/internal/util"
	"eduflow_backend/pkg/logger"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	courseDetailKeyPrefix = "course:detail:"
	courseDetailTTL       = 10 * time.Minute
)

type CourseService struct {
	CourseRepo *repository.CourseRepository
	LessonRepo *repository.LessonRepository
	Redis      *redis.Client
	Storage    *StorageService
}

func NewCourseService(courseRepo *repository.CourseRepository, lessonRepo *repository.LessonRepository, rdb *redis.Client, storage *StorageService) *CourseService {
	return &CourseService{
		CourseRepo: courseRepo,
		LessonRepo: lessonRepo,
		Redis:      rdb,
		Storage:    storage,
	}
}

// List 课程目录分页查询
func (s *CourseService) List(page, limit int, category, search string) ([]model.Course, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	courses, total, err := s.CourseRepo.List(page, limit, category, search)
	if err != nil {
		return nil, 0, util.NewPersistenceError("course list", err)
	}
	return courses, total, nil
}

func (s *CourseService) ListFeatured(limit int) ([]model.Course, error) {
	if limit < 1 || limit > 20 {
		limit = 6
	}
	courses, err := s.CourseRepo.ListFeatured(limit)
	if err != nil {
		return nil, util.NewPersistenceError("featured course list", err)
	}
	return courses, nil
}

// GetDetail 课程详情（含课时列表）。详情页读多写少，走 Redis 旁路缓存，
// 课程或课时变更时失效。
func (s *CourseService) GetDetail(ctx context.Context, courseID uint) (*model.Course, error) {
	key := fmt.Sprintf("%s%d", courseDetailKeyPrefix, courseID)

	if s.Redis != nil {
		val, err := s.Redis.Get(ctx, key).Result()
		if err == nil {
			var cached model.Course
			if json.Unmarshal([]byte(val), &cached) == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			logger.Log.Debug("课程详情缓存读取失败", zap.Error(err))
		}
	}

	course, err := s.CourseRepo.FindByIDWithLessons(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("course")
		}
		return nil, util.NewPersistenceError("course lookup", err)
	}

	if s.Redis != nil {
		if data, err := json.Marshal(course); err == nil {
			if err := s.Redis.Set(ctx, key, data, courseDetailTTL).Err(); err != nil {
				logger.Log.Debug("课程详情缓存写入失败", zap.Error(err))
			}
		}
	}

	return course, nil
}

func (s *CourseService) invalidateDetail(ctx context.Context, courseID uint) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf("%s%d", courseDetailKeyPrefix, courseID)
	s.Redis.Del(ctx, key)
}

// CreateCourseInput 讲师建课参数
type CreateCourseInput struct {
	Title           string  `json:"title" binding:"required"`
	Description     string  `json:"description"`
	LongDescription string  `json:"longDescription"`
	Category        string  `json:"category"`
	Level           string  `json:"level"`
	Price           float64 `json:"price"`
	Thumbnail       string  `json:"thumbnail"`
	DurationMinutes int     `json:"durationMinutes"`
}

func (s *CourseService) Create(instructorID uint, input *CreateCourseInput) (*model.Course, error) {
	course := &model.Course{
		Title:           input.Title,
		Description:     input.Description,
		LongDescription: input.LongDescription,
		InstructorID:    instructorID,
		Category:        input.Category,
		Level:           input.Level,
		Price:           input.Price,
		Thumbnail:       input.Thumbnail,
		DurationMinutes: input.DurationMinutes,
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, util.NewPersistenceError("course create", err)
	}
	return course, nil
}

// findOwnedCourse 校验课程归属，讲师只能操作自己的课程
func (s *CourseService) findOwnedCourse(courseID, instructorID uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("course")
		}
		return nil, util.NewPersistenceError("course lookup", err)
	}
	if course.InstructorID != instructorID {
		return nil, util.ErrPermissionDenied
	}
	return course, nil
}

// UpdateCourseInput 建课参数的可选版本，nil 字段不更新
type UpdateCourseInput struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	LongDescription *string  `json:"longDescription"`
	Category        *string  `json:"category"`
	Level           *string  `json:"level"`
	Price           *float64 `json:"price"`
	Thumbnail       *string  `json:"thumbnail"`
	DurationMinutes *int     `json:"durationMinutes"`
	IsPublished     *bool    `json:"isPublished"`
	Featured        *bool    `json:"featured"`
}

func (s *CourseService) Update(ctx context.Context, courseID, instructorID uint, input *UpdateCourseInput) (*model.Course, error) {
	course, err := s.findOwnedCourse(courseID, instructorID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		course.Title = *input.Title
	}
	if input.Description != nil {
		course.Description = *input.Description
	}
	if input.LongDescription != nil {
		course.LongDescription = *input.LongDescription
	}
	if input.Category != nil {
		course.Category = *input.Category
	}
	if input.Level != nil {
		course.Level = *input.Level
	}
	if input.Price != nil {
		course.Price = *input.Price
	}
	if input.Thumbnail != nil {
		course.Thumbnail = *input.Thumbnail
	}
	if input.DurationMinutes != nil {
		course.DurationMinutes = *input.DurationMinutes
	}
	if input.IsPublished != nil {
		course.IsPublished = *input.IsPublished
	}
	if input.Featured != nil {
		course.Featured = *input.Featured
	}

	if err := s.CourseRepo.Update(course); err != nil {
		return nil, util.NewPersistenceError("course update", err)
	}
	s.invalidateDetail(ctx, courseID)
	return course, nil
}

func (s *CourseService) Delete(ctx context.Context, courseID, instructorID uint) error {
	if _, err := s.findOwnedCourse(courseID, instructorID); err != nil {
		return err
	}
	if err := s.CourseRepo.Delete(courseID); err != nil {
		return util.NewPersistenceError("course delete", err)
	}
	s.invalidateDetail(ctx, courseID)
	return nil
}

func (s *CourseService) ListByInstructor(instructorID uint) ([]model.Course, error) {
	courses, err := s.CourseRepo.ListByInstructor(instructorID)
	if err != nil {
		return nil, util.NewPersistenceError("instructor course list", err)
	}
	return courses, nil
}

// CreateLessonInput 课时创建参数
type CreateLessonInput struct {
	Title           string           `json:"title" binding:"required"`
	Type            model.LessonType `json:"type" binding:"required"`
	Content         string           `json:"content"`
	DurationSeconds int              `json:"durationSeconds"`
	Order           int              `json:"order"`
}

// CreateLesson 新增课时。视频课时未填时长时用 ffmpeg 探测本地文件回填；
// 课程还没有封面时从视频抓帧补一张。
// 课时数变化会改变所有在读学生的进度分母，下一次进度计算自动生效。
func (s *CourseService) CreateLesson(ctx context.Context, courseID, instructorID uint, input *CreateLessonInput) (*model.Lesson, error) {
	course, err := s.findOwnedCourse(courseID, instructorID)
	if err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		CourseID:        courseID,
		Title:           input.Title,
		Type:            input.Type,
		Content:         input.Content,
		DurationSeconds: input.DurationSeconds,
		Order:           input.Order,
	}

	if lesson.Type == model.LessonVideo && util.HasVideoExtension(lesson.Content) {
		if lesson.DurationSeconds == 0 {
			if info, err := util.GetVideoInfo(lesson.Content); err == nil {
				lesson.DurationSeconds = int(info.Duration)
			} else {
				logger.Log.Debug("视频时长探测失败", zap.String("path", lesson.Content), zap.Error(err))
			}
		}
		if course.Thumbnail == "" {
			s.backfillThumbnail(ctx, course, lesson.Content)
		}
	}

	if err := s.LessonRepo.Create(lesson); err != nil {
		return nil, util.NewPersistenceError("lesson create", err)
	}
	s.invalidateDetail(ctx, courseID)
	return lesson, nil
}

// backfillThumbnail 从视频第 1 秒抓帧生成课程封面并上传。
// 抓帧和上传都是尽力而为，失败只记录，不影响课时创建。
func (s *CourseService) backfillThumbnail(ctx context.Context, course *model.Course, videoPath string) {
	localThumb := util.ThumbnailPath(videoPath)
	if err := util.GenerateThumbnail(videoPath, localThumb, "00:00:01"); err != nil {
		logger.Log.Debug("课程封面抓帧失败", zap.String("path", videoPath), zap.Error(err))
		return
	}

	filename := fmt.Sprintf("thumbnails/course_%d.jpg", course.ID)
	url, err := s.Storage.UploadFile(ctx, filename, localThumb, util.MimeJPEG)
	if err != nil {
		logger.Log.Warn("课程封面上传失败", zap.Uint("courseId", course.ID), zap.Error(err))
		return
	}

	course.Thumbnail = url
	if err := s.CourseRepo.Update(course); err != nil {
		logger.Log.Warn("课程封面回写失败", zap.Uint("courseId", course.ID), zap.Error(err))
	}
}

func (s *CourseService) UpdateLesson(ctx context.Context, lessonID, instructorID uint, input *CreateLessonInput) (*model.Lesson, error) {
	lesson, err := s.LessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("lesson")
		}
		return nil, util.NewPersistenceError("lesson lookup", err)
	}
	if _, err := s.findOwnedCourse(lesson.CourseID, instructorID); err != nil {
		return nil, err
	}

	lesson.Title = input.Title
	lesson.Type = input.Type
	lesson.Content = input.Content
	lesson.DurationSeconds = input.DurationSeconds
	lesson.Order = input.Order

	if err := s.LessonRepo.Update(lesson); err != nil {
		return nil, util.NewPersistenceError("lesson update", err)
	}
	s.invalidateDetail(ctx, lesson.CourseID)
	return lesson, nil
}

func (s *CourseService) DeleteLesson(ctx context.Context, lessonID, instructorID uint) error {
	lesson, err := s.LessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.NewNotFoundError("lesson")
		}
		return util.NewPersistenceError("lesson lookup", err)
	}
	if _, err := s.findOwnedCourse(lesson.CourseID, instructorID); err != nil {
		return err
	}

	if err := s.LessonRepo.Delete(lessonID); err != nil {
		return util.NewPersistenceError("lesson delete", err)
	}
	s.invalidateDetail(ctx, lesson.CourseID)
	return nil
}
