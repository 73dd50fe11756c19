package service

import (
	"eduflow_backend/internal/model"
	"eduflow_backend/internal/repository"
	"eduflow_backend/internal/util"
	"eduflow_backend/pkg/logger"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type EnrollmentService struct {
	EnrollRepo *repository.EnrollmentRepository
	CourseRepo *repository.CourseRepository
}

func NewEnrollmentService(enrollRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository) *EnrollmentService {
	return &EnrollmentService{
		EnrollRepo: enrollRepo,
		CourseRepo: courseRepo,
	}
}

// Enroll 学生报名课程。同一 (学生, 课程) 只能报名一次；
// 新报名进度为 0，完成集合为空。
func (s *EnrollmentService) Enroll(studentID, courseID uint) (*model.Enrollment, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("course")
		}
		return nil, util.NewPersistenceError("course lookup", err)
	}
	if !course.IsPublished {
		return nil, util.NewNotFoundError("course")
	}

	if _, err := s.EnrollRepo.FindByStudentAndCourse(studentID, courseID); err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewPersistenceError("enrollment lookup", err)
	}

	enrollment := &model.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Progress:  0,
	}
	if err := s.EnrollRepo.Create(enrollment); err != nil {
		return nil, util.NewPersistenceError("enrollment create", err)
	}

	// 报名人数是课程卡片上的展示计数，失败不影响报名本身
	if err := s.CourseRepo.IncrementEnrollmentCount(courseID); err != nil {
		logger.Log.Warn("更新课程报名计数失败",
			zap.Uint("courseId", courseID),
			zap.Error(err),
		)
	}

	return enrollment, nil
}

// EnrollmentView 学生"我的课程"列表项：报名信息加课程摘要
type EnrollmentView struct {
	Enrollment model.Enrollment `json:"enrollment"`
	Course     *model.Course    `json:"course,omitempty"`
}

// ListByStudent 学生的全部报名，附带课程信息。
// 课程被下架或删除时仍保留报名记录，课程字段为空。
func (s *EnrollmentService) ListByStudent(studentID uint) ([]EnrollmentView, error) {
	enrollments, err := s.EnrollRepo.ListByStudent(studentID)
	if err != nil {
		return nil, util.NewPersistenceError("enrollment list", err)
	}

	views := make([]EnrollmentView, len(enrollments))
	for i, e := range enrollments {
		views[i] = EnrollmentView{Enrollment: e}
		if course, err := s.CourseRepo.FindByID(e.CourseID); err == nil {
			views[i].Course = course
		}
	}
	return views, nil
}

// Get 单条报名详情，含完成课时列表
type EnrollmentDetail struct {
	Enrollment       *model.Enrollment `json:"enrollment"`
	CompletedLessons []uint            `json:"completedLessons"`
}

func (s *EnrollmentService) Get(studentID, courseID uint) (*EnrollmentDetail, error) {
	enrollment, err := s.EnrollRepo.FindByStudentAndCourse(studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("enrollment")
		}
		return nil, util.NewPersistenceError("enrollment lookup", err)
	}
	return &EnrollmentDetail{
		Enrollment:       enrollment,
		CompletedLessons: enrollment.CompletedLessonIDs(),
	}, nil
}
