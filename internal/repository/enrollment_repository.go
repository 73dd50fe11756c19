package repository

import (
	"eduflow_backend/internal/model"
	"eduflow_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(e *model.Enrollment) error {
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now()
	}
	return r.DB.Create(e).Error
}

func (r *EnrollmentRepository) FindByStudentAndCourse(studentID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&e).Error
	return &e, err
}

func (r *EnrollmentRepository) ListByStudent(studentID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Where("student_id = ?", studentID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) ListByCourse(courseID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Where("course_id = ?", courseID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

// UpdateWithVersion 带版本号的条件更新（compare-and-swap）。
// 提交时版本不匹配说明有并发的课时完成已先行落库，
// 返回 ErrVersionConflict，由进度服务重读后重试。
func (r *EnrollmentRepository) UpdateWithVersion(e *model.Enrollment) error {
	result := r.DB.Model(&model.Enrollment{}).
		Where("id = ? AND version = ?", e.ID, e.Version).
		Updates(map[string]interface{}{
			"progress":          e.Progress,
			"completed_lessons": e.CompletedLessons,
			"version":           e.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return util.ErrVersionConflict
	}
	e.Version++
	return nil
}

// CourseStats 讲师看板的单课程聚合
type CourseStats struct {
	EnrollmentCount int64
	AverageProgress float64
	CompletedCount  int64
}

func (r *EnrollmentRepository) GetCourseStats(courseID uint) (*CourseStats, error) {
	var stats CourseStats

	if err := r.DB.Model(&model.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&stats.EnrollmentCount).Error; err != nil {
		return nil, err
	}

	if stats.EnrollmentCount > 0 {
		if err := r.DB.Model(&model.Enrollment{}).
			Where("course_id = ?", courseID).
			Select("AVG(progress)").
			Scan(&stats.AverageProgress).Error; err != nil {
			return nil, err
		}
	}

	if err := r.DB.Model(&model.Enrollment{}).
		Where("course_id = ? AND progress >= ?", courseID, 100).
		Count(&stats.CompletedCount).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
