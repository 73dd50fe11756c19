package repository

import (
	"eduflow_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.Preload("Instructor").First(&course, id).Error
	return &course, err
}

// FindByIDWithLessons 课程详情页需要按顺序附带课时列表
func (r *CourseRepository) FindByIDWithLessons(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.Preload("Instructor").
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.`order` ASC")
		}).
		First(&course, id).Error
	return &course, err
}

// List 课程目录查询：分类过滤 + 标题模糊搜索，只返回已发布课程
func (r *CourseRepository) List(page, limit int, category, search string) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	query := r.DB.Model(&model.Course{}).Where("is_published = ?", true)
	if category != "" && category != "all" {
		query = query.Where("category = ?", category)
	}
	if search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Instructor").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) ListFeatured(limit int) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("is_published = ? AND featured = ?", true, true).
		Preload("Instructor").
		Order("rating DESC").Limit(limit).
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) ListByInstructor(instructorID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("instructor_id = ?", instructorID).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Course{}, id).Error
}

func (r *CourseRepository) IncrementEnrollmentCount(id uint) error {
	return r.DB.Model(&model.Course{}).Where("id = ?", id).
		UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + 1")).Error
}

func (r *CourseRepository) GetTitle(id uint) (string, error) {
	var title string
	err := r.DB.Model(&model.Course{}).Where("id = ?", id).
		Pluck("title", &title).Error
	return title, err
}
