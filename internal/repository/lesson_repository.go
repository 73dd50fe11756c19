package repository

import (
	"eduflow_backend/internal/model"

	"gorm.io/gorm"
)

type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

func (r *LessonRepository) Create(lesson *model.Lesson) error {
	return r.DB.Create(lesson).Error
}

func (r *LessonRepository) FindByID(id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.First(&lesson, id).Error
	return &lesson, err
}

func (r *LessonRepository) ListByCourse(courseID uint) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.Where("course_id = ?", courseID).
		Order("`order` ASC").
		Find(&lessons).Error
	return lessons, err
}

// CountByCourse 课程当前课时总数。进度百分比的分母每次计算时实时查询，
// 课程增删课时后进度会随之重算，而不是沿用报名时的快照。
func (r *LessonRepository) CountByCourse(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Lesson{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

func (r *LessonRepository) Update(lesson *model.Lesson) error {
	return r.DB.Save(lesson).Error
}

func (r *LessonRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Lesson{}, id).Error
}
