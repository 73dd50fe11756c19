package repository

import (
	"eduflow_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

// FindByID 判分需要题目按录入顺序排列，答卷用 0 基题目下标索引
func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("quiz_questions.`order` ASC, quiz_questions.id ASC")
	}).First(&quiz, id).Error
	return &quiz, err
}

func (r *QuizRepository) ListByCourse(courseID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

func (r *QuizRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Quiz{}, id).Error
}

func (r *QuizRepository) CreateQuestion(q *model.QuizQuestion) error {
	return r.DB.Create(q).Error
}

func (r *QuizRepository) FindQuestionByID(id uint) (*model.QuizQuestion, error) {
	var q model.QuizQuestion
	err := r.DB.First(&q, id).Error
	return &q, err
}

func (r *QuizRepository) UpdateQuestion(q *model.QuizQuestion) error {
	return r.DB.Save(q).Error
}

func (r *QuizRepository) DeleteQuestion(id uint) error {
	return r.DB.Delete(&model.QuizQuestion{}, id).Error
}

func (r *QuizRepository) SaveAttempt(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *QuizRepository) CountAttempts(studentID, quizID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Count(&count).Error
	return count, err
}

func (r *QuizRepository) ListAttempts(studentID, quizID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Order("created_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *QuizRepository) ListRecentAttemptsByCourse(courseID uint, limit int) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Where("quizzes.course_id = ?", courseID).
		Order("quiz_attempts.created_at DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}
