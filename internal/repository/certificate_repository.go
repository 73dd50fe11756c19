package repository

import (
	"eduflow_backend/internal/model"

	"gorm.io/gorm"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

func (r *CertificateRepository) Create(cert *model.Certificate) error {
	return r.DB.Create(cert).Error
}

func (r *CertificateRepository) FindByStudentAndCourse(studentID, courseID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&cert).Error
	return &cert, err
}

func (r *CertificateRepository) ListByStudent(studentID uint) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.DB.Where("student_id = ?", studentID).
		Order("completed_at DESC").
		Find(&certs).Error
	return certs, err
}

func (r *CertificateRepository) Update(cert *model.Certificate) error {
	return r.DB.Save(cert).Error
}
