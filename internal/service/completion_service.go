package service

import (
	"context"
	"eduflow_backend/internal/model"
	"eduflow_backend/internal/util"
	"eduflow_backend/pkg/logger"
	"eduflow_backend/pkg/monitoring"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompletionOutcome 一次课时完成调用对外的完整结果。
// CertificateError 非空表示进度已成功落库但证书签发失败，
// 调用方应将其作为警告透出，而不是整体报错。
type CompletionOutcome struct {
	Enrollment       *model.Enrollment  `json:"enrollment"`
	Progress         int                `json:"progress"`
	CourseCompleted  bool               `json:"courseCompleted"`
	Certificate      *model.Certificate `json:"certificate,omitempty"`
	CertificateError error              `json:"-"`
}

// CertificateStore 协调器对证书存储的只读依赖，由 CertificateRepository 实现
type CertificateStore interface {
	FindByStudentAndCourse(studentID, courseID uint) (*model.Certificate, error)
}

// StudentDirectory 签发时查询学生姓名快照，由 UserRepository 实现
type StudentDirectory interface {
	FindByID(id uint) (*model.User, error)
}

// CourseTitler 签发时查询课程名快照，由 CourseRepository 实现
type CourseTitler interface {
	GetTitle(id uint) (string, error)
}

// CompletionService 结课协调器：课时完成 -> 进度更新 -> 结课时机的证书签发。
// 证书只在进度从 <100 跨到 >=100 的那一次调用中签发，
// 之后重复完成课时不会重复发证。
type CompletionService struct {
	Progress *ProgressService
	Issuer   CertificateIssuer
	Certs    CertificateStore
	Users    StudentDirectory
	Courses  CourseTitler
}

func NewCompletionService(
	progress *ProgressService,
	issuer CertificateIssuer,
	certs CertificateStore,
	users StudentDirectory,
	courses CourseTitler,
) *CompletionService {
	return &CompletionService{
		Progress: progress,
		Issuer:   issuer,
		Certs:    certs,
		Users:    users,
		Courses:  courses,
	}
}

// OnLessonCompleted 处理一次课时完成。
// 进度更新是主事务，必须成功；证书签发是后置动作，
// 失败只记录并透出警告，进度不回滚。
func (s *CompletionService) OnLessonCompleted(ctx context.Context, studentID, courseID, lessonID uint) (*CompletionOutcome, error) {
	update, err := s.Progress.MarkLessonComplete(studentID, courseID, lessonID)
	if err != nil {
		return nil, err
	}

	outcome := &CompletionOutcome{
		Enrollment:      update.Enrollment,
		Progress:        update.Enrollment.Progress,
		CourseCompleted: update.CourseCompleted,
	}

	// 只有本次调用把进度推过 100 才签发，幂等空操作和早已结课的情况都跳过
	crossed := update.Changed && update.CourseCompleted && update.PreviousProgress < 100
	if !crossed {
		return outcome, nil
	}

	cert, certErr := s.issueForEnrollment(ctx, studentID, courseID)
	if certErr != nil {
		logger.Log.Warn("课程已结课但证书签发失败",
			zap.Uint("studentId", studentID),
			zap.Uint("courseId", courseID),
			zap.Error(certErr),
		)
		monitoring.CertificateIssued.WithLabelValues("failure").Inc()
		outcome.CertificateError = certErr
		return outcome, nil
	}

	monitoring.CertificateIssued.WithLabelValues("success").Inc()
	outcome.Certificate = cert
	return outcome, nil
}

// issueForEnrollment 为结课报名签发证书。已有证书时直接返回现有记录，
// 与数据库唯一索引一起保证同一报名最多签发一次。
func (s *CompletionService) issueForEnrollment(ctx context.Context, studentID, courseID uint) (*model.Certificate, error) {
	existing, err := s.Certs.FindByStudentAndCourse(studentID, courseID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.NewCertificateIssuanceError(err)
	}

	student, err := s.Users.FindByID(studentID)
	if err != nil {
		return nil, util.NewCertificateIssuanceError(err)
	}
	courseTitle, err := s.Courses.GetTitle(courseID)
	if err != nil {
		return nil, util.NewCertificateIssuanceError(err)
	}

	return s.Issuer.Issue(ctx, studentID, courseID, student.Name, courseTitle, time.Now())
}

// ReissueCertificate 显式重发证书。要求课程确已结课（进度 >= 100）；
// 证书记录存在时重新生成文件，不存在时补发（覆盖首次签发失败的情况）。
func (s *CompletionService) ReissueCertificate(ctx context.Context, studentID, courseID uint) (*model.Certificate, error) {
	enrollment, err := s.Progress.Enrollments.FindByStudentAndCourse(studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("enrollment")
		}
		return nil, util.NewPersistenceError("enrollment lookup", err)
	}
	if enrollment.Progress < 100 {
		return nil, util.NewValidationError("course is not completed yet (progress %d%%)", enrollment.Progress)
	}

	existing, err := s.Certs.FindByStudentAndCourse(studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.issueForEnrollment(ctx, studentID, courseID)
		}
		return nil, util.NewPersistenceError("certificate lookup", err)
	}

	return s.Issuer.Reissue(ctx, existing)
}
