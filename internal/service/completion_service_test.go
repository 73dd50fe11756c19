package service

import (
	"context"
	"eduflow_backend/internal/model"
	"eduflow_backend/internal/util"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

// fakeIssuer 记录签发调用，支持注入失败
type fakeIssuer struct {
	issued   []*model.Certificate
	reissues int
	fail     bool
}

func (f *fakeIssuer) Issue(ctx context.Context, studentID, courseID uint, studentName, courseTitle string, completedAt time.Time) (*model.Certificate, error) {
	if f.fail {
		return nil, util.NewCertificateIssuanceError(errors.New("render failed"))
	}
	cert := &model.Certificate{
		StudentID:   studentID,
		CourseID:    courseID,
		StudentName: studentName,
		CourseTitle: courseTitle,
		CompletedAt: completedAt,
	}
	f.issued = append(f.issued, cert)
	return cert, nil
}

func (f *fakeIssuer) Reissue(ctx context.Context, cert *model.Certificate) (*model.Certificate, error) {
	if f.fail {
		return nil, util.NewCertificateIssuanceError(errors.New("render failed"))
	}
	f.reissues++
	cert.ReissueCount++
	return cert, nil
}

// fakeCertStore 内存证书存储
type fakeCertStore struct {
	certs map[string]*model.Certificate
}

func newFakeCertStore() *fakeCertStore {
	return &fakeCertStore{certs: make(map[string]*model.Certificate)}
}

func (f *fakeCertStore) put(c *model.Certificate) {
	f.certs[key(c.StudentID, c.CourseID)] = c
}

func (f *fakeCertStore) FindByStudentAndCourse(studentID, courseID uint) (*model.Certificate, error) {
	c, ok := f.certs[key(studentID, courseID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

type fakeStudentDirectory struct{}

func (fakeStudentDirectory) FindByID(id uint) (*model.User, error) {
	return &model.User{BaseModel: model.BaseModel{ID: id}, Name: "Alex Rivera"}, nil
}

type fakeCourseTitler struct{}

func (fakeCourseTitler) GetTitle(id uint) (string, error) {
	return "Intro to Go", nil
}

// syncedCertStore 让内存证书表跟随签发自动写入，模拟真实存储行为
type syncedIssuer struct {
	*fakeIssuer
	store *fakeCertStore
}

func (s *syncedIssuer) Issue(ctx context.Context, studentID, courseID uint, studentName, courseTitle string, completedAt time.Time) (*model.Certificate, error) {
	cert, err := s.fakeIssuer.Issue(ctx, studentID, courseID, studentName, courseTitle, completedAt)
	if err != nil {
		return nil, err
	}
	s.store.put(cert)
	return cert, nil
}

func newCompletionFixture(totalLessons int64, completed []uint) (*CompletionService, *fakeEnrollmentStore, *fakeIssuer, *fakeCertStore) {
	enrollStore := newFakeEnrollmentStore()
	e := &model.Enrollment{
		BaseModel: model.BaseModel{ID: 1},
		StudentID: 7,
		CourseID:  3,
	}
	if len(completed) > 0 {
		e.SetCompletedLessonIDs(completed)
		e.Progress = computeProgress(len(completed), totalLessons)
	}
	enrollStore.put(e)

	issuer := &fakeIssuer{}
	certStore := newFakeCertStore()
	svc := NewCompletionService(
		newTestProgressService(enrollStore, totalLessons),
		&syncedIssuer{fakeIssuer: issuer, store: certStore},
		certStore,
		fakeStudentDirectory{},
		fakeCourseTitler{},
	)
	return svc, enrollStore, issuer, certStore
}

func TestOnLessonCompletedIssuesCertificateOnce(t *testing.T) {
	svc, _, issuer, _ := newCompletionFixture(2, []uint{1})

	outcome, err := svc.OnLessonCompleted(context.Background(), 7, 3, 2)
	if err != nil {
		t.Fatalf("OnLessonCompleted() error = %v", err)
	}
	if !outcome.CourseCompleted {
		t.Fatal("completing final lesson should complete the course")
	}
	if outcome.Certificate == nil {
		t.Fatal("certificate should be issued on completion")
	}
	if outcome.Certificate.StudentName != "Alex Rivera" || outcome.Certificate.CourseTitle != "Intro to Go" {
		t.Errorf("certificate snapshots = %q / %q", outcome.Certificate.StudentName, outcome.Certificate.CourseTitle)
	}
	if len(issuer.issued) != 1 {
		t.Errorf("issued count = %d, want 1", len(issuer.issued))
	}

	// 重复完成同一课时：幂等，不再签发
	outcome, err = svc.OnLessonCompleted(context.Background(), 7, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.CourseCompleted {
		t.Error("repeat completion must still report the course as completed")
	}
	if outcome.Certificate != nil {
		t.Error("repeat completion must not attach a new certificate")
	}
	if len(issuer.issued) != 1 {
		t.Errorf("issued count after repeat = %d, want 1", len(issuer.issued))
	}
}

func TestOnLessonCompletedNoCertificateBeforeCompletion(t *testing.T) {
	svc, _, issuer, _ := newCompletionFixture(10, nil)

	outcome, err := svc.OnLessonCompleted(context.Background(), 7, 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.CourseCompleted {
		t.Error("1 of 10 lessons should not complete the course")
	}
	if outcome.Certificate != nil || len(issuer.issued) != 0 {
		t.Error("certificate must not be issued before completion")
	}
}

func TestOnLessonCompletedIssuanceFailureIsNonFatal(t *testing.T) {
	svc, enrollStore, issuer, _ := newCompletionFixture(1, nil)
	issuer.fail = true

	outcome, err := svc.OnLessonCompleted(context.Background(), 7, 3, 1)
	if err != nil {
		t.Fatalf("issuance failure must not fail the operation, got %v", err)
	}
	if !outcome.CourseCompleted {
		t.Error("course should still be completed")
	}
	if outcome.CertificateError == nil {
		t.Error("outcome should carry the issuance error as a warning")
	}

	// 进度已落库
	e, err := enrollStore.FindByStudentAndCourse(7, 3)
	if err != nil {
		t.Fatal(err)
	}
	if e.Progress != 100 {
		t.Errorf("progress = %d, want 100 despite issuance failure", e.Progress)
	}
}

func TestOnLessonCompletedExistingCertificateNotDuplicated(t *testing.T) {
	svc, _, issuer, certStore := newCompletionFixture(2, []uint{1})
	existing := &model.Certificate{StudentID: 7, CourseID: 3, StudentName: "Alex Rivera"}
	certStore.put(existing)

	outcome, err := svc.OnLessonCompleted(context.Background(), 7, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Certificate != existing {
		t.Error("existing certificate should be returned instead of issuing a new one")
	}
	if len(issuer.issued) != 0 {
		t.Errorf("issued count = %d, want 0", len(issuer.issued))
	}
}

func TestReissueCertificateRequiresCompletion(t *testing.T) {
	svc, _, _, _ := newCompletionFixture(10, []uint{1, 2})

	_, err := svc.ReissueCertificate(context.Background(), 7, 3)
	if !util.IsValidationError(err) {
		t.Errorf("error = %T, want ValidationError for incomplete course", err)
	}
}

func TestReissueCertificateRegeneratesExisting(t *testing.T) {
	svc, _, issuer, certStore := newCompletionFixture(2, []uint{1, 2})
	certStore.put(&model.Certificate{StudentID: 7, CourseID: 3})

	cert, err := svc.ReissueCertificate(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("ReissueCertificate() error = %v", err)
	}
	if issuer.reissues != 1 {
		t.Errorf("reissues = %d, want 1", issuer.reissues)
	}
	if cert.ReissueCount != 1 {
		t.Errorf("ReissueCount = %d, want 1", cert.ReissueCount)
	}
}

func TestReissueCertificateBackfillsMissing(t *testing.T) {
	// 首次签发失败后证书缺失，重发接口补发而不是报错
	svc, _, issuer, _ := newCompletionFixture(2, []uint{1, 2})

	cert, err := svc.ReissueCertificate(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("ReissueCertificate() error = %v", err)
	}
	if cert == nil || len(issuer.issued) != 1 {
		t.Errorf("expected backfill issuance, issued = %d", len(issuer.issued))
	}
}

func TestReissueCertificateUnknownEnrollment(t *testing.T) {
	svc, _, _, _ := newCompletionFixture(2, nil)

	_, err := svc.ReissueCertificate(context.Background(), 99, 98)
	if !util.IsNotFoundError(err) {
		t.Errorf("error = %T, want NotFoundError", err)
	}
}
