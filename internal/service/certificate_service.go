package service

import (
	"bytes"
	"context"
	"eduflow_backend/internal/config"
	"eduflow_backend/internal/model"
	"eduflow_backend/internal/repository"
	"eduflow_backend/internal/util"
	"errors"
	"fmt"
	"html/template"
	"time"

	"gorm.io/gorm"
)

// CertificateIssuer 证书签发接口。结课协调器只依赖这个最小接口，
// 便于在测试中用假实现替换真实的渲染和上传链路。
type CertificateIssuer interface {
	Issue(ctx context.Context, studentID, courseID uint, studentName, courseTitle string, completedAt time.Time) (*model.Certificate, error)
	Reissue(ctx context.Context, cert *model.Certificate) (*model.Certificate, error)
}

// 证书页面模板。来源系统用前端截图导出，这里改为服务端直接渲染 HTML 工件
const certificateTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Certificate of Completion</title>
<style>
  body { font-family: Georgia, serif; background: #f5f0e8; margin: 0; padding: 60px; }
  .certificate { background: #fff; border: 12px double #b8860b; padding: 80px 60px; text-align: center; max-width: 900px; margin: 0 auto; }
  .academy { font-size: 18px; letter-spacing: 4px; text-transform: uppercase; color: #b8860b; }
  h1 { font-size: 42px; margin: 24px 0; color: #2c2c2c; }
  .subtitle { font-size: 16px; color: #666; }
  .student { font-size: 34px; font-style: italic; margin: 32px 0; color: #1a1a2e; border-bottom: 2px solid #b8860b; display: inline-block; padding: 0 40px 8px; }
  .course { font-size: 24px; font-weight: bold; margin: 24px 0; color: #2c2c2c; }
  .date { margin-top: 40px; color: #666; }
  .serial { margin-top: 24px; font-size: 12px; color: #aaa; }
</style>
</head>
<body>
<div class="certificate">
  <div class="academy">{{.AcademyName}}</div>
  <h1>Certificate of Completion</h1>
  <div class="subtitle">This is to certify that</div>
  <div class="student">{{.StudentName}}</div>
  <div class="subtitle">has successfully completed the course</div>
  <div class="course">{{.CourseTitle}}</div>
  <div class="date">Completed on {{.CompletedAt}}</div>
  <div class="serial">Serial: {{.Serial}}</div>
</div>
</body>
</html>`

type CertificateService struct {
	CertRepo *repository.CertificateRepository
	Storage  *StorageService
	Config   *config.CertificateConfig

	tmpl *template.Template
}

func NewCertificateService(certRepo *repository.CertificateRepository, storage *StorageService, cfg *config.CertificateConfig) *CertificateService {
	return &CertificateService{
		CertRepo: certRepo,
		Storage:  storage,
		Config:   cfg,
		tmpl:     template.Must(template.New("certificate").Parse(certificateTemplate)),
	}
}

// render 生成证书 HTML 工件内容
func (s *CertificateService) render(studentName, courseTitle, serial string, completedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	err := s.tmpl.Execute(&buf, map[string]string{
		"AcademyName": s.Config.AcademyName,
		"StudentName": studentName,
		"CourseTitle": courseTitle,
		"CompletedAt": completedAt.Format("January 2, 2006"),
		"Serial":      serial,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// export 渲染并上传证书文件，返回可访问的工件地址
func (s *CertificateService) export(ctx context.Context, studentName, courseTitle, serial string, completedAt time.Time) (string, error) {
	content, err := s.render(studentName, courseTitle, serial, completedAt)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s/%s.html", s.Config.PathPrefix, serial)
	url, err := s.Storage.Upload(ctx, filename, bytes.NewReader(content), int64(len(content)), util.MimeHTML)
	if err != nil {
		return "", err
	}
	return url, nil
}

// Issue 为一条报名签发证书。姓名和课程名在签发时快照入库，
// 之后改名或改课程标题不影响已发证书。
// (studentID, courseID) 上的唯一索引兜底并发下的重复签发。
func (s *CertificateService) Issue(ctx context.Context, studentID, courseID uint, studentName, courseTitle string, completedAt time.Time) (*model.Certificate, error) {
	serial := model.GenerateUUID()

	url, err := s.export(ctx, studentName, courseTitle, serial, completedAt)
	if err != nil {
		return nil, util.NewCertificateIssuanceError(err)
	}

	cert := &model.Certificate{
		StudentID:   studentID,
		CourseID:    courseID,
		StudentName: studentName,
		CourseTitle: courseTitle,
		CompletedAt: completedAt,
		ArtifactURL: url,
	}
	cert.ID = serial

	if err := s.CertRepo.Create(cert); err != nil {
		return nil, util.NewCertificateIssuanceError(err)
	}
	return cert, nil
}

// Reissue 重新生成已有证书的文件并覆盖工件地址。
// 保留原签发日期和快照，只换新的序列号和文件。
func (s *CertificateService) Reissue(ctx context.Context, cert *model.Certificate) (*model.Certificate, error) {
	serial := model.GenerateUUID()

	url, err := s.export(ctx, cert.StudentName, cert.CourseTitle, serial, cert.CompletedAt)
	if err != nil {
		return nil, util.NewCertificateIssuanceError(err)
	}

	cert.ArtifactURL = url
	cert.ReissueCount++
	if err := s.CertRepo.Update(cert); err != nil {
		return nil, util.NewCertificateIssuanceError(err)
	}
	return cert, nil
}

// FindByStudentAndCourse 查询某报名的证书，不存在时返回资源未找到错误
func (s *CertificateService) FindByStudentAndCourse(studentID, courseID uint) (*model.Certificate, error) {
	cert, err := s.CertRepo.FindByStudentAndCourse(studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("certificate")
		}
		return nil, util.NewPersistenceError("certificate lookup", err)
	}
	return cert, nil
}

// ListByStudent 学生的全部证书
func (s *CertificateService) ListByStudent(studentID uint) ([]model.Certificate, error) {
	certs, err := s.CertRepo.ListByStudent(studentID)
	if err != nil {
		return nil, util.NewPersistenceError("certificate list", err)
	}
	return certs, nil
}
