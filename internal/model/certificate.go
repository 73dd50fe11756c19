package model

import "time"

// Certificate 结业证书记录。(StudentID, CourseID) 唯一，
// 确保同一报名最多只有一张有效证书；显式重发会覆盖文件但复用本记录。
// swagger:model Certificate
type Certificate struct {
	UUIDBase
	StudentID    uint      `gorm:"uniqueIndex:idx_cert_student_course;type:bigint unsigned" json:"studentId"`
	CourseID     uint      `gorm:"uniqueIndex:idx_cert_student_course;type:bigint unsigned" json:"courseId"`
	StudentName  string    `gorm:"size:100" json:"studentName"` // 签发时的姓名快照
	CourseTitle  string    `gorm:"size:255" json:"courseTitle"` // 签发时的课程名快照
	CompletedAt  time.Time `json:"completedAt"`
	ArtifactURL  string    `gorm:"size:512" json:"artifactUrl"`
	ReissueCount int       `gorm:"default:0" json:"reissueCount"`
}

func (Certificate) TableName() string {
	return "certificates"
}
