package model

import (
	"strconv"
	"strings"
	"time"
)

// Enrollment 一条 (学生, 课程) 报名记录。
// Progress 是派生值：round(100 * 已完成课时数 / 课程课时总数)，不由调用方直接写入。
// CompletedLessons 与来源数据保持同样的逗号分隔存储格式。
// Version 用于乐观锁，防止并发课时完成更新互相覆盖。
// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	StudentID        uint      `gorm:"uniqueIndex:idx_student_course;type:bigint unsigned" json:"studentId"`
	CourseID         uint      `gorm:"uniqueIndex:idx_student_course;type:bigint unsigned" json:"courseId"`
	Progress         int       `gorm:"default:0" json:"progress"`
	CompletedLessons string    `gorm:"type:text" json:"-"`
	EnrolledAt       time.Time `json:"enrolledAt"`
	Version          int       `gorm:"default:0" json:"-"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// CompletedLessonIDs 解析 CSV 存储，忽略非法片段。
func (e *Enrollment) CompletedLessonIDs() []uint {
	if e.CompletedLessons == "" {
		return nil
	}
	parts := strings.Split(e.CompletedLessons, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint(n))
	}
	return ids
}

// HasCompletedLesson 集合成员判断
func (e *Enrollment) HasCompletedLesson(lessonID uint) bool {
	for _, id := range e.CompletedLessonIDs() {
		if id == lessonID {
			return true
		}
	}
	return false
}

// SetCompletedLessonIDs 以 CSV 形式写回完成集合
func (e *Enrollment) SetCompletedLessonIDs(ids []uint) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	e.CompletedLessons = strings.Join(parts, ",")
}
