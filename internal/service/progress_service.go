package service

import (
	"eduflow_backend/internal/model"
	"eduflow_backend/internal/util"
	"eduflow_backend/pkg/logger"
	"errors"
	"math"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EnrollmentStore 进度服务对报名存储的最小依赖，由 EnrollmentRepository 实现。
// 报名记录只归存储层所有，进度服务每次都重读最新状态，从不跨调用缓存。
type EnrollmentStore interface {
	FindByStudentAndCourse(studentID, courseID uint) (*model.Enrollment, error)
	UpdateWithVersion(e *model.Enrollment) error
}

// LessonCounter 课时总数的实时查询，由 LessonRepository 实现
type LessonCounter interface {
	CountByCourse(courseID uint) (int64, error)
}

// ProgressUpdate 一次课时完成调用的结果
type ProgressUpdate struct {
	Enrollment       *model.Enrollment `json:"enrollment"`
	PreviousProgress int               `json:"previousProgress"`
	CourseCompleted  bool              `json:"courseCompleted"`
	Changed          bool              `json:"changed"` // false 表示课时此前已完成，本次为幂等空操作
}

// 乐观锁冲突的有限重试次数，吸收瞬时并发冲突
const maxProgressRetries = 3

// 串行化锁的固定条带数。锁按 (student, course) 哈希到条带上，
// 内存占用不随报名数增长；哈希碰撞只会让无关报名偶尔串行，不影响正确性
const progressLockStripes = 64

type ProgressService struct {
	Enrollments EnrollmentStore
	Lessons     LessonCounter

	locks [progressLockStripes]sync.Mutex
}

func NewProgressService(enrollments EnrollmentStore, lessons LessonCounter) *ProgressService {
	return &ProgressService{
		Enrollments: enrollments,
		Lessons:     lessons,
	}
}

func (s *ProgressService) enrollmentLock(studentID, courseID uint) *sync.Mutex {
	idx := (uint64(studentID)*2654435761 + uint64(courseID)) % progressLockStripes
	return &s.locks[idx]
}

// computeProgress 派生进度：round(100 * 已完成数 / 总数)，截断到 [0,100]。
// 总数为 0 的课程（尚未录入课时）进度恒为 0，永远不会判定完成。
func computeProgress(completedCount int, totalLessons int64) int {
	if totalLessons <= 0 {
		return 0
	}
	p := int(math.Round(float64(completedCount) * 100 / float64(totalLessons)))
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p
}

// MarkLessonComplete 把课时计入完成集合并重算进度。
// 同一报名的更新先用进程内锁串行化，再经乐观锁落库；
// 版本冲突时重读当前状态后重试，保证并发完成不同课时不会丢更新。
// 重复完成同一课时是幂等空操作，不会再次触发完成事件。
func (s *ProgressService) MarkLessonComplete(studentID, courseID, lessonID uint) (*ProgressUpdate, error) {
	lock := s.enrollmentLock(studentID, courseID)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxProgressRetries; attempt++ {
		// 每轮都重读，拿到其他在途调用可能刚写入的完成集合
		enrollment, err := s.Enrollments.FindByStudentAndCourse(studentID, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.NewNotFoundError("enrollment")
			}
			return nil, util.NewPersistenceError("enrollment lookup", err)
		}

		if enrollment.HasCompletedLesson(lessonID) {
			return &ProgressUpdate{
				Enrollment:       enrollment,
				PreviousProgress: enrollment.Progress,
				CourseCompleted:  enrollment.Progress >= 100,
				Changed:          false,
			}, nil
		}

		total, err := s.Lessons.CountByCourse(courseID)
		if err != nil {
			return nil, util.NewPersistenceError("lesson count", err)
		}

		previous := enrollment.Progress
		completed := append(enrollment.CompletedLessonIDs(), lessonID)
		enrollment.SetCompletedLessonIDs(completed)
		enrollment.Progress = computeProgress(len(completed), total)

		if err := s.Enrollments.UpdateWithVersion(enrollment); err != nil {
			if errors.Is(err, util.ErrVersionConflict) {
				lastErr = err
				logger.Log.Debug("enrollment version conflict, retrying",
					zap.Uint("studentId", studentID),
					zap.Uint("courseId", courseID),
					zap.Int("attempt", attempt+1),
				)
				continue
			}
			return nil, util.NewPersistenceError("enrollment update", err)
		}

		return &ProgressUpdate{
			Enrollment:       enrollment,
			PreviousProgress: previous,
			CourseCompleted:  enrollment.Progress >= 100,
			Changed:          true,
		}, nil
	}

	return nil, util.NewPersistenceError("enrollment update", lastErr)
}
