package service

import (
	"eduflow_backend/internal/model"
	"eduflow_backend/internal/util"
	"fmt"
	"sync"
	"testing"

	"gorm.io/gorm"
)

// fakeEnrollmentStore 内存报名存储，支持注入版本冲突
type fakeEnrollmentStore struct {
	mu          sync.Mutex
	enrollments map[string]*model.Enrollment
	conflicts   int // 前 N 次 UpdateWithVersion 返回版本冲突
	updates     int
}

func key(studentID, courseID uint) string {
	return fmt.Sprintf("%d:%d", studentID, courseID)
}

func newFakeEnrollmentStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{enrollments: make(map[string]*model.Enrollment)}
}

func (f *fakeEnrollmentStore) put(e *model.Enrollment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrollments[key(e.StudentID, e.CourseID)] = e
}

func (f *fakeEnrollmentStore) FindByStudentAndCourse(studentID, courseID uint) (*model.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.enrollments[key(studentID, courseID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeEnrollmentStore) UpdateWithVersion(e *model.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts > 0 {
		f.conflicts--
		return util.ErrVersionConflict
	}
	stored, ok := f.enrollments[key(e.StudentID, e.CourseID)]
	if !ok || stored.Version != e.Version {
		return util.ErrVersionConflict
	}
	updated := *e
	updated.Version++
	f.enrollments[key(e.StudentID, e.CourseID)] = &updated
	e.Version++
	f.updates++
	return nil
}

type fakeLessonCounter struct {
	total int64
	err   error
}

func (f *fakeLessonCounter) CountByCourse(courseID uint) (int64, error) {
	return f.total, f.err
}

func newTestProgressService(store *fakeEnrollmentStore, total int64) *ProgressService {
	return NewProgressService(store, &fakeLessonCounter{total: total})
}

func TestMarkLessonCompleteComputesProgress(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.put(&model.Enrollment{
		BaseModel: model.BaseModel{ID: 1},
		StudentID: 7,
		CourseID:  3,
	})
	svc := newTestProgressService(store, 10)

	update, err := svc.MarkLessonComplete(7, 3, 101)
	if err != nil {
		t.Fatalf("MarkLessonComplete() error = %v", err)
	}
	if !update.Changed {
		t.Error("first completion should report Changed")
	}
	if update.Enrollment.Progress != 10 {
		t.Errorf("progress = %d, want 10 (1 of 10)", update.Enrollment.Progress)
	}
	if update.CourseCompleted {
		t.Error("10 percent progress should not be completed")
	}

	// 3 of 10 -> 30
	if _, err := svc.MarkLessonComplete(7, 3, 102); err != nil {
		t.Fatal(err)
	}
	update, err = svc.MarkLessonComplete(7, 3, 103)
	if err != nil {
		t.Fatal(err)
	}
	if update.Enrollment.Progress != 30 {
		t.Errorf("progress = %d, want 30", update.Enrollment.Progress)
	}
}

func TestMarkLessonCompleteIdempotent(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.put(&model.Enrollment{
		BaseModel: model.BaseModel{ID: 1},
		StudentID: 7,
		CourseID:  3,
	})
	svc := newTestProgressService(store, 4)

	first, err := svc.MarkLessonComplete(7, 3, 101)
	if err != nil {
		t.Fatal(err)
	}
	again, err := svc.MarkLessonComplete(7, 3, 101)
	if err != nil {
		t.Fatal(err)
	}

	if again.Changed {
		t.Error("repeat completion must be a no-op")
	}
	if again.Enrollment.Progress != first.Enrollment.Progress {
		t.Errorf("progress changed on repeat: %d -> %d", first.Enrollment.Progress, again.Enrollment.Progress)
	}
	if store.updates != 1 {
		t.Errorf("store updates = %d, want 1", store.updates)
	}
}

func TestMarkLessonCompleteCrossesCompletion(t *testing.T) {
	store := newFakeEnrollmentStore()
	e := &model.Enrollment{
		BaseModel: model.BaseModel{ID: 1},
		StudentID: 7,
		CourseID:  3,
		Progress:  90,
	}
	e.SetCompletedLessonIDs([]uint{1, 2, 3, 4, 5, 6, 7, 8, 9})
	store.put(e)
	svc := newTestProgressService(store, 10)

	update, err := svc.MarkLessonComplete(7, 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	if update.PreviousProgress != 90 {
		t.Errorf("PreviousProgress = %d, want 90", update.PreviousProgress)
	}
	if update.Enrollment.Progress != 100 {
		t.Errorf("progress = %d, want 100", update.Enrollment.Progress)
	}
	if !update.CourseCompleted {
		t.Error("completing final lesson should mark course completed")
	}

	// 结课后重复完成：幂等空操作，但完成状态照常上报
	again, err := svc.MarkLessonComplete(7, 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	if again.Changed {
		t.Error("repeat completion after 100 percent must be a no-op")
	}
	if !again.CourseCompleted {
		t.Error("no-op at full progress must still report the course as completed")
	}
}

func TestMarkLessonCompleteZeroLessons(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.put(&model.Enrollment{
		BaseModel: model.BaseModel{ID: 1},
		StudentID: 7,
		CourseID:  3,
	})
	svc := newTestProgressService(store, 0)

	update, err := svc.MarkLessonComplete(7, 3, 101)
	if err != nil {
		t.Fatal(err)
	}
	if update.Enrollment.Progress != 0 {
		t.Errorf("progress = %d, want 0 when course has no lessons", update.Enrollment.Progress)
	}
	if update.CourseCompleted {
		t.Error("course with no lessons must never be completed")
	}
}

func TestMarkLessonCompleteProgressClamped(t *testing.T) {
	store := newFakeEnrollmentStore()
	e := &model.Enrollment{
		BaseModel: model.BaseModel{ID: 1},
		StudentID: 7,
		CourseID:  3,
	}
	// 已完成的课时多于当前课时总数（讲师删过课）
	e.SetCompletedLessonIDs([]uint{1, 2, 3, 4, 5})
	store.put(e)
	svc := newTestProgressService(store, 4)

	update, err := svc.MarkLessonComplete(7, 3, 6)
	if err != nil {
		t.Fatal(err)
	}
	if update.Enrollment.Progress != 100 {
		t.Errorf("progress = %d, want clamped to 100", update.Enrollment.Progress)
	}
}

func TestMarkLessonCompleteRetriesOnVersionConflict(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.put(&model.Enrollment{
		BaseModel: model.BaseModel{ID: 1},
		StudentID: 7,
		CourseID:  3,
	})
	store.conflicts = 2 // 前两次提交失败，第三次成功
	svc := newTestProgressService(store, 2)

	update, err := svc.MarkLessonComplete(7, 3, 101)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if update.Enrollment.Progress != 50 {
		t.Errorf("progress = %d, want 50", update.Enrollment.Progress)
	}
}

func TestMarkLessonCompleteRetriesExhausted(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.put(&model.Enrollment{
		BaseModel: model.BaseModel{ID: 1},
		StudentID: 7,
		CourseID:  3,
	})
	store.conflicts = maxProgressRetries
	svc := newTestProgressService(store, 2)

	_, err := svc.MarkLessonComplete(7, 3, 101)
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if !util.IsPersistenceError(err) {
		t.Errorf("error = %T, want PersistenceError", err)
	}
}

func TestMarkLessonCompleteUnknownEnrollment(t *testing.T) {
	svc := newTestProgressService(newFakeEnrollmentStore(), 10)

	_, err := svc.MarkLessonComplete(1, 2, 3)
	if !util.IsNotFoundError(err) {
		t.Errorf("error = %T, want NotFoundError", err)
	}
}

func TestMarkLessonCompleteConcurrentDistinctLessons(t *testing.T) {
	store := newFakeEnrollmentStore()
	store.put(&model.Enrollment{
		BaseModel: model.BaseModel{ID: 1},
		StudentID: 7,
		CourseID:  3,
	})
	svc := newTestProgressService(store, 10)

	var wg sync.WaitGroup
	for i := 1; i <= 5; i++ {
		wg.Add(1)
		go func(lessonID uint) {
			defer wg.Done()
			if _, err := svc.MarkLessonComplete(7, 3, lessonID); err != nil {
				t.Errorf("MarkLessonComplete(%d) error = %v", lessonID, err)
			}
		}(uint(i))
	}
	wg.Wait()

	final, err := store.FindByStudentAndCourse(7, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(final.CompletedLessonIDs()); got != 5 {
		t.Errorf("completed lessons = %d, want 5 (lost update)", got)
	}
	if final.Progress != 50 {
		t.Errorf("progress = %d, want 50", final.Progress)
	}
}

func TestMarkLessonCompleteConcurrentEnrollments(t *testing.T) {
	// 不同报名并发更新互不干扰（条带锁哈希碰撞也只是串行，不丢更新）
	store := newFakeEnrollmentStore()
	for studentID := uint(1); studentID <= 8; studentID++ {
		store.put(&model.Enrollment{
			BaseModel: model.BaseModel{ID: studentID},
			StudentID: studentID,
			CourseID:  3,
		})
	}
	svc := newTestProgressService(store, 2)

	var wg sync.WaitGroup
	for studentID := uint(1); studentID <= 8; studentID++ {
		wg.Add(1)
		go func(studentID uint) {
			defer wg.Done()
			if _, err := svc.MarkLessonComplete(studentID, 3, 101); err != nil {
				t.Errorf("MarkLessonComplete(student %d) error = %v", studentID, err)
			}
		}(studentID)
	}
	wg.Wait()

	for studentID := uint(1); studentID <= 8; studentID++ {
		e, err := store.FindByStudentAndCourse(studentID, 3)
		if err != nil {
			t.Fatal(err)
		}
		if e.Progress != 50 {
			t.Errorf("student %d progress = %d, want 50", studentID, e.Progress)
		}
	}
}

func TestComputeProgressTable(t *testing.T) {
	tests := []struct {
		completed int
		total     int64
		want      int
	}{
		{0, 10, 0},
		{1, 10, 10},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{5, 4, 100}, // 超出截断
		{1, 0, 0},   // 无课时
		{0, -1, 0},
	}
	for _, tt := range tests {
		if got := computeProgress(tt.completed, tt.total); got != tt.want {
			t.Errorf("computeProgress(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}
