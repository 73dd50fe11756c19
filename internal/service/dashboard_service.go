package service

import (
	"eduflow_backend/internal/model"
	"eduflow_backend/internal/repository"
	"eduflow_backend/internal/util"
)

type DashboardService struct {
	EnrollRepo *repository.EnrollmentRepository
	CourseRepo *repository.CourseRepository
	QuizRepo   *repository.QuizRepository
	CertRepo   *repository.CertificateRepository
}

func NewDashboardService(
	enrollRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	quizRepo *repository.QuizRepository,
	certRepo *repository.CertificateRepository,
) *DashboardService {
	return &DashboardService{
		EnrollRepo: enrollRepo,
		CourseRepo: courseRepo,
		QuizRepo:   quizRepo,
		CertRepo:   certRepo,
	}
}

// StudentDashboard 学生首页数据
type StudentDashboard struct {
	Enrollments      []StudentCourseCard `json:"enrollments"`
	CompletedCourses int                 `json:"completedCourses"`
	Certificates     []model.Certificate `json:"certificates"`
}

// StudentCourseCard 在读课程卡片
type StudentCourseCard struct {
	CourseID    uint   `json:"courseId"`
	CourseTitle string `json:"courseTitle"`
	Thumbnail   string `json:"thumbnail"`
	Progress    int    `json:"progress"`
	Completed   bool   `json:"completed"`
}

func (s *DashboardService) GetStudentDashboard(studentID uint) (*StudentDashboard, error) {
	enrollments, err := s.EnrollRepo.ListByStudent(studentID)
	if err != nil {
		return nil, util.NewPersistenceError("enrollment list", err)
	}

	dashboard := &StudentDashboard{
		Enrollments: make([]StudentCourseCard, 0, len(enrollments)),
	}
	for _, e := range enrollments {
		card := StudentCourseCard{
			CourseID:  e.CourseID,
			Progress:  e.Progress,
			Completed: e.Progress >= 100,
		}
		if card.Completed {
			dashboard.CompletedCourses++
		}
		if course, err := s.CourseRepo.FindByID(e.CourseID); err == nil {
			card.CourseTitle = course.Title
			card.Thumbnail = course.Thumbnail
		}
		dashboard.Enrollments = append(dashboard.Enrollments, card)
	}

	certs, err := s.CertRepo.ListByStudent(studentID)
	if err != nil {
		return nil, util.NewPersistenceError("certificate list", err)
	}
	dashboard.Certificates = certs

	return dashboard, nil
}

// InstructorCourseStats 讲师看板里单个课程的聚合指标
type InstructorCourseStats struct {
	CourseID        uint                `json:"courseId"`
	CourseTitle     string              `json:"courseTitle"`
	IsPublished     bool                `json:"isPublished"`
	EnrollmentCount int64               `json:"enrollmentCount"`
	AverageProgress float64             `json:"averageProgress"`
	CompletedCount  int64               `json:"completedCount"`
	RecentAttempts  []model.QuizAttempt `json:"recentAttempts"`
}

// InstructorDashboard 讲师看板
type InstructorDashboard struct {
	Courses          []InstructorCourseStats `json:"courses"`
	TotalEnrollments int64                   `json:"totalEnrollments"`
}

const recentAttemptLimit = 10

func (s *DashboardService) GetInstructorDashboard(instructorID uint) (*InstructorDashboard, error) {
	courses, err := s.CourseRepo.ListByInstructor(instructorID)
	if err != nil {
		return nil, util.NewPersistenceError("instructor course list", err)
	}

	dashboard := &InstructorDashboard{
		Courses: make([]InstructorCourseStats, 0, len(courses)),
	}
	for _, course := range courses {
		stats, err := s.EnrollRepo.GetCourseStats(course.ID)
		if err != nil {
			return nil, util.NewPersistenceError("course stats", err)
		}

		attempts, err := s.QuizRepo.ListRecentAttemptsByCourse(course.ID, recentAttemptLimit)
		if err != nil {
			return nil, util.NewPersistenceError("recent attempts", err)
		}

		dashboard.Courses = append(dashboard.Courses, InstructorCourseStats{
			CourseID:        course.ID,
			CourseTitle:     course.Title,
			IsPublished:     course.IsPublished,
			EnrollmentCount: stats.EnrollmentCount,
			AverageProgress: stats.AverageProgress,
			CompletedCount:  stats.CompletedCount,
			RecentAttempts:  attempts,
		})
		dashboard.TotalEnrollments += stats.EnrollmentCount
	}

	return dashboard, nil
}
