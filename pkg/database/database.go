package database

import (
	"eduflow_backend/internal/config"
	"eduflow_backend/internal/model"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dbCfg := &cfg.Database
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.DBName,
		dbCfg.Charset,
		dbCfg.ParseTime,
	)

	gormLogLevel := logger.Info
	if cfg.Server.Mode == "release" {
		gormLogLevel = logger.Warn
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	// release 模式默认跳过自动迁移，需通过 -migrate 显式触发
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		err = db.AutoMigrate(
			&model.User{},
			&model.Course{},
			&model.Lesson{},
			&model.Quiz{},
			&model.QuizQuestion{},
			&model.QuizAttempt{},
			&model.Enrollment{},
			&model.Certificate{},
		)

		if err != nil {
			return nil, err
		}

		log.Println("Database migration completed")

		if cfg.Server.Mode != "release" {
			seedDemoData(db)
		}
	}

	return db, nil
}

// seedDemoData 空库时插入演示讲师和示例课程，便于本地起服务后直接联调
func seedDemoData(db *gorm.DB) {
	var userCount int64
	db.Model(&model.User{}).Count(&userCount)
	if userCount > 0 {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("instructor123"), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	instructor := &model.User{
		Name:     "Sarah Chen",
		Email:    "sarah.chen@eduflow.dev",
		Password: string(hashed),
		Role:     model.Instructor,
		Bio:      "Full-stack developer and educator",
	}
	if err := db.Create(instructor).Error; err != nil {
		return
	}

	course := &model.Course{
		Title:           "Introduction to Web Development",
		Description:     "HTML, CSS and JavaScript from scratch",
		InstructorID:    instructor.ID,
		Category:        "programming",
		Level:           "beginner",
		IsPublished:     true,
		Featured:        true,
		DurationMinutes: 240,
	}
	if err := db.Create(course).Error; err != nil {
		return
	}

	lessons := []model.Lesson{
		{CourseID: course.ID, Title: "Getting Started", Type: model.LessonReading, Order: 1},
		{CourseID: course.ID, Title: "HTML Basics", Type: model.LessonVideo, Order: 2},
		{CourseID: course.ID, Title: "CSS Fundamentals", Type: model.LessonVideo, Order: 3},
	}
	for i := range lessons {
		db.Create(&lessons[i])
	}

	correctOption := 1
	correctBool := true
	quiz := &model.Quiz{
		CourseID:     course.ID,
		Title:        "Web Basics Check",
		PassingScore: 70,
	}
	if err := db.Create(quiz).Error; err != nil {
		return
	}
	questions := []model.QuizQuestion{
		{
			QuizID:        quiz.ID,
			Type:          model.MultipleChoice,
			Prompt:        "Which tag defines a hyperlink?",
			Options:       []string{"<p>", "<a>", "<div>"},
			CorrectOption: &correctOption,
			Order:         1,
		},
		{
			QuizID:      quiz.ID,
			Type:        model.TrueFalse,
			Prompt:      "CSS is used to style web pages.",
			CorrectBool: &correctBool,
			Order:       2,
		},
	}
	for i := range questions {
		db.Create(&questions[i])
	}

	log.Println("Demo data seeded")
}
