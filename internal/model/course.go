package model

// 课程目录模型：字段与前端课程卡片/详情页一一对应

// swagger:model Course
type Course struct {
	BaseModel
	Title           string  `gorm:"size:255;not null" json:"title"`
	Description     string  `gorm:"type:text" json:"description"`
	LongDescription string  `gorm:"type:text" json:"longDescription"`
	InstructorID    uint    `gorm:"index;type:bigint unsigned" json:"instructorId"`
	Instructor      *User   `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Category        string  `gorm:"size:100;index" json:"category"`
	Level           string  `gorm:"size:50" json:"level"` // beginner, intermediate, advanced
	Price           float64 `gorm:"default:0" json:"price"`
	Thumbnail       string  `gorm:"size:255" json:"thumbnail"`
	Rating          float64 `gorm:"default:0" json:"rating"`
	EnrollmentCount int     `gorm:"default:0" json:"enrollmentCount"`
	DurationMinutes int     `gorm:"default:0" json:"durationMinutes"`
	IsPublished     bool    `gorm:"default:false" json:"isPublished"`
	Featured        bool    `gorm:"default:false" json:"featured"`
	Lessons         []Lesson `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

type LessonType string

const (
	LessonVideo   LessonType = "video"
	LessonReading LessonType = "reading"
	LessonPDF     LessonType = "pdf"
)

// swagger:model Lesson
type Lesson struct {
	BaseModel
	CourseID        uint       `gorm:"index;type:bigint unsigned" json:"courseId"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Type            LessonType `gorm:"type:enum('video','reading','pdf');default:'video'" json:"type"`
	Content         string     `gorm:"type:text" json:"content"` // 正文或资源URL
	DurationSeconds int        `gorm:"default:0" json:"durationSeconds"`
	Order           int        `gorm:"default:0" json:"order"`
}

func (Lesson) TableName() string {
	return "lessons"
}
