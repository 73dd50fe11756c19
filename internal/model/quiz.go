package model

import "encoding/json"

// QuestionType 题型判别字段。来源数据中 type 是松散字符串，
// 这里收敛为枚举，未识别的值统一按单选题处理（见 Normalize）。
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple-choice"
	TrueFalse      QuestionType = "true-false"
	FillInBlank    QuestionType = "fill-in-blank"
	ShortAnswer    QuestionType = "short-answer"
	Essay          QuestionType = "essay"
)

// Normalize 把缺失/未知的题型归到单选题，使回退行为成为显式分支。
func (t QuestionType) Normalize() QuestionType {
	switch t {
	case MultipleChoice, TrueFalse, FillInBlank, ShortAnswer, Essay:
		return t
	default:
		return MultipleChoice
	}
}

// swagger:model Quiz
type Quiz struct {
	BaseModel
	CourseID     uint           `gorm:"index;type:bigint unsigned" json:"courseId"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	PassingScore int            `gorm:"default:70" json:"passingScore"` // 0-100 百分比阈值
	Questions    []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizQuestion 答案键按题型取用对应字段：
// 单选题用 CorrectOption，判断题用 CorrectBool，填空题用 CorrectText，
// 简答/论述题用 KeyTerms。其余字段仅用于展示，不参与判分。
// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	QuizID        uint         `gorm:"index;type:bigint unsigned" json:"quizId"`
	Type          QuestionType `gorm:"size:50;default:'multiple-choice'" json:"type"`
	Prompt        string       `gorm:"type:text;not null" json:"prompt"`
	Options       []string     `gorm:"serializer:json" json:"options,omitempty"`
	CorrectOption *int         `json:"correctOption,omitempty"`
	CorrectBool   *bool        `json:"correctBool,omitempty"`
	CorrectText   string       `gorm:"size:255" json:"correctText,omitempty"`
	KeyTerms      []string     `gorm:"serializer:json" json:"keyTerms,omitempty"`
	Explanation   string       `gorm:"type:text" json:"explanation,omitempty"`
	SampleAnswer  string       `gorm:"type:text" json:"sampleAnswer,omitempty"`
	Order         int          `gorm:"default:0" json:"order"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuizAttempt 存储一次测验提交的判分结果
type QuizAttempt struct {
	BaseModel
	StudentID     uint            `gorm:"index;type:bigint unsigned" json:"studentId"`
	QuizID        uint            `gorm:"index;type:bigint unsigned" json:"quizId"`
	Answers       json.RawMessage `gorm:"type:json" json:"answers"`
	CorrectCount  int             `gorm:"default:0" json:"correctCount"`
	ScorePercent  int             `gorm:"default:0" json:"scorePercent"`
	Passed        bool            `gorm:"default:false" json:"passed"`
	AttemptNumber int             `gorm:"default:1" json:"attemptNumber"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
