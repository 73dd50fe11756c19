package service

import (
	"eduflow_backend/internal/model"
	"eduflow_backend/internal/repository"
	"eduflow_backend/internal/util"
	"eduflow_backend/pkg/monitoring"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Answer 一道题的作答内容，按题型取用对应字段：
// 单选题填 Option（选项下标），判断题填 Bool，其余题型填 Text。
type Answer struct {
	Option *int   `json:"option,omitempty"`
	Bool   *bool  `json:"bool,omitempty"`
	Text   string `json:"text,omitempty"`
}

// AnswerSet 0基题目下标 -> 作答。下标缺失即该题未作答。
type AnswerSet map[int]Answer

// GradeResult 一次判分的结果
type GradeResult struct {
	ScorePercent int  `json:"scorePercent"`
	CorrectCount int  `json:"correctCount"`
	Passed       bool `json:"passed"`
}

// EvaluateAnswer 判定单题对错。纯函数，无副作用；
// 答案键或作答字段缺失一律按答错处理，而不是报错。
func EvaluateAnswer(q *model.QuizQuestion, ans Answer) bool {
	switch q.Type.Normalize() {
	case model.TrueFalse:
		return ans.Bool != nil && q.CorrectBool != nil && *ans.Bool == *q.CorrectBool

	case model.FillInBlank:
		// 忽略大小写和首尾空白；空作答永远不算对
		submitted := strings.TrimSpace(ans.Text)
		if submitted == "" {
			return false
		}
		return strings.EqualFold(submitted, strings.TrimSpace(q.CorrectText))

	case model.ShortAnswer, model.Essay:
		// 至少命中一个关键词（不区分大小写的子串匹配）。
		// 题目未配置关键词时一律判错，保持与来源系统一致的保守规则。
		if ans.Text == "" || len(q.KeyTerms) == 0 {
			return false
		}
		lower := strings.ToLower(ans.Text)
		for _, term := range q.KeyTerms {
			if strings.Contains(lower, strings.ToLower(term)) {
				return true
			}
		}
		return false

	default:
		// multiple-choice 以及所有未识别题型：选项下标精确相等
		return ans.Option != nil && q.CorrectOption != nil && *ans.Option == *q.CorrectOption
	}
}

// GradeQuiz 对完整答卷判分。纯函数：相同输入必得相同结果。
// 前置条件：每道题都有作答，否则返回校验错误且不产生任何分数。
func GradeQuiz(quiz *model.Quiz, answers AnswerSet) (*GradeResult, error) {
	total := len(quiz.Questions)
	if total == 0 {
		return nil, util.NewValidationError("quiz has no questions to grade")
	}
	if len(answers) != total {
		return nil, util.NewValidationError("incomplete submission: %d of %d questions answered", len(answers), total)
	}
	for i := 0; i < total; i++ {
		if _, ok := answers[i]; !ok {
			return nil, util.NewValidationError("incomplete submission: question %d is unanswered", i+1)
		}
	}

	correct := 0
	for i := range quiz.Questions {
		if EvaluateAnswer(&quiz.Questions[i], answers[i]) {
			correct++
		}
	}

	// 四舍五入（half-up），与前端 Math.round 一致
	score := int(math.Round(float64(correct) * 100 / float64(total)))

	return &GradeResult{
		ScorePercent: score,
		CorrectCount: correct,
		Passed:       score >= quiz.PassingScore,
	}, nil
}

type QuizService struct {
	QuizRepo   *repository.QuizRepository
	CourseRepo *repository.CourseRepository
}

func NewQuizService(quizRepo *repository.QuizRepository, courseRepo *repository.CourseRepository) *QuizService {
	return &QuizService{QuizRepo: quizRepo, CourseRepo: courseRepo}
}

// StudentQuizQuestion 下发给学生的题目视图，不含答案键
type StudentQuizQuestion struct {
	ID      uint               `json:"id"`
	Type    model.QuestionType `json:"type"`
	Prompt  string             `json:"prompt"`
	Options []string           `json:"options,omitempty"`
	Order   int                `json:"order"`
}

type StudentQuizView struct {
	ID           uint                  `json:"id"`
	CourseID     uint                  `json:"courseId"`
	Title        string                `json:"title"`
	PassingScore int                   `json:"passingScore"`
	Questions    []StudentQuizQuestion `json:"questions"`
}

// GetQuizForStudent 答题页数据：题目按顺序下发，剥离正确答案和关键词
func (s *QuizService) GetQuizForStudent(quizID uint) (*StudentQuizView, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("quiz")
		}
		return nil, util.NewPersistenceError("quiz lookup", err)
	}

	questions := make([]StudentQuizQuestion, len(quiz.Questions))
	for i, q := range quiz.Questions {
		questions[i] = StudentQuizQuestion{
			ID:      q.ID,
			Type:    q.Type.Normalize(),
			Prompt:  q.Prompt,
			Options: q.Options,
			Order:   q.Order,
		}
	}

	return &StudentQuizView{
		ID:           quiz.ID,
		CourseID:     quiz.CourseID,
		Title:        quiz.Title,
		PassingScore: quiz.PassingScore,
		Questions:    questions,
	}, nil
}

// SubmitQuiz 判分并保存一次答题记录。重考就是一次全新的判分，
// 每次提交都会追加新的 QuizAttempt，历史成绩互不影响。
func (s *QuizService) SubmitQuiz(studentID, quizID uint, answers AnswerSet) (*GradeResult, *model.QuizAttempt, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.NewNotFoundError("quiz")
		}
		return nil, nil, util.NewPersistenceError("quiz lookup", err)
	}

	result, err := GradeQuiz(quiz, answers)
	if err != nil {
		return nil, nil, err
	}

	prior, err := s.QuizRepo.CountAttempts(studentID, quizID)
	if err != nil {
		return nil, nil, util.NewPersistenceError("attempt count", err)
	}

	answersJSON, _ := json.Marshal(answers)
	attempt := &model.QuizAttempt{
		StudentID:     studentID,
		QuizID:        quizID,
		Answers:       answersJSON,
		CorrectCount:  result.CorrectCount,
		ScorePercent:  result.ScorePercent,
		Passed:        result.Passed,
		AttemptNumber: int(prior) + 1,
	}
	if err := s.QuizRepo.SaveAttempt(attempt); err != nil {
		return nil, nil, util.NewPersistenceError("attempt save", err)
	}

	monitoring.QuizSubmissions.WithLabelValues(strconv.FormatBool(result.Passed)).Inc()
	return result, attempt, nil
}

func (s *QuizService) ListAttempts(studentID, quizID uint) ([]model.QuizAttempt, error) {
	attempts, err := s.QuizRepo.ListAttempts(studentID, quizID)
	if err != nil {
		return nil, util.NewPersistenceError("attempt list", err)
	}
	return attempts, nil
}

func (s *QuizService) ListByCourse(courseID uint) ([]model.Quiz, error) {
	quizzes, err := s.QuizRepo.ListByCourse(courseID)
	if err != nil {
		return nil, util.NewPersistenceError("quiz list", err)
	}
	return quizzes, nil
}

// checkCourseOwner 测验管理操作要求讲师是所属课程的作者
func (s *QuizService) checkCourseOwner(courseID, instructorID uint) error {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.NewNotFoundError("course")
		}
		return util.NewPersistenceError("course lookup", err)
	}
	if course.InstructorID != instructorID {
		return util.ErrPermissionDenied
	}
	return nil
}

// CreateQuizInput 建测验参数。及格线缺省 70，范围 [0,100]。
type CreateQuizInput struct {
	Title        string `json:"title" binding:"required"`
	PassingScore *int   `json:"passingScore"`
}

func (s *QuizService) CreateQuiz(courseID, instructorID uint, input *CreateQuizInput) (*model.Quiz, error) {
	if err := s.checkCourseOwner(courseID, instructorID); err != nil {
		return nil, err
	}

	quiz := &model.Quiz{
		CourseID:     courseID,
		Title:        input.Title,
		PassingScore: 70,
	}
	if input.PassingScore != nil {
		if *input.PassingScore < 0 || *input.PassingScore > 100 {
			return nil, util.NewValidationError("passing score must be between 0 and 100")
		}
		quiz.PassingScore = *input.PassingScore
	}

	if err := s.QuizRepo.Create(quiz); err != nil {
		return nil, util.NewPersistenceError("quiz create", err)
	}
	return quiz, nil
}

// QuestionInput 题目录入参数，按题型校验对应的答案键字段
type QuestionInput struct {
	Type          model.QuestionType `json:"type"`
	Prompt        string             `json:"prompt" binding:"required"`
	Options       []string           `json:"options"`
	CorrectOption *int               `json:"correctOption"`
	CorrectBool   *bool              `json:"correctBool"`
	CorrectText   string             `json:"correctText"`
	KeyTerms      []string           `json:"keyTerms"`
	Explanation   string             `json:"explanation"`
	SampleAnswer  string             `json:"sampleAnswer"`
	Order         int                `json:"order"`
}

func (in *QuestionInput) validate() error {
	switch in.Type.Normalize() {
	case model.TrueFalse:
		if in.CorrectBool == nil {
			return util.NewValidationError("true-false question requires correctBool")
		}
	case model.FillInBlank:
		if strings.TrimSpace(in.CorrectText) == "" {
			return util.NewValidationError("fill-in-blank question requires correctText")
		}
	case model.ShortAnswer, model.Essay:
		// 关键词可以为空：这种题人工批改前一律判错，录入时只提示不拦截
	default:
		if len(in.Options) < 2 {
			return util.NewValidationError("multiple-choice question requires at least 2 options")
		}
		if in.CorrectOption == nil || *in.CorrectOption < 0 || *in.CorrectOption >= len(in.Options) {
			return util.NewValidationError("correctOption must be a valid option index")
		}
	}
	return nil
}

func (s *QuizService) AddQuestion(quizID, instructorID uint, input *QuestionInput) (*model.QuizQuestion, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("quiz")
		}
		return nil, util.NewPersistenceError("quiz lookup", err)
	}
	if err := s.checkCourseOwner(quiz.CourseID, instructorID); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	question := &model.QuizQuestion{
		QuizID:        quizID,
		Type:          input.Type.Normalize(),
		Prompt:        input.Prompt,
		Options:       input.Options,
		CorrectOption: input.CorrectOption,
		CorrectBool:   input.CorrectBool,
		CorrectText:   input.CorrectText,
		KeyTerms:      input.KeyTerms,
		Explanation:   input.Explanation,
		SampleAnswer:  input.SampleAnswer,
		Order:         input.Order,
	}
	if err := s.QuizRepo.CreateQuestion(question); err != nil {
		return nil, util.NewPersistenceError("question create", err)
	}
	return question, nil
}

func (s *QuizService) UpdateQuestion(questionID, instructorID uint, input *QuestionInput) (*model.QuizQuestion, error) {
	question, err := s.QuizRepo.FindQuestionByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("question")
		}
		return nil, util.NewPersistenceError("question lookup", err)
	}

	quiz, err := s.QuizRepo.FindByID(question.QuizID)
	if err != nil {
		return nil, util.NewPersistenceError("quiz lookup", err)
	}
	if err := s.checkCourseOwner(quiz.CourseID, instructorID); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	question.Type = input.Type.Normalize()
	question.Prompt = input.Prompt
	question.Options = input.Options
	question.CorrectOption = input.CorrectOption
	question.CorrectBool = input.CorrectBool
	question.CorrectText = input.CorrectText
	question.KeyTerms = input.KeyTerms
	question.Explanation = input.Explanation
	question.SampleAnswer = input.SampleAnswer
	question.Order = input.Order

	if err := s.QuizRepo.UpdateQuestion(question); err != nil {
		return nil, util.NewPersistenceError("question update", err)
	}
	return question, nil
}

func (s *QuizService) DeleteQuestion(questionID, instructorID uint) error {
	question, err := s.QuizRepo.FindQuestionByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.NewNotFoundError("question")
		}
		return util.NewPersistenceError("question lookup", err)
	}

	quiz, err := s.QuizRepo.FindByID(question.QuizID)
	if err != nil {
		return util.NewPersistenceError("quiz lookup", err)
	}
	if err := s.checkCourseOwner(quiz.CourseID, instructorID); err != nil {
		return err
	}

	if err := s.QuizRepo.DeleteQuestion(questionID); err != nil {
		return util.NewPersistenceError("question delete", err)
	}
	return nil
}

func (s *QuizService) DeleteQuiz(quizID, instructorID uint) error {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.NewNotFoundError("quiz")
		}
		return util.NewPersistenceError("quiz lookup", err)
	}
	if err := s.checkCourseOwner(quiz.CourseID, instructorID); err != nil {
		return err
	}
	if err := s.QuizRepo.Delete(quizID); err != nil {
		return util.NewPersistenceError("quiz delete", err)
	}
	return nil
}
