package service

import (
	"eduflow_backend/internal/model"
	"eduflow_backend/internal/util"
	"eduflow_backend/pkg/logger"
	"os"
	"testing"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestEvaluateAnswerMultipleChoice(t *testing.T) {
	q := &model.QuizQuestion{
		Type:          model.MultipleChoice,
		Options:       []string{"a", "b", "c"},
		CorrectOption: intPtr(1),
	}

	tests := []struct {
		name string
		ans  Answer
		want bool
	}{
		{"correct index", Answer{Option: intPtr(1)}, true},
		{"wrong index", Answer{Option: intPtr(0)}, false},
		{"missing option", Answer{}, false},
		{"text field ignored", Answer{Text: "b"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateAnswer(q, tt.ans); got != tt.want {
				t.Errorf("EvaluateAnswer() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateAnswerUnknownTypeFallsBackToMultipleChoice(t *testing.T) {
	q := &model.QuizQuestion{
		Type:          model.QuestionType("matching"),
		CorrectOption: intPtr(2),
	}
	if !EvaluateAnswer(q, Answer{Option: intPtr(2)}) {
		t.Error("unknown question type should be graded as multiple-choice")
	}
	if EvaluateAnswer(q, Answer{Bool: boolPtr(true)}) {
		t.Error("bool answer must not match option-keyed question")
	}
}

func TestEvaluateAnswerTrueFalse(t *testing.T) {
	q := &model.QuizQuestion{
		Type:        model.TrueFalse,
		CorrectBool: boolPtr(true),
	}

	if !EvaluateAnswer(q, Answer{Bool: boolPtr(true)}) {
		t.Error("matching bool should be correct")
	}
	if EvaluateAnswer(q, Answer{Bool: boolPtr(false)}) {
		t.Error("mismatched bool should be incorrect")
	}
	if EvaluateAnswer(q, Answer{}) {
		t.Error("missing bool should be incorrect")
	}

	noKey := &model.QuizQuestion{Type: model.TrueFalse}
	if EvaluateAnswer(noKey, Answer{Bool: boolPtr(true)}) {
		t.Error("question without answer key must never be correct")
	}
}

func TestEvaluateAnswerFillInBlank(t *testing.T) {
	q := &model.QuizQuestion{
		Type:        model.FillInBlank,
		CorrectText: "Photosynthesis",
	}

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exact", "Photosynthesis", true},
		{"case insensitive", "photosynthesis", true},
		{"surrounding whitespace", "  photosynthesis  ", true},
		{"wrong answer", "respiration", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateAnswer(q, Answer{Text: tt.text}); got != tt.want {
				t.Errorf("EvaluateAnswer(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestEvaluateAnswerShortAnswerKeyTerms(t *testing.T) {
	q := &model.QuizQuestion{
		Type:     model.ShortAnswer,
		KeyTerms: []string{"mitochondria", "energy"},
	}

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"contains first term", "The mitochondria is the powerhouse", true},
		{"contains second term case-insensitive", "It produces ENERGY for the cell", true},
		{"term inside larger word", "bioenergy applications", true},
		{"no terms", "the cell wall is rigid", false},
		{"empty answer", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateAnswer(q, Answer{Text: tt.text}); got != tt.want {
				t.Errorf("EvaluateAnswer(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestEvaluateAnswerEssayWithoutKeyTermsNeverCorrect(t *testing.T) {
	q := &model.QuizQuestion{Type: model.Essay}
	if EvaluateAnswer(q, Answer{Text: "a thorough and thoughtful essay"}) {
		t.Error("essay without key terms must be graded incorrect")
	}
}

func newGradedQuiz(passingScore int, questions ...model.QuizQuestion) *model.Quiz {
	return &model.Quiz{
		PassingScore: passingScore,
		Questions:    questions,
	}
}

func mcQuestion(correct int) model.QuizQuestion {
	return model.QuizQuestion{
		Type:          model.MultipleChoice,
		Options:       []string{"a", "b", "c", "d"},
		CorrectOption: intPtr(correct),
	}
}

func TestGradeQuizThreeOfFour(t *testing.T) {
	quiz := newGradedQuiz(70,
		mcQuestion(0), mcQuestion(1), mcQuestion(2), mcQuestion(3),
	)
	answers := AnswerSet{
		0: {Option: intPtr(0)},
		1: {Option: intPtr(1)},
		2: {Option: intPtr(2)},
		3: {Option: intPtr(0)}, // wrong
	}

	result, err := GradeQuiz(quiz, answers)
	if err != nil {
		t.Fatalf("GradeQuiz() error = %v", err)
	}
	if result.CorrectCount != 3 {
		t.Errorf("CorrectCount = %d, want 3", result.CorrectCount)
	}
	if result.ScorePercent != 75 {
		t.Errorf("ScorePercent = %d, want 75", result.ScorePercent)
	}
	if !result.Passed {
		t.Error("75 >= 70 should pass")
	}
}

func TestGradeQuizRoundsHalfUp(t *testing.T) {
	// 1/3 = 33.33 -> 33, 2/3 = 66.67 -> 67
	quiz := newGradedQuiz(67, mcQuestion(0), mcQuestion(0), mcQuestion(0))

	result, err := GradeQuiz(quiz, AnswerSet{
		0: {Option: intPtr(0)},
		1: {Option: intPtr(0)},
		2: {Option: intPtr(1)},
	})
	if err != nil {
		t.Fatalf("GradeQuiz() error = %v", err)
	}
	if result.ScorePercent != 67 {
		t.Errorf("ScorePercent = %d, want 67", result.ScorePercent)
	}
	if !result.Passed {
		t.Error("score equal to passing threshold should pass")
	}
}

func TestGradeQuizIncompleteSubmission(t *testing.T) {
	quiz := newGradedQuiz(70, mcQuestion(0), mcQuestion(1))

	_, err := GradeQuiz(quiz, AnswerSet{0: {Option: intPtr(0)}})
	if err == nil {
		t.Fatal("expected validation error for incomplete submission")
	}
	if !util.IsValidationError(err) {
		t.Errorf("error = %T, want ValidationError", err)
	}

	// 数量够但下标错位同样视为漏答
	_, err = GradeQuiz(quiz, AnswerSet{
		0: {Option: intPtr(0)},
		5: {Option: intPtr(1)},
	})
	if !util.IsValidationError(err) {
		t.Errorf("misindexed answers: error = %T, want ValidationError", err)
	}
}

func TestGradeQuizEmptyQuiz(t *testing.T) {
	_, err := GradeQuiz(newGradedQuiz(70), AnswerSet{})
	if !util.IsValidationError(err) {
		t.Errorf("empty quiz: error = %T, want ValidationError", err)
	}
}

func TestGradeQuizIsPure(t *testing.T) {
	quiz := newGradedQuiz(50, mcQuestion(0), mcQuestion(1))
	answers := AnswerSet{
		0: {Option: intPtr(0)},
		1: {Option: intPtr(0)},
	}

	first, err := GradeQuiz(quiz, answers)
	if err != nil {
		t.Fatalf("GradeQuiz() error = %v", err)
	}
	second, err := GradeQuiz(quiz, answers)
	if err != nil {
		t.Fatalf("GradeQuiz() error = %v", err)
	}
	if *first != *second {
		t.Errorf("repeated grading differed: %+v vs %+v", first, second)
	}
	if first.ScorePercent != 50 || !first.Passed {
		t.Errorf("result = %+v, want score 50 passed", first)
	}
}

func TestGradeQuizScoreBounds(t *testing.T) {
	quiz := newGradedQuiz(70, mcQuestion(0), mcQuestion(1), mcQuestion(2))

	allWrong := AnswerSet{
		0: {Option: intPtr(3)},
		1: {Option: intPtr(3)},
		2: {Option: intPtr(3)},
	}
	result, err := GradeQuiz(quiz, allWrong)
	if err != nil {
		t.Fatalf("GradeQuiz() error = %v", err)
	}
	if result.ScorePercent != 0 || result.Passed {
		t.Errorf("all wrong: %+v, want score 0 not passed", result)
	}

	allRight := AnswerSet{
		0: {Option: intPtr(0)},
		1: {Option: intPtr(1)},
		2: {Option: intPtr(2)},
	}
	result, err = GradeQuiz(quiz, allRight)
	if err != nil {
		t.Fatalf("GradeQuiz() error = %v", err)
	}
	if result.ScorePercent != 100 || !result.Passed {
		t.Errorf("all right: %+v, want score 100 passed", result)
	}
}

func TestGradeQuizMixedTypes(t *testing.T) {
	quiz := newGradedQuiz(100,
		model.QuizQuestion{Type: model.TrueFalse, CorrectBool: boolPtr(false)},
		model.QuizQuestion{Type: model.FillInBlank, CorrectText: "42"},
		model.QuizQuestion{Type: model.ShortAnswer, KeyTerms: []string{"gravity"}},
	)
	answers := AnswerSet{
		0: {Bool: boolPtr(false)},
		1: {Text: " 42 "},
		2: {Text: "objects fall because of GRAVITY"},
	}

	result, err := GradeQuiz(quiz, answers)
	if err != nil {
		t.Fatalf("GradeQuiz() error = %v", err)
	}
	if result.CorrectCount != 3 || result.ScorePercent != 100 || !result.Passed {
		t.Errorf("result = %+v, want all correct", result)
	}
}
