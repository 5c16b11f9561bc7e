package model

import "time"

type AttemptStatus string

const (
	AttemptNotStarted AttemptStatus = "not_started"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// ExamAttempt 一次考试/练习作答
// swagger:model ExamAttempt
type ExamAttempt struct {
	UUIDBase
	UserID                string        `gorm:"type:varchar(36);not null;index" json:"userId"`
	ExamID                *string       `gorm:"type:varchar(36);index" json:"examId"`
	Status                AttemptStatus `gorm:"size:20;default:'not_started'" json:"status"`
	IsPracticeMode        bool          `gorm:"default:false" json:"isPracticeMode"`
	CurrentModule         Module        `gorm:"size:32" json:"currentModule"`
	CurrentQuestionNumber int           `gorm:"default:1" json:"currentQuestionNumber"`
	StartedAt             *time.Time    `json:"startedAt,omitempty"`
	CompletedAt           *time.Time    `json:"completedAt,omitempty"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

// AnswerSubmission 单次作答，写入后不再修改；所属用户通过 attempt 关联
// swagger:model AnswerSubmission
type AnswerSubmission struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AttemptID   string    `gorm:"type:varchar(36);not null;index" json:"attemptId"`
	QuestionID  string    `gorm:"type:varchar(36);not null;index" json:"questionId"`
	Value       string    `gorm:"type:text" json:"value"`
	IsCorrect   bool      `gorm:"not null;index" json:"isCorrect"`
	SubmittedAt time.Time `gorm:"not null;index" json:"submittedAt"`
}

func (AnswerSubmission) TableName() string {
	return "answer_submissions"
}
