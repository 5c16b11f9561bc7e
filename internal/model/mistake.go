package model

import "time"

type MistakeStatus string

const (
	MistakeUnmastered MistakeStatus = "unmastered"
	MistakeMastered   MistakeStatus = "mastered"
)

// MistakeRecord 每个 (用户, 题目) 仅一条，首次答错时创建
// swagger:model MistakeRecord
type MistakeRecord struct {
	UUIDBase
	UserID          string        `gorm:"type:varchar(36);not null;uniqueIndex:idx_mistake_user_question" json:"userId"`
	QuestionID      string        `gorm:"type:varchar(36);not null;uniqueIndex:idx_mistake_user_question" json:"questionId"`
	Status          MistakeStatus `gorm:"size:20;default:'unmastered';index" json:"status"`
	FirstMistakenAt time.Time     `gorm:"not null;index" json:"firstMistakenAt"`
	LastReviewedAt  *time.Time    `json:"lastReviewedAt,omitempty"`

	Question *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}

func (MistakeRecord) TableName() string {
	return "mistake_records"
}

// AggregatedMistake 错题 + 题目快照 + 最近的错误作答（新到旧）
type AggregatedMistake struct {
	MistakeID         string             `json:"mistakeId"`
	UserID            string             `json:"userId"`
	Status            MistakeStatus      `json:"status"`
	FirstMistakenAt   time.Time          `json:"firstMistakenAt"`
	LastReviewedAt    *time.Time         `json:"lastReviewedAt,omitempty"`
	Question          *Question          `json:"question"`
	SourceExamTitle   string             `json:"sourceExamTitle,omitempty"`
	IncorrectAttempts []AnswerSubmission `json:"incorrectAttempts"`
}

func (m *AggregatedMistake) QuestionID() string {
	if m.Question == nil {
		return ""
	}
	return m.Question.ID
}

// LatestIncorrectAt 最近一次错误作答时间，没有记录时为零值
func (m *AggregatedMistake) LatestIncorrectAt() time.Time {
	var latest time.Time
	for _, s := range m.IncorrectAttempts {
		if s.SubmittedAt.After(latest) {
			latest = s.SubmittedAt
		}
	}
	return latest
}

// MistakeSummary 错题本统计
type MistakeSummary struct {
	Total      int            `json:"total"`
	Mastered   int            `json:"mastered"`
	Unmastered int            `json:"unmastered"`
	ByModule   map[Module]int `json:"byModule"`
}
