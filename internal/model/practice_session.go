package model

import (
	"time"

	"gorm.io/datatypes"
)

type PracticeSettings struct {
	Shuffle          bool `json:"shuffle"`
	ShowExplanations bool `json:"showExplanations"`
	TimeLimitMinutes int  `json:"timeLimitMinutes"` // 0 表示不限时
	IsMistakeReview  bool `json:"isMistakeReview"`
}

// PracticeSession 练习会话描述，以 attempt ID 为键，只能被答题流程消费一次
// swagger:model PracticeSession
type PracticeSession struct {
	AttemptID   string                               `gorm:"primaryKey;type:varchar(36)" json:"attemptId"`
	UserID      string                               `gorm:"type:varchar(36);not null;index" json:"userId"`
	QuestionIDs datatypes.JSONSlice[string]          `json:"questionIds"`
	Settings    datatypes.JSONType[PracticeSettings] `json:"settings"`
	CreatedAt   time.Time                            `json:"createdAt"`
	ConsumedAt  *time.Time                           `json:"consumedAt,omitempty"`
}

func (PracticeSession) TableName() string {
	return "practice_sessions"
}
