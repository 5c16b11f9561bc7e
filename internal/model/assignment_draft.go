package model

import "time"

// DraftStep 补救作业向导所处步骤
type DraftStep string

const (
	DraftSelectingStudents DraftStep = "selecting_students"
	DraftSelectingMistakes DraftStep = "selecting_mistakes"
	DraftCreated           DraftStep = "created"
)

// AssignmentDraft 管理员的补救作业向导状态，每个管理员一份
type AssignmentDraft struct {
	AdminID    string              `json:"adminId"`
	Step       DraftStep           `json:"step"`
	StudentIDs []string            `json:"studentIds"`
	Pool       []AggregatedMistake `json:"pool"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}
