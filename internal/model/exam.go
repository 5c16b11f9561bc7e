package model

import (
	"time"

	"gorm.io/datatypes"
)

// Exam 试卷；补救作业生成的试卷 IsCustomAssignment = true
// swagger:model Exam
type Exam struct {
	UUIDBase
	Title              string                             `gorm:"size:255;not null" json:"title"`
	Description        string                             `gorm:"type:text" json:"description"`
	IsCustomAssignment bool                               `gorm:"default:false" json:"isCustomAssignment"`
	TotalQuestions     int                                `json:"totalQuestions"`
	TimeLimits         datatypes.JSONType[map[Module]int] `json:"timeLimits"`
	CreatedBy          string                             `gorm:"type:varchar(36);index" json:"createdBy"`
}

func (Exam) TableName() string {
	return "exams"
}

// ExamQuestion 试卷与题目的关联
type ExamQuestion struct {
	ExamID     string `gorm:"primaryKey;type:varchar(36)" json:"examId"`
	QuestionID string `gorm:"primaryKey;type:varchar(36)" json:"questionId"`
	Position   int    `json:"position"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}

// Assignment 试卷分配给学生
// swagger:model Assignment
type Assignment struct {
	UUIDBase
	ExamID      string     `gorm:"type:varchar(36);not null;index" json:"examId"`
	StudentID   string     `gorm:"type:varchar(36);not null;index" json:"studentId"`
	AssignedBy  string     `gorm:"type:varchar(36)" json:"assignedBy"`
	DueDate     *time.Time `json:"dueDate"`
	ShowResults bool       `gorm:"not null" json:"showResults"`
	IsActive    bool       `gorm:"not null" json:"isActive"`
}

func (Assignment) TableName() string {
	return "exam_assignments"
}

// RemedialAssignment 补救作业创建结果
type RemedialAssignment struct {
	Exam        *Exam        `json:"exam"`
	QuestionIDs []string     `json:"questionIds"`
	Assignments []Assignment `json:"assignments"`
}
