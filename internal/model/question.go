package model

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Module SAT 的四个固定模块
type Module string

const (
	ModuleReadingWriting1 Module = "reading_writing_1"
	ModuleReadingWriting2 Module = "reading_writing_2"
	ModuleMath1           Module = "math_1"
	ModuleMath2           Module = "math_2"
)

var AllModules = []Module{ModuleReadingWriting1, ModuleReadingWriting2, ModuleMath1, ModuleMath2}

var moduleLabels = map[Module]string{
	ModuleReadingWriting1: "Reading and Writing - Module 1",
	ModuleReadingWriting2: "Reading and Writing - Module 2",
	ModuleMath1:           "Math - Module 1",
	ModuleMath2:           "Math - Module 2",
}

// Label 返回模块的展示名称，未知模块原样返回
func (m Module) Label() string {
	if l, ok := moduleLabels[m]; ok {
		return l
	}
	return string(m)
}

func (m Module) Valid() bool {
	_, ok := moduleLabels[m]
	return ok
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Label 首字母大写
func (d Difficulty) Label() string {
	if d == "" {
		return ""
	}
	s := string(d)
	return strings.ToUpper(s[:1]) + s[1:]
}

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionGridIn         QuestionType = "grid_in"
	QuestionEssay          QuestionType = "essay"
)

// Question 题目快照，错题聚合只读
// swagger:model Question
type Question struct {
	UUIDBase
	Module        Module                      `gorm:"size:32;index;not null" json:"module"`
	Difficulty    Difficulty                  `gorm:"size:16;index" json:"difficulty"`
	QuestionType  QuestionType                `gorm:"size:32" json:"questionType"`
	Topics        datatypes.JSONSlice[string] `json:"topics"`
	SourceExamID  *string                     `gorm:"type:varchar(36);index" json:"sourceExamId,omitempty"`
	SourceExam    *Exam                       `gorm:"foreignKey:SourceExamID" json:"-"`
	Points        int                         `gorm:"default:1" json:"points"`
	Content       datatypes.JSON              `json:"-"`
	Options       datatypes.JSON              `json:"-"`
	CorrectAnswer string                      `gorm:"size:255" json:"-"`
	Explanation   string                      `gorm:"type:text" json:"explanation,omitempty"`

	// 读取时由 Content / Options 解码
	Body    QuestionContent   `gorm:"-" json:"content"`
	Choices []QuestionContent `gorm:"-" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// SourceExamTitle 题目来源试卷标题，可能为空
func (q *Question) SourceExamTitle() string {
	if q == nil || q.SourceExam == nil {
		return ""
	}
	return q.SourceExam.Title
}

func (q *Question) BeforeSave(tx *gorm.DB) error {
	if len(q.Content) == 0 && !q.Body.IsZero() {
		raw, err := json.Marshal(q.Body)
		if err != nil {
			return err
		}
		q.Content = datatypes.JSON(raw)
	}
	if len(q.Options) == 0 && len(q.Choices) > 0 {
		raw, err := json.Marshal(q.Choices)
		if err != nil {
			return err
		}
		q.Options = datatypes.JSON(raw)
	}
	return nil
}

func (q *Question) AfterFind(tx *gorm.DB) error {
	q.Body = DecodeQuestionContent(q.Content)
	q.Choices = DecodeOptions(q.Options)
	return nil
}
