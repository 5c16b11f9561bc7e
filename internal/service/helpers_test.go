package service

import (
	"fmt"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/repository"
	"sat_practice_backend/pkg/database"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{Email: strings.ToLower(name) + "@example.com", Name: name, Role: role}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedExam(t *testing.T, db *gorm.DB, title string) *model.Exam {
	t.Helper()
	e := &model.Exam{Title: title}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	return e
}

type questionOpt func(*model.Question)

func withTopics(topics ...string) questionOpt {
	return func(q *model.Question) { q.Topics = topics }
}

func withDifficulty(d model.Difficulty) questionOpt {
	return func(q *model.Question) { q.Difficulty = d }
}

func withSourceExam(e *model.Exam) questionOpt {
	return func(q *model.Question) { q.SourceExamID = &e.ID }
}

func withType(qt model.QuestionType) questionOpt {
	return func(q *model.Question) { q.QuestionType = qt }
}

func seedQuestion(t *testing.T, db *gorm.DB, module model.Module, opts ...questionOpt) *model.Question {
	t.Helper()
	q := &model.Question{
		Module:       module,
		Difficulty:   model.DifficultyMedium,
		QuestionType: model.QuestionMultipleChoice,
		Topics:       []string{},
		Points:       1,
		Body:         model.TextContent("What is x?"),
	}
	for _, opt := range opts {
		opt(q)
	}
	if err := db.Create(q).Error; err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return q
}

func seedAttempt(t *testing.T, db *gorm.DB, userID string) *model.ExamAttempt {
	t.Helper()
	a := &model.ExamAttempt{UserID: userID, Status: model.AttemptInProgress, CurrentModule: model.ModuleMath1, CurrentQuestionNumber: 1}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("seed attempt: %v", err)
	}
	return a
}

func seedSubmission(t *testing.T, db *gorm.DB, attemptID, questionID string, correct bool, at time.Time) *model.AnswerSubmission {
	t.Helper()
	s := &model.AnswerSubmission{
		ID:          model.GenerateUUID(),
		AttemptID:   attemptID,
		QuestionID:  questionID,
		Value:       "A",
		IsCorrect:   correct,
		SubmittedAt: at,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("seed submission: %v", err)
	}
	return s
}

func seedMistake(t *testing.T, db *gorm.DB, userID, questionID string, status model.MistakeStatus, at time.Time) *model.MistakeRecord {
	t.Helper()
	m := &model.MistakeRecord{UserID: userID, QuestionID: questionID, Status: status, FirstMistakenAt: at}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed mistake: %v", err)
	}
	return m
}

func newTestMistakeService(db *gorm.DB) *MistakeService {
	return NewMistakeService(
		repository.NewMistakeRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewAttemptRepository(db),
		repository.NewQuestionRepository(db),
		nil,
		5,
		4,
	)
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func mistakeIDs(ms []model.AggregatedMistake) []string {
	ids := make([]string, 0, len(ms))
	for i := range ms {
		ids = append(ids, ms[i].QuestionID())
	}
	return ids
}
