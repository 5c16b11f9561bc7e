package repository

import (
	"context"
	"sat_practice_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, s *model.AnswerSubmission) error {
	if s.ID == "" {
		s.ID = model.GenerateUUID()
	}
	return r.DB.WithContext(ctx).Create(s).Error
}

// FindIncorrect 该用户（通过 attempt 归属）在该题上的错误作答，新到旧
func (r *SubmissionRepository) FindIncorrect(ctx context.Context, userID, questionID string, limit int) ([]model.AnswerSubmission, error) {
	var subs []model.AnswerSubmission
	q := r.DB.WithContext(ctx).
		Model(&model.AnswerSubmission{}).
		Select("answer_submissions.*").
		Joins("JOIN exam_attempts ON exam_attempts.id = answer_submissions.attempt_id").
		Where("exam_attempts.user_id = ? AND answer_submissions.question_id = ? AND answer_submissions.is_correct = ?", userID, questionID, false).
		Order("answer_submissions.submitted_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&subs).Error
	return subs, err
}

type IncorrectSubmissionRow struct {
	UserID      string
	QuestionID  string
	SubmittedAt time.Time
}

// ListIncorrect 全量错误作答，用于补建错题记录
func (r *SubmissionRepository) ListIncorrect(ctx context.Context) ([]IncorrectSubmissionRow, error) {
	var rows []IncorrectSubmissionRow
	err := r.DB.WithContext(ctx).
		Table("answer_submissions").
		Select("exam_attempts.user_id AS user_id, answer_submissions.question_id AS question_id, answer_submissions.submitted_at AS submitted_at").
		Joins("JOIN exam_attempts ON exam_attempts.id = answer_submissions.attempt_id").
		Where("answer_submissions.is_correct = ?", false).
		Order("answer_submissions.submitted_at asc").
		Scan(&rows).Error
	return rows, err
}
