package repository

import (
	"context"
	"errors"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type PracticeSessionRepository struct {
	DB *gorm.DB
}

func NewPracticeSessionRepository(db *gorm.DB) *PracticeSessionRepository {
	return &PracticeSessionRepository{DB: db}
}

func (r *PracticeSessionRepository) Create(ctx context.Context, s *model.PracticeSession) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *PracticeSessionRepository) FindByAttemptID(ctx context.Context, userID, attemptID string) (*model.PracticeSession, error) {
	var s model.PracticeSession
	err := r.DB.WithContext(ctx).
		Where("attempt_id = ? AND user_id = ?", attemptID, userID).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// MarkConsumed 只有未消费的会话才会被标记
func (r *PracticeSessionRepository) MarkConsumed(ctx context.Context, userID, attemptID string, at time.Time) error {
	res := r.DB.WithContext(ctx).
		Model(&model.PracticeSession{}).
		Where("attempt_id = ? AND user_id = ? AND consumed_at IS NULL", attemptID, userID).
		Update("consumed_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := r.FindByAttemptID(ctx, userID, attemptID); err != nil {
		return err
	}
	return util.ErrSessionConsumed
}
