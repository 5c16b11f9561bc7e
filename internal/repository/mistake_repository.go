package repository

import (
	"context"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/util"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MistakeRepository struct {
	DB *gorm.DB
}

func NewMistakeRepository(db *gorm.DB) *MistakeRepository {
	return &MistakeRepository{DB: db}
}

// FindByUser 按首次出错时间倒序；题目已删除时 Question 为 nil
func (r *MistakeRepository) FindByUser(ctx context.Context, userID string) ([]model.MistakeRecord, error) {
	var records []model.MistakeRecord
	err := r.DB.WithContext(ctx).
		Preload("Question").
		Preload("Question.SourceExam").
		Where("user_id = ?", userID).
		Order("first_mistaken_at desc").
		Order("id asc").
		Find(&records).Error
	return records, err
}

func (r *MistakeRepository) FindByUsers(ctx context.Context, userIDs []string) ([]model.MistakeRecord, error) {
	var records []model.MistakeRecord
	if len(userIDs) == 0 {
		return records, nil
	}
	err := r.DB.WithContext(ctx).
		Preload("Question").
		Preload("Question.SourceExam").
		Where("user_id IN ?", userIDs).
		Order("first_mistaken_at desc").
		Order("id asc").
		Find(&records).Error
	return records, err
}

// CreateIfAbsent 已存在同一 (用户, 题目) 记录时不做任何修改，返回是否新建
func (r *MistakeRepository) CreateIfAbsent(ctx context.Context, rec *model.MistakeRecord) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
			DoNothing: true,
		}).
		Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateReview 更新复习时间，status 为 nil 时只更新时间
func (r *MistakeRepository) UpdateReview(ctx context.Context, userID, questionID string, status *model.MistakeStatus, reviewedAt time.Time) error {
	updates := map[string]interface{}{"last_reviewed_at": reviewedAt}
	if status != nil {
		updates["status"] = *status
	}
	res := r.DB.WithContext(ctx).
		Model(&model.MistakeRecord{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrMistakeNotFound
	}
	return nil
}
