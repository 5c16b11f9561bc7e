package repository

import (
	"context"
	"errors"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/util"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// StudentMistakeCount 补救作业第一步展示的学生列表
type StudentMistakeCount struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	MistakeCount    int64  `json:"mistakeCount"`
	UnmasteredCount int64  `json:"unmasteredCount"`
}

func (r *UserRepository) ListStudentsWithMistakeCounts(ctx context.Context) ([]StudentMistakeCount, error) {
	var rows []StudentMistakeCount
	err := r.DB.WithContext(ctx).
		Table("profiles").
		Select(`profiles.id, profiles.name, profiles.email,
			COUNT(mistake_records.id) AS mistake_count,
			COALESCE(SUM(CASE WHEN mistake_records.status = ? THEN 1 ELSE 0 END), 0) AS unmastered_count`, model.MistakeUnmastered).
		Joins("LEFT JOIN mistake_records ON mistake_records.user_id = profiles.id").
		Where("profiles.role = ?", model.Student).
		Group("profiles.id, profiles.name, profiles.email").
		Order("profiles.name asc").
		Scan(&rows).Error
	return rows, err
}
