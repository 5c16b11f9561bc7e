package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/util"

	"gorm.io/gorm"
)

var roleNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// CreateAttempt 以服务端身份直接写入
func (r *AttemptRepository) CreateAttempt(ctx context.Context, userID string, a *model.ExamAttempt) error {
	a.UserID = userID
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *AttemptRepository) FindByID(ctx context.Context, id string) (*model.ExamAttempt, error) {
	var a model.ExamAttempt
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ScopedAttemptWriter 以学生身份写入：事务内切换到受行级安全约束的角色，
// 并注入与托管认证一致的 request.jwt.claims
type ScopedAttemptWriter struct {
	DB   *gorm.DB
	Role string
}

func NewScopedAttemptWriter(db *gorm.DB, role string) *ScopedAttemptWriter {
	return &ScopedAttemptWriter{DB: db, Role: role}
}

func (w *ScopedAttemptWriter) CreateAttempt(ctx context.Context, userID string, a *model.ExamAttempt) error {
	a.UserID = userID
	if w.Role == "" {
		return w.DB.WithContext(ctx).Create(a).Error
	}
	if !roleNamePattern.MatchString(w.Role) {
		return fmt.Errorf("invalid rls role name %q", w.Role)
	}
	claims, err := json.Marshal(map[string]string{"sub": userID, "role": w.Role})
	if err != nil {
		return err
	}
	return w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT set_config('request.jwt.claims', ?, true)", string(claims)).Error; err != nil {
			return err
		}
		if err := tx.Exec("SET LOCAL ROLE " + w.Role).Error; err != nil {
			return err
		}
		return tx.Create(a).Error
	})
}
