package repository

import (
	"context"
	"sat_practice_backend/internal/model"

	"gorm.io/gorm"
)

// ExamRepository 试卷、试卷题目关联与作业分配的写入；删除方法供失败回滚使用
type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) CreateExam(ctx context.Context, exam *model.Exam) error {
	return r.DB.WithContext(ctx).Create(exam).Error
}

func (r *ExamRepository) DeleteExam(ctx context.Context, examID string) error {
	return r.DB.WithContext(ctx).Where("id = ?", examID).Delete(&model.Exam{}).Error
}

// LinkQuestions 按给定顺序写入题目，position 从 1 开始
func (r *ExamRepository) LinkQuestions(ctx context.Context, examID string, questionIDs []string) error {
	if len(questionIDs) == 0 {
		return nil
	}
	links := make([]model.ExamQuestion, 0, len(questionIDs))
	for i, qid := range questionIDs {
		links = append(links, model.ExamQuestion{ExamID: examID, QuestionID: qid, Position: i + 1})
	}
	return r.DB.WithContext(ctx).Create(&links).Error
}

func (r *ExamRepository) UnlinkQuestions(ctx context.Context, examID string) error {
	return r.DB.WithContext(ctx).Where("exam_id = ?", examID).Delete(&model.ExamQuestion{}).Error
}

func (r *ExamRepository) CreateAssignments(ctx context.Context, assignments []model.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&assignments).Error
}

func (r *ExamRepository) DeleteAssignments(ctx context.Context, examID string) error {
	return r.DB.WithContext(ctx).Where("exam_id = ?", examID).Delete(&model.Assignment{}).Error
}

func (r *ExamRepository) FindExam(ctx context.Context, examID string) (*model.Exam, error) {
	var exam model.Exam
	if err := r.DB.WithContext(ctx).First(&exam, "id = ?", examID).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) ListQuestionLinks(ctx context.Context, examID string) ([]model.ExamQuestion, error) {
	var links []model.ExamQuestion
	err := r.DB.WithContext(ctx).Where("exam_id = ?", examID).Order("position asc").Find(&links).Error
	return links, err
}

func (r *ExamRepository) ListAssignments(ctx context.Context, examID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.DB.WithContext(ctx).Where("exam_id = ?", examID).Find(&assignments).Error
	return assignments, err
}
