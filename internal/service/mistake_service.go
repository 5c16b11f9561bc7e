package service

import (
	"context"
	"errors"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/repository"
	"sat_practice_backend/internal/util"
	"sat_practice_backend/pkg/logger"
	"sat_practice_backend/pkg/monitoring"
	"sat_practice_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultSubmissionLimit  = 5
	defaultFetchConcurrency = 8
)

// MistakeStore 错题记录的读写
type MistakeStore interface {
	FindByUser(ctx context.Context, userID string) ([]model.MistakeRecord, error)
	FindByUsers(ctx context.Context, userIDs []string) ([]model.MistakeRecord, error)
	CreateIfAbsent(ctx context.Context, rec *model.MistakeRecord) (bool, error)
	UpdateReview(ctx context.Context, userID, questionID string, status *model.MistakeStatus, reviewedAt time.Time) error
}

// SubmissionStore 作答记录的读写
type SubmissionStore interface {
	Create(ctx context.Context, s *model.AnswerSubmission) error
	FindIncorrect(ctx context.Context, userID, questionID string, limit int) ([]model.AnswerSubmission, error)
	ListIncorrect(ctx context.Context) ([]repository.IncorrectSubmissionRow, error)
}

type MistakeService struct {
	Mistakes         MistakeStore
	Submissions      SubmissionStore
	AttemptRepo      *repository.AttemptRepository
	QuestionRepo     *repository.QuestionRepository
	Storage          *StorageService
	SubmissionLimit  int
	FetchConcurrency int
	now              func() time.Time
}

func NewMistakeService(
	mistakes MistakeStore,
	submissions SubmissionStore,
	attemptRepo *repository.AttemptRepository,
	questionRepo *repository.QuestionRepository,
	storage *StorageService,
	submissionLimit int,
	fetchConcurrency int,
) *MistakeService {
	if submissionLimit <= 0 {
		submissionLimit = defaultSubmissionLimit
	}
	if fetchConcurrency <= 0 {
		fetchConcurrency = defaultFetchConcurrency
	}
	return &MistakeService{
		Mistakes:         mistakes,
		Submissions:      submissions,
		AttemptRepo:      attemptRepo,
		QuestionRepo:     questionRepo,
		Storage:          storage,
		SubmissionLimit:  submissionLimit,
		FetchConcurrency: fetchConcurrency,
		now:              time.Now,
	}
}

// LoadMistakes 当前用户的错题列表，按首次出错时间倒序。
// 题目已不存在的错题被丢弃；单题的作答记录读取失败时该题作答列表为空。
func (s *MistakeService) LoadMistakes(ctx context.Context, userID string) ([]model.AggregatedMistake, error) {
	ctx, span := tracing.StartSpan(ctx, "MistakeService.LoadMistakes", attribute.String("user.id", userID))
	defer span.End()

	if userID == "" {
		return []model.AggregatedMistake{}, nil
	}

	records, err := s.Mistakes.FindByUser(ctx, userID)
	if err != nil {
		monitoring.MistakeFetchFailures.Inc()
		logger.Log.Error("Failed to load mistake records", zap.String("userID", userID), zap.Error(err))
		tracing.RecordError(span, err)
		return nil, util.NewStageError(util.ErrFetchFailed, err)
	}

	mistakes := aggregateRecords(records)
	s.attachIncorrectAttempts(ctx, mistakes)
	for i := range mistakes {
		s.Storage.ResolveQuestion(ctx, mistakes[i].Question)
	}
	span.SetAttributes(attribute.Int("mistakes.count", len(mistakes)))
	return mistakes, nil
}

// LoadStudentMistakes 管理员视角，多名学生的错题池，不含作答记录
func (s *MistakeService) LoadStudentMistakes(ctx context.Context, studentIDs []string) ([]model.AggregatedMistake, error) {
	ctx, span := tracing.StartSpan(ctx, "MistakeService.LoadStudentMistakes", attribute.Int("students.count", len(studentIDs)))
	defer span.End()

	if len(studentIDs) == 0 {
		return []model.AggregatedMistake{}, nil
	}
	records, err := s.Mistakes.FindByUsers(ctx, studentIDs)
	if err != nil {
		monitoring.MistakeFetchFailures.Inc()
		logger.Log.Error("Failed to load student mistake records", zap.Strings("studentIDs", studentIDs), zap.Error(err))
		tracing.RecordError(span, err)
		return nil, util.NewStageError(util.ErrFetchFailed, err)
	}
	mistakes := aggregateRecords(records)
	for i := range mistakes {
		s.Storage.ResolveQuestion(ctx, mistakes[i].Question)
	}
	return mistakes, nil
}

func aggregateRecords(records []model.MistakeRecord) []model.AggregatedMistake {
	mistakes := make([]model.AggregatedMistake, 0, len(records))
	for _, rec := range records {
		if rec.Question == nil {
			logger.Log.Debug("Dropping mistake whose question no longer exists",
				zap.String("mistakeID", rec.ID), zap.String("questionID", rec.QuestionID))
			continue
		}
		mistakes = append(mistakes, model.AggregatedMistake{
			MistakeID:         rec.ID,
			UserID:            rec.UserID,
			Status:            rec.Status,
			FirstMistakenAt:   rec.FirstMistakenAt,
			LastReviewedAt:    rec.LastReviewedAt,
			Question:          rec.Question,
			SourceExamTitle:   rec.Question.SourceExamTitle(),
			IncorrectAttempts: []model.AnswerSubmission{},
		})
	}
	return mistakes
}

func (s *MistakeService) attachIncorrectAttempts(ctx context.Context, mistakes []model.AggregatedMistake) {
	var g errgroup.Group
	g.SetLimit(s.FetchConcurrency)
	for i := range mistakes {
		m := &mistakes[i]
		g.Go(func() error {
			subs, err := s.Submissions.FindIncorrect(ctx, m.UserID, m.QuestionID(), s.SubmissionLimit)
			if err != nil {
				monitoring.MistakeFetchFailures.Inc()
				logger.Log.Warn("Failed to load incorrect submissions",
					zap.String("userID", m.UserID), zap.String("questionID", m.QuestionID()), zap.Error(err))
				return nil
			}
			if subs != nil {
				m.IncorrectAttempts = subs
			}
			return nil
		})
	}
	_ = g.Wait()
}

// SubmissionRequest 学生提交单题答案
type SubmissionRequest struct {
	AttemptID  string `json:"attemptId" binding:"required"`
	QuestionID string `json:"questionId" binding:"required"`
	Value      string `json:"value"`
	IsCorrect  bool   `json:"isCorrect"`
}

type SubmissionResult struct {
	Submission     *model.AnswerSubmission `json:"submission"`
	MistakeCreated bool                    `json:"mistakeCreated"`
}

// RecordSubmission 写入作答；答错且之前没有错题记录时创建一条
func (s *MistakeService) RecordSubmission(ctx context.Context, userID string, req SubmissionRequest) (*SubmissionResult, error) {
	ctx, span := tracing.StartSpan(ctx, "MistakeService.RecordSubmission",
		attribute.String("user.id", userID), attribute.String("question.id", req.QuestionID))
	defer span.End()

	attempt, err := s.AttemptRepo.FindByID(ctx, req.AttemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	if _, err := s.QuestionRepo.FindByID(ctx, req.QuestionID); err != nil {
		return nil, err
	}

	sub := &model.AnswerSubmission{
		AttemptID:   attempt.ID,
		QuestionID:  req.QuestionID,
		Value:       req.Value,
		IsCorrect:   req.IsCorrect,
		SubmittedAt: s.now(),
	}
	if err := s.Submissions.Create(ctx, sub); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	result := &SubmissionResult{Submission: sub}
	if sub.IsCorrect {
		return result, nil
	}
	created, err := s.Mistakes.CreateIfAbsent(ctx, &model.MistakeRecord{
		UserID:          userID,
		QuestionID:      sub.QuestionID,
		Status:          model.MistakeUnmastered,
		FirstMistakenAt: sub.SubmittedAt,
	})
	if err != nil {
		logger.Log.Error("Failed to record mistake", zap.String("userID", userID), zap.String("questionID", sub.QuestionID), zap.Error(err))
		tracing.RecordError(span, err)
		return nil, err
	}
	result.MistakeCreated = created
	return result, nil
}

// MarkReviewed 记录一次复习，可同时切换掌握状态
func (s *MistakeService) MarkReviewed(ctx context.Context, userID, questionID string, status *model.MistakeStatus) error {
	if status != nil && *status != model.MistakeMastered && *status != model.MistakeUnmastered {
		return util.ErrInvalidSelection
	}
	return s.Mistakes.UpdateReview(ctx, userID, questionID, status, s.now())
}

// Summary 错题统计，题目已删除的错题不计入
func (s *MistakeService) Summary(ctx context.Context, userID string) (*model.MistakeSummary, error) {
	records, err := s.Mistakes.FindByUser(ctx, userID)
	if err != nil {
		monitoring.MistakeFetchFailures.Inc()
		return nil, util.NewStageError(util.ErrFetchFailed, err)
	}
	summary := &model.MistakeSummary{ByModule: make(map[model.Module]int)}
	for _, rec := range records {
		if rec.Question == nil {
			continue
		}
		summary.Total++
		if rec.Status == model.MistakeMastered {
			summary.Mastered++
		} else {
			summary.Unmastered++
		}
		summary.ByModule[rec.Question.Module]++
	}
	return summary, nil
}

// BackfillFromSubmissions 为历史错误作答补建错题记录，首次出错时间取最早的错误作答
func (s *MistakeService) BackfillFromSubmissions(ctx context.Context) (int, error) {
	rows, err := s.Submissions.ListIncorrect(ctx)
	if err != nil {
		return 0, util.NewStageError(util.ErrFetchFailed, err)
	}

	type key struct{ userID, questionID string }
	earliest := make(map[key]time.Time)
	order := make([]key, 0)
	for _, row := range rows {
		k := key{row.UserID, row.QuestionID}
		at, seen := earliest[k]
		if !seen {
			order = append(order, k)
		}
		if !seen || row.SubmittedAt.Before(at) {
			earliest[k] = row.SubmittedAt
		}
	}

	created := 0
	var errs []error
	for _, k := range order {
		ok, err := s.Mistakes.CreateIfAbsent(ctx, &model.MistakeRecord{
			UserID:          k.userID,
			QuestionID:      k.questionID,
			Status:          model.MistakeUnmastered,
			FirstMistakenAt: earliest[k],
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			created++
		}
	}
	logger.Log.Info("Mistake backfill finished", zap.Int("candidates", len(order)), zap.Int("created", created), zap.Int("failed", len(errs)))
	return created, errors.Join(errs...)
}
