package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sat_practice_backend/internal/config"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/util"
	"sat_practice_backend/pkg/logger"
	"sat_practice_backend/pkg/monitoring"
	"sat_practice_backend/pkg/tracing"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// AttemptWriter 创建练习用的 attempt
type AttemptWriter interface {
	CreateAttempt(ctx context.Context, userID string, a *model.ExamAttempt) error
}

type QuestionLookup interface {
	FindByID(ctx context.Context, id string) (*model.Question, error)
}

type PracticeSessionStore interface {
	Create(ctx context.Context, s *model.PracticeSession) error
	FindByAttemptID(ctx context.Context, userID, attemptID string) (*model.PracticeSession, error)
	MarkConsumed(ctx context.Context, userID, attemptID string, at time.Time) error
}

// PracticeRequest 未提供的开关使用默认值
type PracticeRequest struct {
	QuestionIDs      []string `json:"questionIds"`
	Shuffle          *bool    `json:"shuffle"`
	ShowExplanations *bool    `json:"showExplanations"`
	TimeLimitMinutes int      `json:"timeLimitMinutes"`
	IsMistakeReview  *bool    `json:"isMistakeReview"`
}

// PracticeViewRequest “全部练习”：按当前分组/筛选视图取题
type PracticeViewRequest struct {
	PracticeRequest
	Group  GroupPolicy   `json:"group"`
	Label  string        `json:"label"`
	Filter MistakeFilter `json:"filter"`
}

// PracticeSessionDescriptor 返回给答题流程的会话描述
type PracticeSessionDescriptor struct {
	AttemptID   string                 `json:"attemptId"`
	QuestionIDs []string               `json:"questionIds"`
	Settings    model.PracticeSettings `json:"settings"`
	ConsumedAt  *time.Time             `json:"consumedAt,omitempty"`
}

type PracticeSessionService struct {
	Direct     AttemptWriter
	Privileged AttemptWriter
	Questions  QuestionLookup
	Sessions   PracticeSessionStore
	Mistakes   *MistakeService
	Defaults   config.PracticeConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPracticeSessionService(
	direct AttemptWriter,
	privileged AttemptWriter,
	questions QuestionLookup,
	sessions PracticeSessionStore,
	mistakes *MistakeService,
	defaults config.PracticeConfig,
) *PracticeSessionService {
	return &PracticeSessionService{
		Direct:     direct,
		Privileged: privileged,
		Questions:  questions,
		Sessions:   sessions,
		Mistakes:   mistakes,
		Defaults:   defaults,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand 测试中固定随机序列
func (s *PracticeSessionService) SetRand(r *rand.Rand) {
	s.mu.Lock()
	s.rng = r
	s.mu.Unlock()
}

// BuildSelected “练习所选”，默认不打乱
func (s *PracticeSessionService) BuildSelected(ctx context.Context, userID string, req PracticeRequest) (*PracticeSessionDescriptor, error) {
	return s.build(ctx, userID, req, s.Defaults.ShuffleSelected)
}

// BuildFromView “全部练习”，题目为当前视图下可见的全部错题，默认打乱
func (s *PracticeSessionService) BuildFromView(ctx context.Context, userID string, req PracticeViewRequest) (*PracticeSessionDescriptor, error) {
	if userID == "" {
		return nil, util.ErrInvalidSelection
	}
	policy := req.Group
	if policy == "" {
		policy = GroupRecent
	}
	mistakes, err := s.Mistakes.LoadMistakes(ctx, userID)
	if err != nil {
		return nil, err
	}
	grouped, err := GroupMistakes(FilterMistakes(mistakes, req.Filter), policy)
	if err != nil {
		return nil, err
	}
	req.QuestionIDs = grouped.QuestionIDs(req.Label)
	return s.build(ctx, userID, req.PracticeRequest, s.Defaults.ShuffleAll)
}

func (s *PracticeSessionService) build(ctx context.Context, userID string, req PracticeRequest, defaultShuffle bool) (*PracticeSessionDescriptor, error) {
	ctx, span := tracing.StartSpan(ctx, "PracticeSessionService.Build",
		attribute.String("user.id", userID), attribute.Int("questions.count", len(req.QuestionIDs)))
	defer span.End()

	ids := dedupeIDs(req.QuestionIDs)
	if userID == "" || len(ids) == 0 {
		return nil, fmt.Errorf("%w: no questions selected", util.ErrInvalidSelection)
	}
	if req.TimeLimitMinutes < 0 {
		return nil, fmt.Errorf("%w: time limit must not be negative", util.ErrInvalidSelection)
	}

	settings := model.PracticeSettings{
		Shuffle:          boolOr(req.Shuffle, defaultShuffle),
		ShowExplanations: boolOr(req.ShowExplanations, true),
		TimeLimitMinutes: req.TimeLimitMinutes,
		IsMistakeReview:  boolOr(req.IsMistakeReview, true),
	}

	first, err := s.Questions.FindByID(ctx, ids[0])
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			return nil, fmt.Errorf("%w: %v", util.ErrInvalidSelection, err)
		}
		return nil, util.NewStageError(util.ErrFetchFailed, err)
	}

	attempt, err := s.createAttempt(ctx, userID, first.Module)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	if settings.Shuffle {
		s.shuffle(ids)
	}

	session := &model.PracticeSession{
		AttemptID:   attempt.ID,
		UserID:      userID,
		QuestionIDs: datatypes.JSONSlice[string](ids),
		Settings:    datatypes.NewJSONType(settings),
	}
	if err := s.Sessions.Create(ctx, session); err != nil {
		logger.Log.Error("Failed to persist practice session", zap.String("attemptID", attempt.ID), zap.Error(err))
		tracing.RecordError(span, err)
		return nil, util.NewStageError(util.ErrSessionCreateFailed, err)
	}

	logger.Log.Info("Practice session created",
		zap.String("userID", userID),
		zap.String("attemptID", attempt.ID),
		zap.Int("questions", len(ids)),
		zap.Bool("shuffle", settings.Shuffle))
	return &PracticeSessionDescriptor{AttemptID: attempt.ID, QuestionIDs: ids, Settings: settings}, nil
}

// createAttempt 先以学生身份写入，失败后用服务端身份重试一次
func (s *PracticeSessionService) createAttempt(ctx context.Context, userID string, module model.Module) (*model.ExamAttempt, error) {
	newAttempt := func() *model.ExamAttempt {
		return &model.ExamAttempt{
			UserID:                userID,
			Status:                model.AttemptNotStarted,
			IsPracticeMode:        true,
			CurrentModule:         module,
			CurrentQuestionNumber: 1,
		}
	}

	attempt := newAttempt()
	directErr := s.Direct.CreateAttempt(ctx, userID, attempt)
	if directErr == nil {
		monitoring.PracticeSessionsCreated.WithLabelValues("direct").Inc()
		return attempt, nil
	}
	logger.Log.Warn("Direct attempt creation failed, trying privileged path", zap.String("userID", userID), zap.Error(directErr))

	attempt = newAttempt()
	if err := s.Privileged.CreateAttempt(ctx, userID, attempt); err != nil {
		logger.Log.Error("Privileged attempt creation failed", zap.String("userID", userID), zap.Error(err))
		return nil, util.NewStageError(util.ErrSessionCreateFailed, errors.Join(directErr, err))
	}
	monitoring.PracticeSessionsCreated.WithLabelValues("fallback").Inc()
	return attempt, nil
}

// shuffle Fisher-Yates
func (s *PracticeSessionService) shuffle(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(ids) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

func (s *PracticeSessionService) GetSession(ctx context.Context, userID, attemptID string) (*PracticeSessionDescriptor, error) {
	session, err := s.Sessions.FindByAttemptID(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	return toDescriptor(session), nil
}

// ConsumeSession 答题流程取走会话，每个会话只能消费一次
func (s *PracticeSessionService) ConsumeSession(ctx context.Context, userID, attemptID string) (*PracticeSessionDescriptor, error) {
	session, err := s.Sessions.FindByAttemptID(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if session.ConsumedAt != nil {
		return nil, util.ErrSessionConsumed
	}
	now := time.Now()
	if err := s.Sessions.MarkConsumed(ctx, userID, attemptID, now); err != nil {
		return nil, err
	}
	session.ConsumedAt = &now
	return toDescriptor(session), nil
}

func toDescriptor(s *model.PracticeSession) *PracticeSessionDescriptor {
	return &PracticeSessionDescriptor{
		AttemptID:   s.AttemptID,
		QuestionIDs: []string(s.QuestionIDs),
		Settings:    s.Settings.Data(),
		ConsumedAt:  s.ConsumedAt,
	}
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
