package service

import (
	"context"
	"errors"
	"fmt"
	"sat_practice_backend/internal/config"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/repository"
	"sat_practice_backend/internal/util"
	"sat_practice_backend/pkg/logger"
	"sat_practice_backend/pkg/monitoring"
	"sat_practice_backend/pkg/tracing"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// DraftStore 向导草稿存取
type DraftStore interface {
	Load(ctx context.Context, adminID string) (*model.AssignmentDraft, error)
	Save(ctx context.Context, draft *model.AssignmentDraft) error
	Delete(ctx context.Context, adminID string) error
}

// AssignmentWriter 补救作业的各阶段写入与对应的删除
type AssignmentWriter interface {
	CreateExam(ctx context.Context, exam *model.Exam) error
	DeleteExam(ctx context.Context, examID string) error
	LinkQuestions(ctx context.Context, examID string, questionIDs []string) error
	UnlinkQuestions(ctx context.Context, examID string) error
	CreateAssignments(ctx context.Context, assignments []model.Assignment) error
	DeleteAssignments(ctx context.Context, examID string) error
}

type StudentLister interface {
	ListStudentsWithMistakeCounts(ctx context.Context) ([]repository.StudentMistakeCount, error)
}

// PoolFilter 第二步可用的筛选，不含掌握状态与来源试卷
type PoolFilter struct {
	Modules      []model.Module       `json:"modules" form:"modules"`
	Difficulties []model.Difficulty   `json:"difficulties" form:"difficulties"`
	Types        []model.QuestionType `json:"types" form:"types"`
	Topics       []string             `json:"topics" form:"topics"`
}

type FinalizeRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	MistakeIDs  []string   `json:"mistakeIds"`
	DueDate     *time.Time `json:"dueDate"`
	ShowResults *bool      `json:"showResults"`
}

type RemedialAssignmentService struct {
	Drafts   DraftStore
	Writer   AssignmentWriter
	Students StudentLister
	Mistakes *MistakeService
	Config   config.AssignmentConfig
	now      func() time.Time
}

func NewRemedialAssignmentService(
	drafts DraftStore,
	writer AssignmentWriter,
	students StudentLister,
	mistakes *MistakeService,
	cfg config.AssignmentConfig,
) *RemedialAssignmentService {
	return &RemedialAssignmentService{
		Drafts:   drafts,
		Writer:   writer,
		Students: students,
		Mistakes: mistakes,
		Config:   cfg,
		now:      time.Now,
	}
}

func (s *RemedialAssignmentService) ListStudents(ctx context.Context) ([]repository.StudentMistakeCount, error) {
	students, err := s.Students.ListStudentsWithMistakeCounts(ctx)
	if err != nil {
		return nil, util.NewStageError(util.ErrFetchFailed, err)
	}
	return students, nil
}

// Start 新建向导草稿，覆盖该管理员已有的草稿
func (s *RemedialAssignmentService) Start(ctx context.Context, adminID string) (*model.AssignmentDraft, error) {
	draft := &model.AssignmentDraft{
		AdminID:    adminID,
		Step:       model.DraftSelectingStudents,
		StudentIDs: []string{},
		Pool:       []model.AggregatedMistake{},
		UpdatedAt:  s.now(),
	}
	if err := s.Drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *RemedialAssignmentService) Current(ctx context.Context, adminID string) (*model.AssignmentDraft, error) {
	return s.Drafts.Load(ctx, adminID)
}

// Discard 放弃向导
func (s *RemedialAssignmentService) Discard(ctx context.Context, adminID string) error {
	return s.Drafts.Delete(ctx, adminID)
}

// SelectStudents 第一步：选择学生并加载他们的错题池
func (s *RemedialAssignmentService) SelectStudents(ctx context.Context, adminID string, studentIDs []string) (*model.AssignmentDraft, error) {
	draft, err := s.Drafts.Load(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if draft.Step != model.DraftSelectingStudents {
		return nil, util.ErrDraftState
	}
	ids := dedupeIDs(studentIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no students selected", util.ErrInvalidSelection)
	}

	pool, err := s.Mistakes.LoadStudentMistakes(ctx, ids)
	if err != nil {
		return nil, err
	}

	draft.StudentIDs = ids
	draft.Pool = pool
	draft.Step = model.DraftSelectingMistakes
	draft.UpdatedAt = s.now()
	if err := s.Drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Pool 第二步：筛选后的错题池
func (s *RemedialAssignmentService) Pool(ctx context.Context, adminID string, f PoolFilter) ([]model.AggregatedMistake, error) {
	draft, err := s.Drafts.Load(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if draft.Step != model.DraftSelectingMistakes {
		return nil, util.ErrDraftState
	}
	return FilterMistakes(draft.Pool, MistakeFilter{
		Modules:      f.Modules,
		Difficulties: f.Difficulties,
		Types:        f.Types,
		Topics:       f.Topics,
	}), nil
}

// Back 返回第一步，丢弃已选学生与错题池
func (s *RemedialAssignmentService) Back(ctx context.Context, adminID string) (*model.AssignmentDraft, error) {
	draft, err := s.Drafts.Load(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if draft.Step == model.DraftCreated {
		return nil, util.ErrDraftState
	}
	draft.Step = model.DraftSelectingStudents
	draft.StudentIDs = []string{}
	draft.Pool = []model.AggregatedMistake{}
	draft.UpdatedAt = s.now()
	if err := s.Drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Finalize 生成试卷、关联题目并分配给第一步选中的每名学生。
// 任一阶段失败都会删除已写入的数据，草稿保留以便重试。
func (s *RemedialAssignmentService) Finalize(ctx context.Context, adminID string, req FinalizeRequest) (*model.RemedialAssignment, error) {
	ctx, span := tracing.StartSpan(ctx, "RemedialAssignmentService.Finalize", attribute.String("admin.id", adminID))
	defer span.End()

	draft, err := s.Drafts.Load(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if draft.Step != model.DraftSelectingMistakes {
		return nil, util.ErrDraftState
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", util.ErrInvalidSelection)
	}
	questionIDs, err := resolveQuestionIDs(draft.Pool, req.MistakeIDs)
	if err != nil {
		return nil, err
	}
	if len(draft.StudentIDs) == 0 {
		return nil, fmt.Errorf("%w: no students selected", util.ErrInvalidSelection)
	}

	exam := &model.Exam{
		Title:              title,
		Description:        req.Description,
		IsCustomAssignment: true,
		TotalQuestions:     len(questionIDs),
		TimeLimits:         datatypes.NewJSONType(s.moduleTimeLimits()),
		CreatedBy:          adminID,
	}
	showResults := boolOr(req.ShowResults, true)
	var assignments []model.Assignment

	err = runSaga(ctx, []sagaStep{
		{
			name:  "exam",
			stage: util.ErrExamCreateFailed,
			run:   func(ctx context.Context) error { return s.Writer.CreateExam(ctx, exam) },
			compensate: func(ctx context.Context) error {
				if exam.ID == "" {
					return nil
				}
				return s.Writer.DeleteExam(ctx, exam.ID)
			},
		},
		{
			name:       "questions",
			stage:      util.ErrQuestionLinkFailed,
			run:        func(ctx context.Context) error { return s.Writer.LinkQuestions(ctx, exam.ID, questionIDs) },
			compensate: func(ctx context.Context) error { return s.Writer.UnlinkQuestions(ctx, exam.ID) },
		},
		{
			name:  "assignments",
			stage: util.ErrAssignmentCreateFailed,
			run: func(ctx context.Context) error {
				assignments = make([]model.Assignment, 0, len(draft.StudentIDs))
				for _, studentID := range draft.StudentIDs {
					assignments = append(assignments, model.Assignment{
						ExamID:      exam.ID,
						StudentID:   studentID,
						AssignedBy:  adminID,
						DueDate:     req.DueDate,
						ShowResults: showResults,
						IsActive:    true,
					})
				}
				return s.Writer.CreateAssignments(ctx, assignments)
			},
			compensate: func(ctx context.Context) error { return s.Writer.DeleteAssignments(ctx, exam.ID) },
		},
	})
	if err != nil {
		monitoring.RemedialAssignments.WithLabelValues("failure").Inc()
		tracing.RecordError(span, err)
		return nil, err
	}
	monitoring.RemedialAssignments.WithLabelValues("success").Inc()

	draft.Step = model.DraftCreated
	draft.Pool = []model.AggregatedMistake{}
	draft.UpdatedAt = s.now()
	if err := s.Drafts.Save(ctx, draft); err != nil {
		logger.Log.Warn("Failed to mark assignment draft as created", zap.String("adminID", adminID), zap.Error(err))
	}

	logger.Log.Info("Remedial assignment created",
		zap.String("examID", exam.ID),
		zap.Int("questions", len(questionIDs)),
		zap.Int("students", len(assignments)))
	return &model.RemedialAssignment{Exam: exam, QuestionIDs: questionIDs, Assignments: assignments}, nil
}

// moduleTimeLimits 每个模块固定时长，与实际题目分布无关
func (s *RemedialAssignmentService) moduleTimeLimits() map[model.Module]int {
	count := s.Config.ModuleCount
	if count > len(model.AllModules) {
		count = len(model.AllModules)
	}
	limits := make(map[model.Module]int, count)
	for _, m := range model.AllModules[:count] {
		limits[m] = s.Config.ModuleMinutes
	}
	return limits
}

// resolveQuestionIDs 错题 ID 转题目 ID，按选择顺序去重
func resolveQuestionIDs(pool []model.AggregatedMistake, mistakeIDs []string) ([]string, error) {
	byID := make(map[string]*model.AggregatedMistake, len(pool))
	for i := range pool {
		byID[pool[i].MistakeID] = &pool[i]
	}
	seen := make(map[string]bool)
	questionIDs := make([]string, 0, len(mistakeIDs))
	var unknown []error
	for _, id := range dedupeIDs(mistakeIDs) {
		m, ok := byID[id]
		if !ok || m.QuestionID() == "" {
			unknown = append(unknown, fmt.Errorf("mistake %s is not in the selected pool", id))
			continue
		}
		if seen[m.QuestionID()] {
			continue
		}
		seen[m.QuestionID()] = true
		questionIDs = append(questionIDs, m.QuestionID())
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidSelection, errors.Join(unknown...))
	}
	if len(questionIDs) == 0 {
		return nil, fmt.Errorf("%w: no mistakes selected", util.ErrInvalidSelection)
	}
	return questionIDs, nil
}
