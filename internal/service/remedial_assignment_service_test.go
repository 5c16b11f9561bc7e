package service

import (
	"context"
	"errors"
	"sat_practice_backend/internal/config"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/repository"
	"sat_practice_backend/internal/util"
	"testing"
	"time"

	"gorm.io/gorm"
)

func newTestAssignmentService(db *gorm.DB) *RemedialAssignmentService {
	return NewRemedialAssignmentService(
		repository.NewMemoryDraftStore(time.Hour),
		repository.NewExamRepository(db),
		repository.NewUserRepository(db),
		newTestMistakeService(db),
		config.AssignmentConfig{ModuleMinutes: 35, ModuleCount: 4},
	)
}

type abFixture struct {
	admin      *model.User
	a, b       *model.User
	q1, q2, q3 *model.Question
}

// A 错 {Q1, Q2}，B 错 {Q2, Q3}
func seedABScenario(t *testing.T, db *gorm.DB) abFixture {
	t.Helper()
	f := abFixture{
		admin: seedUser(t, db, "Admin", model.Admin),
		a:     seedUser(t, db, "StudentA", model.Student),
		b:     seedUser(t, db, "StudentB", model.Student),
		q1:    seedQuestion(t, db, model.ModuleMath1, withTopics("algebra")),
		q2:    seedQuestion(t, db, model.ModuleReadingWriting1, withDifficulty(model.DifficultyHard)),
		q3:    seedQuestion(t, db, model.ModuleMath2, withType(model.QuestionGridIn)),
	}
	seedMistake(t, db, f.a.ID, f.q1.ID, model.MistakeUnmastered, baseTime)
	seedMistake(t, db, f.a.ID, f.q2.ID, model.MistakeUnmastered, baseTime.Add(time.Minute))
	seedMistake(t, db, f.b.ID, f.q2.ID, model.MistakeMastered, baseTime.Add(2*time.Minute))
	seedMistake(t, db, f.b.ID, f.q3.ID, model.MistakeUnmastered, baseTime.Add(3*time.Minute))
	return f
}

func poolMistakeIDs(pool []model.AggregatedMistake) []string {
	ids := make([]string, 0, len(pool))
	for _, m := range pool {
		ids = append(ids, m.MistakeID)
	}
	return ids
}

func TestFinalizeDeduplicatesAcrossStudents(t *testing.T) {
	db := newTestDB(t)
	f := seedABScenario(t, db)
	svc := newTestAssignmentService(db)
	ctx := context.Background()

	if _, err := svc.Start(ctx, f.admin.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	draft, err := svc.SelectStudents(ctx, f.admin.ID, []string{f.a.ID, f.b.ID})
	if err != nil {
		t.Fatalf("SelectStudents: %v", err)
	}
	if draft.Step != model.DraftSelectingMistakes || len(draft.Pool) != 4 {
		t.Fatalf("expected 4 mistakes in the pool, got step=%s pool=%d", draft.Step, len(draft.Pool))
	}
	for i := 1; i < len(draft.Pool); i++ {
		if draft.Pool[i].FirstMistakenAt.After(draft.Pool[i-1].FirstMistakenAt) {
			t.Fatalf("pool not ordered by first_mistaken_at desc")
		}
	}

	result, err := svc.Finalize(ctx, f.admin.ID, FinalizeRequest{
		Title:      "Remedial Set 1",
		MistakeIDs: poolMistakeIDs(draft.Pool),
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if result.Exam.TotalQuestions != 3 {
		t.Fatalf("expected total_questions 3, got %d", result.Exam.TotalQuestions)
	}
	if !sameSet(result.QuestionIDs, []string{f.q1.ID, f.q2.ID, f.q3.ID}) {
		t.Fatalf("unexpected question set %v", result.QuestionIDs)
	}

	exams := repository.NewExamRepository(db)
	stored, err := exams.FindExam(ctx, result.Exam.ID)
	if err != nil {
		t.Fatalf("exam not stored: %v", err)
	}
	if !stored.IsCustomAssignment || stored.Title != "Remedial Set 1" || stored.CreatedBy != f.admin.ID {
		t.Fatalf("unexpected exam: %+v", stored)
	}
	limits := stored.TimeLimits.Data()
	if len(limits) != 4 {
		t.Fatalf("expected 4 module time limits, got %v", limits)
	}
	for _, m := range model.AllModules {
		if limits[m] != 35 {
			t.Fatalf("expected 35 minutes for %s, got %d", m, limits[m])
		}
	}

	links, _ := exams.ListQuestionLinks(ctx, result.Exam.ID)
	if len(links) != 3 {
		t.Fatalf("expected 3 question links, got %d", len(links))
	}
	linked := make([]string, 0, len(links))
	for i, l := range links {
		if l.Position != i+1 {
			t.Fatalf("expected positions from 1, got %d at %d", l.Position, i)
		}
		linked = append(linked, l.QuestionID)
	}
	if !sameSet(linked, []string{f.q1.ID, f.q2.ID, f.q3.ID}) {
		t.Fatalf("unexpected linked questions %v", linked)
	}

	assignments, _ := exams.ListAssignments(ctx, result.Exam.ID)
	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignment rows, got %d", len(assignments))
	}
	students := make([]string, 0, 2)
	for _, a := range assignments {
		if a.ExamID != result.Exam.ID {
			t.Fatalf("assignment references another exam")
		}
		if !a.ShowResults || !a.IsActive || a.DueDate != nil {
			t.Fatalf("unexpected assignment defaults: %+v", a)
		}
		students = append(students, a.StudentID)
	}
	if !sameSet(students, []string{f.a.ID, f.b.ID}) {
		t.Fatalf("unexpected students %v", students)
	}
	if n := countRows(t, db, &model.Exam{}); n != 1 {
		t.Fatalf("expected exactly one exam, got %d", n)
	}

	// 去重后的题数小于各学生错题数之和
	if result.Exam.TotalQuestions >= len(draft.Pool) {
		t.Fatalf("expected overlap to reduce the question count")
	}

	after, err := svc.Current(ctx, f.admin.ID)
	if err != nil || after.Step != model.DraftCreated {
		t.Fatalf("expected draft in created state, got %+v, %v", after, err)
	}
	if _, err := svc.Back(ctx, f.admin.ID); !errors.Is(err, util.ErrDraftState) {
		t.Fatalf("created draft must not go back, got %v", err)
	}
}

func TestFinalizeAssignsEverySelectedStudent(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "Admin", model.Admin)
	q := seedQuestion(t, db, model.ModuleMath1)
	var students []string
	for _, name := range []string{"S1", "S2", "S3", "S4"} {
		s := seedUser(t, db, name, model.Student)
		students = append(students, s.ID)
	}
	// 只有 S1 有错题，其余学生仍然收到作业
	seedMistake(t, db, students[0], q.ID, model.MistakeUnmastered, baseTime)

	svc := newTestAssignmentService(db)
	ctx := context.Background()
	svc.Start(ctx, admin.ID)
	draft, err := svc.SelectStudents(ctx, admin.ID, students)
	if err != nil {
		t.Fatalf("SelectStudents: %v", err)
	}
	due := baseTime.Add(7 * 24 * time.Hour)
	result, err := svc.Finalize(ctx, admin.ID, FinalizeRequest{
		Title:       "Week 1",
		MistakeIDs:  poolMistakeIDs(draft.Pool),
		DueDate:     &due,
		ShowResults: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(result.Assignments) != 4 {
		t.Fatalf("expected 4 assignments, got %d", len(result.Assignments))
	}
	stored, _ := repository.NewExamRepository(db).ListAssignments(ctx, result.Exam.ID)
	if len(stored) != 4 {
		t.Fatalf("expected 4 stored assignments, got %d", len(stored))
	}
	for _, a := range stored {
		if a.ShowResults || a.DueDate == nil || !a.DueDate.Equal(due) {
			t.Fatalf("request overrides not applied: %+v", a)
		}
	}
}

func TestPoolFilterAndBack(t *testing.T) {
	db := newTestDB(t)
	f := seedABScenario(t, db)
	svc := newTestAssignmentService(db)
	ctx := context.Background()

	if _, err := svc.Pool(ctx, f.admin.ID, PoolFilter{}); !errors.Is(err, util.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound before start, got %v", err)
	}
	svc.Start(ctx, f.admin.ID)
	if _, err := svc.Pool(ctx, f.admin.ID, PoolFilter{}); !errors.Is(err, util.ErrDraftState) {
		t.Fatalf("expected ErrDraftState before selecting students, got %v", err)
	}
	if _, err := svc.SelectStudents(ctx, f.admin.ID, nil); !errors.Is(err, util.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection for no students, got %v", err)
	}
	if _, err := svc.SelectStudents(ctx, f.admin.ID, []string{f.a.ID, f.b.ID}); err != nil {
		t.Fatalf("SelectStudents: %v", err)
	}

	math, err := svc.Pool(ctx, f.admin.ID, PoolFilter{Modules: []model.Module{model.ModuleMath1, model.ModuleMath2}})
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if len(math) != 2 {
		t.Fatalf("expected 2 math mistakes, got %d", len(math))
	}
	hard, _ := svc.Pool(ctx, f.admin.ID, PoolFilter{Difficulties: []model.Difficulty{model.DifficultyHard}})
	if len(hard) != 2 {
		t.Fatalf("expected q2 for both students, got %d", len(hard))
	}
	gridIn, _ := svc.Pool(ctx, f.admin.ID, PoolFilter{Types: []model.QuestionType{model.QuestionGridIn}})
	if len(gridIn) != 1 || gridIn[0].QuestionID() != f.q3.ID {
		t.Fatalf("expected q3 only, got %v", mistakeIDs(gridIn))
	}
	algebra, _ := svc.Pool(ctx, f.admin.ID, PoolFilter{Topics: []string{"algebra"}})
	if len(algebra) != 1 || algebra[0].QuestionID() != f.q1.ID {
		t.Fatalf("expected q1 only, got %v", mistakeIDs(algebra))
	}

	draft, err := svc.Back(ctx, f.admin.ID)
	if err != nil {
		t.Fatalf("Back: %v", err)
	}
	if draft.Step != model.DraftSelectingStudents || len(draft.StudentIDs) != 0 || len(draft.Pool) != 0 {
		t.Fatalf("Back must discard selections: %+v", draft)
	}
	if _, err := svc.Finalize(ctx, f.admin.ID, FinalizeRequest{Title: "x", MistakeIDs: []string{"m"}}); !errors.Is(err, util.ErrDraftState) {
		t.Fatalf("expected ErrDraftState after going back, got %v", err)
	}
}

func TestFinalizeValidation(t *testing.T) {
	db := newTestDB(t)
	f := seedABScenario(t, db)
	svc := newTestAssignmentService(db)
	ctx := context.Background()
	svc.Start(ctx, f.admin.ID)
	draft, _ := svc.SelectStudents(ctx, f.admin.ID, []string{f.a.ID})

	cases := []FinalizeRequest{
		{Title: "   ", MistakeIDs: poolMistakeIDs(draft.Pool)},
		{Title: "Set", MistakeIDs: nil},
		{Title: "Set", MistakeIDs: []string{"not-in-pool"}},
	}
	for i, req := range cases {
		if _, err := svc.Finalize(ctx, f.admin.ID, req); !errors.Is(err, util.ErrInvalidSelection) {
			t.Fatalf("case %d: expected ErrInvalidSelection, got %v", i, err)
		}
	}
	if n := countRows(t, db, &model.Exam{}); n != 0 {
		t.Fatalf("validation failures must not write, got %d exams", n)
	}
}

type flakyWriter struct {
	AssignmentWriter
	failLink        bool
	failAssignments bool
}

func (w *flakyWriter) LinkQuestions(ctx context.Context, examID string, questionIDs []string) error {
	if w.failLink {
		return errors.New("duplicate key value violates unique constraint")
	}
	return w.AssignmentWriter.LinkQuestions(ctx, examID, questionIDs)
}

func (w *flakyWriter) CreateAssignments(ctx context.Context, assignments []model.Assignment) error {
	if w.failAssignments {
		return errors.New("permission denied for table exam_assignments")
	}
	return w.AssignmentWriter.CreateAssignments(ctx, assignments)
}

func TestFinalizeCompensatesFailedStages(t *testing.T) {
	tests := []struct {
		name   string
		writer func(AssignmentWriter) *flakyWriter
		stage  error
	}{
		{
			name:   "question link",
			writer: func(w AssignmentWriter) *flakyWriter { return &flakyWriter{AssignmentWriter: w, failLink: true} },
			stage:  util.ErrQuestionLinkFailed,
		},
		{
			name:   "assignment create",
			writer: func(w AssignmentWriter) *flakyWriter { return &flakyWriter{AssignmentWriter: w, failAssignments: true} },
			stage:  util.ErrAssignmentCreateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			f := seedABScenario(t, db)
			svc := newTestAssignmentService(db)
			svc.Writer = tt.writer(svc.Writer)
			ctx := context.Background()
			svc.Start(ctx, f.admin.ID)
			draft, _ := svc.SelectStudents(ctx, f.admin.ID, []string{f.a.ID, f.b.ID})

			_, err := svc.Finalize(ctx, f.admin.ID, FinalizeRequest{Title: "Set", MistakeIDs: poolMistakeIDs(draft.Pool)})
			if !errors.Is(err, tt.stage) {
				t.Fatalf("expected %v, got %v", tt.stage, err)
			}
			var stageErr *util.StageError
			if !errors.As(err, &stageErr) || stageErr.Err == nil {
				t.Fatalf("expected the underlying error to be kept, got %v", err)
			}

			for _, m := range []interface{}{&model.Exam{}, &model.ExamQuestion{}, &model.Assignment{}} {
				if n := countRows(t, db, m); n != 0 {
					t.Fatalf("expected %T rows to be rolled back, got %d", m, n)
				}
			}

			// 草稿保留，修复后可重试
			current, err := svc.Current(ctx, f.admin.ID)
			if err != nil || current.Step != model.DraftSelectingMistakes {
				t.Fatalf("draft should stay on the mistake step, got %+v, %v", current, err)
			}
		})
	}
}

type failingExamWriter struct {
	AssignmentWriter
}

func (failingExamWriter) CreateExam(context.Context, *model.Exam) error {
	return errors.New("insert into exams failed")
}

func TestFinalizeExamCreateFailed(t *testing.T) {
	db := newTestDB(t)
	f := seedABScenario(t, db)
	svc := newTestAssignmentService(db)
	svc.Writer = failingExamWriter{AssignmentWriter: svc.Writer}
	ctx := context.Background()
	svc.Start(ctx, f.admin.ID)
	draft, _ := svc.SelectStudents(ctx, f.admin.ID, []string{f.a.ID})

	_, err := svc.Finalize(ctx, f.admin.ID, FinalizeRequest{Title: "Set", MistakeIDs: poolMistakeIDs(draft.Pool)})
	if !errors.Is(err, util.ErrExamCreateFailed) {
		t.Fatalf("expected ErrExamCreateFailed, got %v", err)
	}
	if err.Error() != "exam create failed: insert into exams failed" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestListStudentsWithMistakeCounts(t *testing.T) {
	db := newTestDB(t)
	f := seedABScenario(t, db)
	svc := newTestAssignmentService(db)

	students, err := svc.ListStudents(context.Background())
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("expected only students, got %d", len(students))
	}
	for _, s := range students {
		switch s.ID {
		case f.a.ID:
			if s.MistakeCount != 2 || s.UnmasteredCount != 2 {
				t.Fatalf("unexpected counts for A: %+v", s)
			}
		case f.b.ID:
			if s.MistakeCount != 2 || s.UnmasteredCount != 1 {
				t.Fatalf("unexpected counts for B: %+v", s)
			}
		default:
			t.Fatalf("unexpected user %s", s.ID)
		}
	}
}

func TestModuleTimeLimitsClampToKnownModules(t *testing.T) {
	svc := &RemedialAssignmentService{Config: config.AssignmentConfig{ModuleMinutes: 20, ModuleCount: 9}}
	limits := svc.moduleTimeLimits()
	if len(limits) != len(model.AllModules) {
		t.Fatalf("expected %d modules, got %d", len(model.AllModules), len(limits))
	}
	svc.Config.ModuleCount = 2
	limits = svc.moduleTimeLimits()
	if len(limits) != 2 || limits[model.ModuleReadingWriting1] != 20 || limits[model.ModuleReadingWriting2] != 20 {
		t.Fatalf("unexpected limits %v", limits)
	}
}
