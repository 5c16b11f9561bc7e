package service

import (
	"errors"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/util"
	"testing"
	"time"
)

func aggMistake(id string, module model.Module, difficulty model.Difficulty, status model.MistakeStatus, topics ...string) model.AggregatedMistake {
	return model.AggregatedMistake{
		MistakeID: "m-" + id,
		Status:    status,
		Question: &model.Question{
			UUIDBase:   model.UUIDBase{ID: id},
			Module:     module,
			Difficulty: difficulty,
			Topics:     topics,
		},
		IncorrectAttempts: []model.AnswerSubmission{},
	}
}

func withAttemptAt(m model.AggregatedMistake, at ...time.Time) model.AggregatedMistake {
	for _, ts := range at {
		m.IncorrectAttempts = append(m.IncorrectAttempts, model.AnswerSubmission{SubmittedAt: ts})
	}
	return m
}

func sampleMistakes() []model.AggregatedMistake {
	q1 := aggMistake("q1", model.ModuleMath1, model.DifficultyHard, model.MistakeUnmastered, "algebra", "geometry")
	q1.SourceExamTitle = "Practice Test 1"
	q2 := aggMistake("q2", model.ModuleReadingWriting1, model.DifficultyEasy, model.MistakeMastered)
	q2.SourceExamTitle = "Practice Test 2"
	q3 := aggMistake("q3", model.ModuleMath1, model.DifficultyEasy, model.MistakeUnmastered, "algebra")
	q4 := aggMistake("q4", model.ModuleMath2, model.DifficultyMedium, model.MistakeMastered, "statistics")
	q4.SourceExamTitle = "Practice Test 1"
	return []model.AggregatedMistake{
		withAttemptAt(q1, baseTime),
		withAttemptAt(q2, baseTime.Add(3*time.Hour)),
		q3,
		withAttemptAt(q4, baseTime.Add(time.Hour), baseTime.Add(5*time.Hour)),
	}
}

func TestGroupingCompleteness(t *testing.T) {
	input := sampleMistakes()
	for _, policy := range []GroupPolicy{GroupRecent, GroupModule, GroupDifficulty} {
		grouped, err := GroupMistakes(input, policy)
		if err != nil {
			t.Fatalf("%s: %v", policy, err)
		}
		seen := make(map[string]int)
		for _, g := range grouped.Groups {
			if len(g.Mistakes) == 0 {
				t.Fatalf("%s: group %q is empty", policy, g.Label)
			}
			for _, m := range g.Mistakes {
				seen[m.QuestionID()]++
			}
		}
		if len(seen) != len(input) {
			t.Fatalf("%s: expected %d mistakes across groups, got %d", policy, len(input), len(seen))
		}
		for id, n := range seen {
			if n != 1 {
				t.Fatalf("%s: mistake %s appears %d times", policy, id, n)
			}
		}
	}
}

func TestGroupByTopicScenario(t *testing.T) {
	input := []model.AggregatedMistake{
		aggMistake("Q1", model.ModuleMath1, model.DifficultyEasy, model.MistakeUnmastered, "algebra", "geometry"),
		aggMistake("Q2", model.ModuleMath1, model.DifficultyEasy, model.MistakeUnmastered),
	}
	grouped, err := GroupMistakes(input, GroupTopic)
	if err != nil {
		t.Fatalf("GroupMistakes: %v", err)
	}
	got := grouped.AsMap()
	if len(got) != 3 {
		t.Fatalf("expected 3 groups, got %d: %v", len(got), got)
	}
	expect := map[string][]string{
		"algebra":     {"Q1"},
		"geometry":    {"Q1"},
		UntaggedLabel: {"Q2"},
	}
	for label, ids := range expect {
		members := mistakeIDs(got[label])
		if len(members) != len(ids) || members[0] != ids[0] {
			t.Fatalf("group %q: expected %v, got %v", label, ids, members)
		}
	}
	if last := grouped.Groups[len(grouped.Groups)-1].Label; last != UntaggedLabel {
		t.Fatalf("expected Untagged to be listed last, got %q", last)
	}
}

func TestGroupByTopicDuplicateTagCountsOnce(t *testing.T) {
	input := []model.AggregatedMistake{
		aggMistake("Q1", model.ModuleMath1, model.DifficultyEasy, model.MistakeUnmastered, "algebra", "algebra"),
	}
	grouped, _ := GroupMistakes(input, GroupTopic)
	if n := len(grouped.AsMap()["algebra"]); n != 1 {
		t.Fatalf("expected Q1 once in algebra, got %d", n)
	}
}

func TestGroupByTopicIgnoresBlankTags(t *testing.T) {
	input := []model.AggregatedMistake{
		aggMistake("Q1", model.ModuleMath1, model.DifficultyEasy, model.MistakeUnmastered, "", "  "),
		aggMistake("Q2", model.ModuleMath1, model.DifficultyEasy, model.MistakeUnmastered, "algebra", ""),
	}
	grouped, err := GroupMistakes(input, GroupTopic)
	if err != nil {
		t.Fatalf("GroupMistakes: %v", err)
	}
	for _, g := range grouped.Groups {
		if g.Label == "" || g.Label == "  " {
			t.Fatalf("blank tag produced group %q", g.Label)
		}
	}
	byLabel := grouped.AsMap()
	if ids := mistakeIDs(byLabel[UntaggedLabel]); len(ids) != 1 || ids[0] != "Q1" {
		t.Fatalf("expected Q1 untagged, got %v", ids)
	}
	if ids := mistakeIDs(byLabel["algebra"]); len(ids) != 1 || ids[0] != "Q2" {
		t.Fatalf("expected Q2 under algebra, got %v", ids)
	}

	got := FilterMistakes(input, MistakeFilter{Topics: []string{UntaggedLabel}})
	if ids := mistakeIDs(got); len(ids) != 1 || ids[0] != "Q1" {
		t.Fatalf("expected only Q1 for the untagged filter, got %v", ids)
	}
}

func TestGroupRecentSortsByLatestIncorrectAttempt(t *testing.T) {
	grouped, err := GroupMistakes(sampleMistakes(), GroupRecent)
	if err != nil {
		t.Fatalf("GroupMistakes: %v", err)
	}
	if len(grouped.Groups) != 1 || grouped.Groups[0].Label != RecentGroupLabel {
		t.Fatalf("expected a single %q group, got %+v", RecentGroupLabel, grouped.Groups)
	}
	// q4 最新 +5h，q2 +3h，q1 +0h，q3 无记录排最后
	want := []string{"q4", "q2", "q1", "q3"}
	got := mistakeIDs(grouped.Groups[0].Mistakes)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestGroupRecentIsStableForEqualKeys(t *testing.T) {
	input := []model.AggregatedMistake{
		aggMistake("a", model.ModuleMath1, model.DifficultyEasy, model.MistakeUnmastered),
		aggMistake("b", model.ModuleMath1, model.DifficultyEasy, model.MistakeUnmastered),
		aggMistake("c", model.ModuleMath1, model.DifficultyEasy, model.MistakeUnmastered),
	}
	grouped, _ := GroupMistakes(input, GroupRecent)
	got := mistakeIDs(grouped.Groups[0].Mistakes)
	if got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("expected original order to be preserved, got %v", got)
	}
}

func TestGroupByModuleAndDifficultyLabels(t *testing.T) {
	grouped, _ := GroupMistakes(sampleMistakes(), GroupModule)
	labels := make([]string, 0)
	for _, g := range grouped.Groups {
		labels = append(labels, g.Label)
	}
	want := []string{"Reading and Writing - Module 1", "Math - Module 1", "Math - Module 2"}
	if len(labels) != len(want) {
		t.Fatalf("expected %v, got %v", want, labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, labels)
		}
	}
	math1 := mistakeIDs(grouped.AsMap()["Math - Module 1"])
	if len(math1) != 2 || math1[0] != "q1" || math1[1] != "q3" {
		t.Fatalf("expected original order within group, got %v", math1)
	}

	byDifficulty, _ := GroupMistakes(sampleMistakes(), GroupDifficulty)
	m := byDifficulty.AsMap()
	if len(m["Easy"]) != 2 || len(m["Hard"]) != 1 || len(m["Medium"]) != 1 {
		t.Fatalf("unexpected difficulty groups: %v", m)
	}
	if byDifficulty.Groups[0].Label != "Easy" {
		t.Fatalf("expected Easy first, got %q", byDifficulty.Groups[0].Label)
	}
}

func TestGroupEmptyInputHasNoGroups(t *testing.T) {
	for _, policy := range []GroupPolicy{GroupRecent, GroupModule, GroupDifficulty, GroupTopic} {
		grouped, err := GroupMistakes(nil, policy)
		if err != nil {
			t.Fatalf("%s: %v", policy, err)
		}
		if len(grouped.Groups) != 0 {
			t.Fatalf("%s: expected no groups, got %d", policy, len(grouped.Groups))
		}
	}
}

func TestGroupUnknownPolicy(t *testing.T) {
	if _, err := GroupMistakes(sampleMistakes(), GroupPolicy("mastery")); !errors.Is(err, util.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
	if _, err := ParseGroupPolicy("nope"); err == nil {
		t.Fatalf("expected parse error")
	}
	if p, err := ParseGroupPolicy(""); err != nil || p != GroupRecent {
		t.Fatalf("expected recent by default, got %q, %v", p, err)
	}
}

func TestMasteryFilter(t *testing.T) {
	input := sampleMistakes()

	unmastered := FilterMistakes(input, MistakeFilter{Mastery: MasteryUnmastered})
	for _, m := range unmastered {
		if m.Status == model.MistakeMastered {
			t.Fatalf("unmastered filter returned mastered mistake %s", m.QuestionID())
		}
	}
	if len(unmastered) != 2 {
		t.Fatalf("expected 2 unmastered, got %d", len(unmastered))
	}

	mastered := FilterMistakes(input, MistakeFilter{Mastery: MasteryMastered})
	for _, m := range mastered {
		if m.Status != model.MistakeMastered {
			t.Fatalf("mastered filter returned unmastered mistake %s", m.QuestionID())
		}
	}
	if len(mastered) != 2 {
		t.Fatalf("expected 2 mastered, got %d", len(mastered))
	}

	if all := FilterMistakes(input, MistakeFilter{Mastery: MasteryAll}); len(all) != len(input) {
		t.Fatalf("all filter excluded mistakes: %d of %d", len(all), len(input))
	}
}

func TestExamFilterAppliesBeforeGrouping(t *testing.T) {
	filtered := FilterMistakes(sampleMistakes(), MistakeFilter{ExamTitles: []string{"Practice Test 1"}})
	ids := mistakeIDs(filtered)
	if len(ids) != 2 || ids[0] != "q1" || ids[1] != "q4" {
		t.Fatalf("expected q1 and q4, got %v", ids)
	}
	grouped, _ := GroupMistakes(filtered, GroupModule)
	if grouped.Total != 2 {
		t.Fatalf("expected total 2, got %d", grouped.Total)
	}
	if _, ok := grouped.AsMap()["Reading and Writing - Module 1"]; ok {
		t.Fatalf("filtered-out module must not produce a group")
	}
}

func TestPoolFilters(t *testing.T) {
	input := sampleMistakes()
	input[2].Question.QuestionType = model.QuestionGridIn

	got := FilterMistakes(input, MistakeFilter{Modules: []model.Module{model.ModuleMath1}, Difficulties: []model.Difficulty{model.DifficultyEasy}})
	if ids := mistakeIDs(got); len(ids) != 1 || ids[0] != "q3" {
		t.Fatalf("expected q3, got %v", ids)
	}

	got = FilterMistakes(input, MistakeFilter{Types: []model.QuestionType{model.QuestionGridIn}})
	if ids := mistakeIDs(got); len(ids) != 1 || ids[0] != "q3" {
		t.Fatalf("expected q3 by type, got %v", ids)
	}

	got = FilterMistakes(input, MistakeFilter{Topics: []string{"geometry", UntaggedLabel}})
	if ids := mistakeIDs(got); len(ids) != 2 || ids[0] != "q1" || ids[1] != "q2" {
		t.Fatalf("expected q1 and q2 by topic, got %v", ids)
	}
}

func TestQuestionIDsForView(t *testing.T) {
	grouped, _ := GroupMistakes(sampleMistakes(), GroupTopic)
	all := grouped.QuestionIDs("")
	if len(all) != 4 {
		t.Fatalf("expected 4 distinct questions, got %v", all)
	}
	algebra := grouped.QuestionIDs("algebra")
	if len(algebra) != 2 || algebra[0] != "q1" || algebra[1] != "q3" {
		t.Fatalf("expected q1, q3 for algebra, got %v", algebra)
	}
}
