package service

import (
	"fmt"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/util"
	"sort"
	"strings"
)

type GroupPolicy string

const (
	GroupRecent     GroupPolicy = "recent"
	GroupModule     GroupPolicy = "module"
	GroupDifficulty GroupPolicy = "difficulty"
	GroupTopic      GroupPolicy = "topic"
)

type MasteryFilter string

const (
	MasteryAll        MasteryFilter = "all"
	MasteryUnmastered MasteryFilter = "unmastered"
	MasteryMastered   MasteryFilter = "mastered"
)

const (
	RecentGroupLabel = "All Mistake Questions"
	UntaggedLabel    = "Untagged"
)

func ParseGroupPolicy(s string) (GroupPolicy, error) {
	switch p := GroupPolicy(s); p {
	case "":
		return GroupRecent, nil
	case GroupRecent, GroupModule, GroupDifficulty, GroupTopic:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown group policy %q", util.ErrInvalidSelection, s)
}

func ParseMasteryFilter(s string) (MasteryFilter, error) {
	switch m := MasteryFilter(s); m {
	case "":
		return MasteryAll, nil
	case MasteryAll, MasteryUnmastered, MasteryMastered:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown mastery filter %q", util.ErrInvalidSelection, s)
}

// MistakeFilter 各字段为空表示不限制
type MistakeFilter struct {
	Mastery      MasteryFilter        `json:"mastery" form:"mastery"`
	ExamTitles   []string             `json:"exams" form:"exams"`
	Modules      []model.Module       `json:"modules" form:"modules"`
	Difficulties []model.Difficulty   `json:"difficulties" form:"difficulties"`
	Types        []model.QuestionType `json:"types" form:"types"`
	Topics       []string             `json:"topics" form:"topics"`
}

type MistakeGroup struct {
	Label    string                    `json:"label"`
	Mistakes []model.AggregatedMistake `json:"mistakes"`
}

// GroupedMistakes 分组结果，Groups 保持展示顺序，不含空分组
type GroupedMistakes struct {
	Policy GroupPolicy    `json:"policy"`
	Groups []MistakeGroup `json:"groups"`
	Total  int            `json:"total"`
}

func (g GroupedMistakes) AsMap() map[string][]model.AggregatedMistake {
	m := make(map[string][]model.AggregatedMistake, len(g.Groups))
	for _, grp := range g.Groups {
		m[grp.Label] = grp.Mistakes
	}
	return m
}

// QuestionIDs 当前可见题目（可限定某一分组），去重并保持顺序
func (g GroupedMistakes) QuestionIDs(label string) []string {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, grp := range g.Groups {
		if label != "" && grp.Label != label {
			continue
		}
		for i := range grp.Mistakes {
			id := grp.Mistakes[i].QuestionID()
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// FilterMistakes 返回满足所有条件的错题，保持原有顺序
func FilterMistakes(mistakes []model.AggregatedMistake, f MistakeFilter) []model.AggregatedMistake {
	exams := toSet(f.ExamTitles)
	topics := toSet(f.Topics)
	out := make([]model.AggregatedMistake, 0, len(mistakes))
	for _, m := range mistakes {
		if m.Question == nil {
			continue
		}
		switch f.Mastery {
		case MasteryMastered:
			if m.Status != model.MistakeMastered {
				continue
			}
		case MasteryUnmastered:
			if m.Status == model.MistakeMastered {
				continue
			}
		}
		if len(exams) > 0 && !exams[m.SourceExamTitle] {
			continue
		}
		if len(f.Modules) > 0 && !contains(f.Modules, m.Question.Module) {
			continue
		}
		if len(f.Difficulties) > 0 && !contains(f.Difficulties, m.Question.Difficulty) {
			continue
		}
		if len(f.Types) > 0 && !contains(f.Types, m.Question.QuestionType) {
			continue
		}
		if len(topics) > 0 && !matchesTopic(m.Question.Topics, topics) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// GroupMistakes 按策略分组。recent 为单个分组并按最近一次错误作答倒序；
// topic 下一道题可出现在多个分组，没有标签的归入 Untagged。
func GroupMistakes(mistakes []model.AggregatedMistake, policy GroupPolicy) (GroupedMistakes, error) {
	result := GroupedMistakes{Policy: policy, Groups: []MistakeGroup{}, Total: len(mistakes)}
	switch policy {
	case GroupRecent:
		if len(mistakes) == 0 {
			return result, nil
		}
		sorted := append([]model.AggregatedMistake(nil), mistakes...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].LatestIncorrectAt().After(sorted[j].LatestIncorrectAt())
		})
		result.Groups = append(result.Groups, MistakeGroup{Label: RecentGroupLabel, Mistakes: sorted})
	case GroupModule:
		result.Groups = groupByKey(mistakes, moduleOrder(), func(m *model.AggregatedMistake) []string {
			return []string{m.Question.Module.Label()}
		})
	case GroupDifficulty:
		result.Groups = groupByKey(mistakes, difficultyOrder(), func(m *model.AggregatedMistake) []string {
			return []string{m.Question.Difficulty.Label()}
		})
	case GroupTopic:
		result.Groups = groupByKey(mistakes, nil, func(m *model.AggregatedMistake) []string {
			tags := topicTags(m.Question.Topics)
			if len(tags) == 0 {
				return []string{UntaggedLabel}
			}
			return tags
		})
		moveToEnd(result.Groups, UntaggedLabel)
	default:
		return result, fmt.Errorf("%w: unknown group policy %q", util.ErrInvalidSelection, policy)
	}
	return result, nil
}

// groupByKey 已知顺序的标签在前，其余按首次出现顺序
func groupByKey(mistakes []model.AggregatedMistake, known []string, keys func(*model.AggregatedMistake) []string) []MistakeGroup {
	index := make(map[string]int)
	groups := make([]MistakeGroup, 0)
	for i := range mistakes {
		m := &mistakes[i]
		if m.Question == nil {
			continue
		}
		added := make(map[string]bool)
		for _, k := range keys(m) {
			if added[k] {
				continue
			}
			added[k] = true
			pos, ok := index[k]
			if !ok {
				pos = len(groups)
				index[k] = pos
				groups = append(groups, MistakeGroup{Label: k})
			}
			groups[pos].Mistakes = append(groups[pos].Mistakes, *m)
		}
	}
	if len(known) > 0 {
		rank := make(map[string]int, len(known))
		for i, k := range known {
			rank[k] = i
		}
		sort.SliceStable(groups, func(i, j int) bool {
			ri, iok := rank[groups[i].Label]
			rj, jok := rank[groups[j].Label]
			if iok && jok {
				return ri < rj
			}
			return iok && !jok
		})
	}
	return groups
}

func moveToEnd(groups []MistakeGroup, label string) {
	for i := range groups {
		if groups[i].Label == label {
			g := groups[i]
			copy(groups[i:], groups[i+1:])
			groups[len(groups)-1] = g
			return
		}
	}
}

func moduleOrder() []string {
	labels := make([]string, 0, len(model.AllModules))
	for _, m := range model.AllModules {
		labels = append(labels, m.Label())
	}
	return labels
}

func difficultyOrder() []string {
	return []string{
		model.DifficultyEasy.Label(),
		model.DifficultyMedium.Label(),
		model.DifficultyHard.Label(),
	}
}

// topicTags 去掉空白标签；只有空白标签的题目视为未打标签
func topicTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func matchesTopic(tags []string, wanted map[string]bool) bool {
	tags = topicTags(tags)
	if len(tags) == 0 {
		return wanted[UntaggedLabel]
	}
	for _, t := range tags {
		if wanted[t] {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = true
		}
	}
	return set
}

func contains[T comparable](values []T, v T) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
