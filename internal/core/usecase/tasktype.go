package usecase

import (
	"strings"

	"github.com/mkraev/toolmatch/internal/core/domain"
)

// TaskTypeRules holds the keyword lists the classifier matches against.
// Lists are checked in a fixed priority order; an empty list falls back to
// the built-in defaults for that type.
type TaskTypeRules struct {
	Coding        []string `yaml:"coding"`
	Math          []string `yaml:"math"`
	Analysis      []string `yaml:"analysis"`
	Design        []string `yaml:"design"`
	Writing       []string `yaml:"writing"`
	Communication []string `yaml:"communication"`
}

func DefaultTaskTypeRules() TaskTypeRules {
	return TaskTypeRules{
		Coding: []string{
			"code", "coding", "program", "develop", "debug", "api", "script",
			"refactor", "backend", "frontend", "sql", "deploy", "test suite",
		},
		Math: []string{
			"math", "calculat", "equation", "algebra", "geometry", "probability",
			"statistic", "numeric",
		},
		Analysis: []string{
			"analy", "data", "dashboard", "metric", "report", "insight",
			"forecast", "trend",
		},
		Design: []string{
			"design", "logo", "user interface", "ux", "mockup", "wireframe", "illustration",
			"image", "graphic", "banner",
		},
		Writing: []string{
			"write", "writing", "blog", "article", "essay", "copy", "draft",
			"summar", "translat", "content",
		},
		Communication: []string{
			"email", "message", "chat", "meeting", "presentation", "slack",
			"respond", "reply", "communicat",
		},
	}
}

type TaskTypeClassifier struct {
	ordered []keywordRule
}

type keywordRule struct {
	taskType domain.TaskType
	keywords []string
}

// NewTaskTypeClassifier builds a classifier from the given rules. The
// priority order is fixed: coding, then math, then analysis, then design,
// then writing, then communication; the first list with a substring hit
// wins and anything unmatched is general.
func NewTaskTypeClassifier(rules TaskTypeRules) *TaskTypeClassifier {
	def := DefaultTaskTypeRules()
	return &TaskTypeClassifier{
		ordered: []keywordRule{
			{domain.TaskTypeCoding, lowerOrDefault(rules.Coding, def.Coding)},
			{domain.TaskTypeMath, lowerOrDefault(rules.Math, def.Math)},
			{domain.TaskTypeAnalysis, lowerOrDefault(rules.Analysis, def.Analysis)},
			{domain.TaskTypeDesign, lowerOrDefault(rules.Design, def.Design)},
			{domain.TaskTypeWriting, lowerOrDefault(rules.Writing, def.Writing)},
			{domain.TaskTypeCommunication, lowerOrDefault(rules.Communication, def.Communication)},
		},
	}
}

func (c *TaskTypeClassifier) Detect(taskText string) domain.TaskType {
	text := strings.ToLower(taskText)
	for _, rule := range c.ordered {
		for _, keyword := range rule.keywords {
			if keyword != "" && strings.Contains(text, keyword) {
				return rule.taskType
			}
		}
	}
	return domain.TaskTypeGeneral
}

var defaultClassifier = NewTaskTypeClassifier(TaskTypeRules{})

// DetectTaskType classifies with the built-in rules, for callers that only
// need classification.
func DetectTaskType(taskText string) domain.TaskType {
	return defaultClassifier.Detect(taskText)
}

func lowerOrDefault(keywords, fallback []string) []string {
	if len(keywords) == 0 {
		keywords = fallback
	}
	out := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" {
			out = append(out, keyword)
		}
	}
	return out
}
