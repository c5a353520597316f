package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkraev/toolmatch/internal/core/usecase"
)

// LoadTaskTypeRules reads classifier keyword lists from a YAML file. An
// empty path means built-in defaults; lists missing from the file fall
// back per-list inside the classifier.
func LoadTaskTypeRules(path string) (usecase.TaskTypeRules, error) {
	if path == "" {
		return usecase.TaskTypeRules{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return usecase.TaskTypeRules{}, fmt.Errorf("read task rules file: %w", err)
	}

	var rules usecase.TaskTypeRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return usecase.TaskTypeRules{}, fmt.Errorf("parse task rules file: %w", err)
	}
	return rules, nil
}
