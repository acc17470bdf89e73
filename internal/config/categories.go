package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fmuoria/cv-auditor/internal/models"
	"github.com/fmuoria/cv-auditor/internal/scoring"
)

// categoriesFile is the wrapped form of a keyword table
type categoriesFile struct {
	Categories []models.Category `yaml:"categories"`
}

// ApprovalThreshold returns the configured threshold, falling back to the preset's own rule
// when no threshold and no categories file are set
func (c *Config) ApprovalThreshold() int {
	if c.Categories.ApprovalThreshold > 0 || c.Categories.File != "" {
		return c.Categories.ApprovalThreshold
	}
	return scoring.PresetApprovalThreshold(c.Categories.Preset)
}

// LoadCategories returns the keyword table from the configured file, or the configured preset
func (c *Config) LoadCategories() ([]models.Category, error) {
	if c.Categories.File != "" {
		return LoadCategoriesFile(c.Categories.File)
	}
	return scoring.Preset(c.Categories.Preset)
}

// LoadCategoriesFile reads a YAML or JSON keyword table.
// Both a bare list and a document with a top-level "categories" key are accepted.
func LoadCategoriesFile(path string) ([]models.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	var list []models.Category
	if err := yaml.Unmarshal(data, &list); err == nil {
		if len(list) == 0 {
			return nil, fmt.Errorf("%w: %s lists no categories", scoring.ErrInvalidConfiguration, path)
		}
		return list, nil
	}

	var wrapped categoriesFile
	if err := yaml.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse categories file: %w", err)
	}
	if len(wrapped.Categories) == 0 {
		return nil, fmt.Errorf("%w: %s lists no categories", scoring.ErrInvalidConfiguration, path)
	}

	return wrapped.Categories, nil
}

// SaveCategoriesFile writes the keyword table as YAML so it can be tuned by hand
func SaveCategoriesFile(path string, categories []models.Category) error {
	data, err := yaml.Marshal(categoriesFile{Categories: categories})
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write categories file: %w", err)
	}

	return nil
}
