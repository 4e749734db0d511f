package domain

import (
	"fmt"
	"time"
)

// Prompt is a tracked question template belonging to a project.
type Prompt struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	Name           string     `json:"name"`
	Template       string     `json:"template"`
	IsActive       bool       `json:"is_active"`
	IsMultiAgent   bool       `json:"is_multi_agent"`
	ExecutionCount int        `json:"execution_count"`
	LastExecutedAt *time.Time `json:"last_executed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// Relations loaded by PromptRepository.GetWithRelations.
	Project *Project `json:"project,omitempty"`
	// Model is the single-model association.
	Model *AIModel `json:"model,omitempty"`
	// Models holds the multi-agent associations that are themselves active.
	Models []*AIModel `json:"models,omitempty"`
}

// ActiveModels returns the multi-agent models whose model record is active.
func (p *Prompt) ActiveModels() []*AIModel {
	var active []*AIModel
	for _, m := range p.Models {
		if m != nil && m.IsActive {
			active = append(active, m)
		}
	}
	return active
}

// ValidatePrompt validates a Prompt instance
func ValidatePrompt(p *Prompt) error {
	if p == nil {
		return fmt.Errorf("prompt cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("prompt ID is required")
	}
	if p.ProjectID == "" {
		return fmt.Errorf("prompt ProjectID is required")
	}
	if p.Name == "" {
		return fmt.Errorf("prompt Name is required")
	}
	if p.Template == "" {
		return ErrEmptyTemplate
	}
	return nil
}
