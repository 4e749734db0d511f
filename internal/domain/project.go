package domain

import (
	"fmt"
	"time"
)

// Project is a tracked brand: its name, main website, keywords and competitors.
type Project struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	MainWebsite string       `json:"main_website,omitempty"`
	Description string       `json:"description,omitempty"`
	Sector      string       `json:"sector,omitempty"`
	Keywords    []string     `json:"keywords"`
	Competitors []Competitor `json:"competitors"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Competitor is a rival brand followed by a project.
type Competitor struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
}

// NewProject creates a new Project instance
func NewProject(id, name, mainWebsite string, createdAt time.Time) *Project {
	return &Project{
		ID:          id,
		Name:        name,
		MainWebsite: mainWebsite,
		CreatedAt:   createdAt,
	}
}

// CompetitorNames returns competitor names in project order.
func (p *Project) CompetitorNames() []string {
	names := make([]string, 0, len(p.Competitors))
	for _, c := range p.Competitors {
		names = append(names, c.Name)
	}
	return names
}

// ValidateProject validates a Project instance
func ValidateProject(p *Project) error {
	if p == nil {
		return fmt.Errorf("project cannot be nil")
	}

	if p.ID == "" {
		return fmt.Errorf("project ID is required")
	}

	if p.Name == "" {
		return fmt.Errorf("project Name is required")
	}

	for i, c := range p.Competitors {
		if c.Name == "" {
			return fmt.Errorf("competitor %d: name is required", i)
		}
	}

	return nil
}
