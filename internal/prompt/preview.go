package prompt

import (
	"errors"
	"sort"
	"unicode/utf8"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

// Preview describes how a prompt would render without executing it.
type Preview struct {
	PromptID           string            `json:"prompt_id"`
	Template           string            `json:"template"`
	Prompt             string            `json:"prompt"`
	CanExecute         bool              `json:"can_execute"`
	Error              string            `json:"error,omitempty"`
	VariablesUsed      map[string]string `json:"variables_used"`
	MissingVariables   []string          `json:"missing_variables"`
	RequiredVariables  []string          `json:"required_variables"`
	AvailableVariables []string          `json:"available_variables"`
	TemplateLength     int               `json:"template_length"`
	FinalLength        int               `json:"final_length"`
}

// BuildPreview renders p against its project. Render failures are reported
// in the preview rather than returned.
func BuildPreview(p *domain.Prompt, overrides map[string]string) *Preview {
	vars := ProjectVariables(p.Project)
	available := make([]string, 0, len(vars))
	for k := range vars {
		available = append(available, k)
	}
	sort.Strings(available)

	required := Variables(p.Template)
	if required == nil {
		required = []string{}
	}

	pv := &Preview{
		PromptID:           p.ID,
		Template:           p.Template,
		Prompt:             p.Template,
		VariablesUsed:      map[string]string{},
		MissingVariables:   []string{},
		RequiredVariables:  required,
		AvailableVariables: available,
		TemplateLength:     utf8.RuneCountInString(p.Template),
	}

	rendered, err := Render(p.Template, vars, overrides)
	if err != nil {
		pv.Error = err.Error()
		var missing *MissingVariableError
		if errors.As(err, &missing) {
			pv.MissingVariables = missing.Names
		}
	} else {
		pv.Prompt = rendered.Text
		pv.VariablesUsed = rendered.VariablesUsed
		pv.CanExecute = p.IsActive
		if !p.IsActive {
			pv.Error = domain.ErrPromptInactive.Message
		}
	}
	pv.FinalLength = utf8.RuneCountInString(pv.Prompt)
	return pv
}
