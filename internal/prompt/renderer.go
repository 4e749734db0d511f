// Package prompt renders prompt templates against project context.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	placeholder       = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

// MissingVariableError lists referenced variables that had no value.
type MissingVariableError struct {
	Names []string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing template variables: %s", strings.Join(e.Names, ", "))
}

func (e *MissingVariableError) Unwrap() error { return domain.ErrMissingVariable }

// MalformedVariableError reports invalid placeholders or unbalanced braces.
type MalformedVariableError struct {
	Tokens     []string
	Unbalanced bool
}

func (e *MalformedVariableError) Error() string {
	if e.Unbalanced {
		return "malformed template: unbalanced braces"
	}
	return fmt.Sprintf("malformed template variables: %s", strings.Join(e.Tokens, ", "))
}

func (e *MalformedVariableError) Unwrap() error { return domain.ErrMalformedVariable }

// Rendered is a substituted prompt together with the values actually used.
type Rendered struct {
	Text          string            `json:"prompt"`
	VariablesUsed map[string]string `json:"variables_used"`
}

// Variables returns the distinct placeholder names of a template in order
// of first appearance. Malformed tokens are ignored.
func Variables(template string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Validate checks that a template is non-empty, that every brace pair
// encloses a valid identifier and that braces are balanced.
func Validate(template string) error {
	if strings.TrimSpace(template) == "" {
		return domain.ErrEmptyTemplate
	}

	var malformed []string
	open := -1
	for i, r := range template {
		switch r {
		case '{':
			if open >= 0 {
				return &MalformedVariableError{Unbalanced: true}
			}
			open = i
		case '}':
			if open < 0 {
				return &MalformedVariableError{Unbalanced: true}
			}
			if name := template[open+1 : i]; !identifierPattern.MatchString(name) {
				malformed = append(malformed, template[open:i+1])
			}
			open = -1
		}
	}
	if open >= 0 {
		return &MalformedVariableError{Unbalanced: true}
	}
	if len(malformed) > 0 {
		return &MalformedVariableError{Tokens: malformed}
	}
	return nil
}

// Render substitutes every {name} placeholder. Values from overrides win
// over contextVars.
func Render(template string, contextVars, overrides map[string]string) (*Rendered, error) {
	if err := Validate(template); err != nil {
		return nil, err
	}

	values := Merge(contextVars, overrides)
	required := Variables(template)

	var missing []string
	used := make(map[string]string, len(required))
	for _, name := range required {
		v, ok := values[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		used[name] = v
	}
	if len(missing) > 0 {
		return nil, &MissingVariableError{Names: missing}
	}

	text := placeholder.ReplaceAllStringFunc(template, func(tok string) string {
		return used[tok[1:len(tok)-1]]
	})
	return &Rendered{Text: text, VariablesUsed: used}, nil
}

// Merge overlays overrides on top of base without mutating either.
func Merge(base, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
