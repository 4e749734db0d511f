package prompt

import (
	"errors"
	"testing"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_MissingVariable(t *testing.T) {
	_, err := Render("Hello {name}", nil, nil)
	require.Error(t, err)

	var missing *MissingVariableError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"name"}, missing.Names)
	assert.ErrorIs(t, err, domain.ErrMissingVariable)
	assert.Equal(t, domain.ErrCodeValidation, domain.CodeOf(err))
}

func TestRender_OverrideWins(t *testing.T) {
	ctx := map[string]string{"name": "MyBrand", "city": "Paris"}
	overrides := map[string]string{"name": "Other"}

	r, err := Render("Best {name} in {city}? Ask {name}.", ctx, overrides)
	require.NoError(t, err)
	assert.Equal(t, "Best Other in Paris? Ask Other.", r.Text)
	assert.Equal(t, map[string]string{"name": "Other", "city": "Paris"}, r.VariablesUsed)
}

func TestRender_OnlyUsedVariablesReported(t *testing.T) {
	r, err := Render("Hi {a}", map[string]string{"a": "1", "b": "2"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1"}, r.VariablesUsed)
}

func TestRender_NoPlaceholders(t *testing.T) {
	r, err := Render("plain question", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "plain question", r.Text)
	assert.Empty(t, r.VariablesUsed)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		template   string
		wantErr    error
		tokens     []string
		unbalanced bool
	}{
		{name: "valid", template: "Top {first_keyword} for {project_name}"},
		{name: "empty", template: "   ", wantErr: domain.ErrEmptyTemplate},
		{name: "empty braces", template: "Hi {}", wantErr: domain.ErrMalformedVariable, tokens: []string{"{}"}},
		{name: "digit start", template: "Hi {1x} and {ok}", wantErr: domain.ErrMalformedVariable, tokens: []string{"{1x}"}},
		{name: "unclosed", template: "Hi {name", wantErr: domain.ErrMalformedVariable, unbalanced: true},
		{name: "stray close", template: "Hi name}", wantErr: domain.ErrMalformedVariable, unbalanced: true},
		{name: "nested", template: "Hi {{name}}", wantErr: domain.ErrMalformedVariable, unbalanced: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.template)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			var malformed *MalformedVariableError
			if errors.As(err, &malformed) {
				assert.Equal(t, tt.unbalanced, malformed.Unbalanced)
				assert.Equal(t, tt.tokens, malformed.Tokens)
			}
		})
	}
}

func TestVariables(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, Variables("{b} {a} {b} {1c}"))
	assert.Nil(t, Variables("none"))
}
