package prompt

import (
	"strconv"
	"strings"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

// ProjectVariables builds the variables every template may reference for
// a project. Positional keyword and competitor variables are only present
// when the project has enough entries.
func ProjectVariables(p *domain.Project) map[string]string {
	if p == nil {
		return map[string]string{}
	}

	vars := map[string]string{
		"project_name":        p.Name,
		"project_website":     p.MainWebsite,
		"project_description": p.Description,
		"project_keywords":    strings.Join(p.Keywords, ", "),
		"keywords_count":      strconv.Itoa(len(p.Keywords)),
	}
	for i, key := range []string{"first_keyword", "second_keyword", "third_keyword"} {
		if i < len(p.Keywords) {
			vars[key] = p.Keywords[i]
		}
	}

	names := p.CompetitorNames()
	vars["project_competitors"] = strings.Join(names, ", ")
	vars["competitors_count"] = strconv.Itoa(len(names))
	for i, key := range []string{"main_competitor", "second_competitor"} {
		if i < len(names) {
			vars[key] = names[i]
		}
	}
	return vars
}
