package domain

import (
	"sort"
	"time"
)

// Analysis is the persisted record of one model answer to one rendered prompt.
type Analysis struct {
	ID               string            `json:"id"`
	PromptID         string            `json:"prompt_id"`
	ProjectID        string            `json:"project_id"`
	AIModelID        string            `json:"ai_model_id"`
	PromptExecuted   string            `json:"prompt_executed"`
	AIResponse       string            `json:"ai_response"`
	VariablesUsed    map[string]string `json:"variables_used"`
	Visibility       *VisibilityResult `json:"visibility"`
	AIModelUsed      string            `json:"ai_model_used"`
	TokensUsed       int               `json:"tokens_used"`
	ProcessingTimeMS int64             `json:"processing_time_ms"`
	CostEstimated    float64           `json:"cost_estimated"`
	WebSearchUsed    bool              `json:"web_search_used"`
	CreatedAt        time.Time         `json:"created_at"`
}

// AnalysisCompetitor is the per-competitor row stored with an analysis.
type AnalysisCompetitor struct {
	CompetitorName string `json:"competitor_name"`
	IsMentioned    bool   `json:"is_mentioned"`
	MentionCount   int    `json:"mention_count"`
	MentionContext string `json:"mention_context"`
}

// Competitors derives competitor rows from the visibility result, sorted by name.
func (a *Analysis) Competitors() []AnalysisCompetitor {
	if a.Visibility == nil {
		return nil
	}
	rows := make([]AnalysisCompetitor, 0, len(a.Visibility.CompetitorsMentioned))
	for name, m := range a.Visibility.CompetitorsMentioned {
		row := AnalysisCompetitor{
			CompetitorName: name,
			IsMentioned:    m.Count > 0,
			MentionCount:   m.Count,
		}
		if len(m.Contexts) > 0 {
			row.MentionContext = m.Contexts[0]
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CompetitorName < rows[j].CompetitorName })
	return rows
}

// PendingClassification is an analysis awaiting deferred topic classification.
type PendingClassification struct {
	AnalysisID         string
	ProjectSector      string
	ProjectDescription string
	PromptExecuted     string
	AIResponse         string
}

// AnalysisTopics is a persisted classification attached to an analysis.
type AnalysisTopics struct {
	ID             string                `json:"id"`
	AnalysisID     string                `json:"analysis_id"`
	Classification *ClassificationResult `json:"classification"`
	CreatedAt      time.Time             `json:"created_at"`
}

// HighConfidenceThreshold marks a classification as high confidence.
const HighConfidenceThreshold = 0.7
