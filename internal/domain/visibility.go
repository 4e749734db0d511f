package domain

// Mention is one occurrence of a searched term in an answer.
type Mention struct {
	Offset  int    `json:"offset"`
	Context string `json:"context"`
}

// Link is a URL in an answer that points at the project website.
type Link struct {
	URL     string `json:"url"`
	Domain  string `json:"domain"`
	Context string `json:"context"`
}

// CompetitorMention aggregates the occurrences of one competitor name.
type CompetitorMention struct {
	Count    int      `json:"count"`
	Contexts []string `json:"contexts"`
	Website  string   `json:"website,omitempty"`
}

// VisibilityResult holds the brand signals derived from one answer.
type VisibilityResult struct {
	BrandMentioned       bool                         `json:"brand_mentioned"`
	BrandMentions        []Mention                    `json:"brand_mentions"`
	WebsiteMentioned     bool                         `json:"website_mentioned"`
	WebsiteMentions      []Mention                    `json:"website_mentions"`
	WebsiteLinked        bool                         `json:"website_linked"`
	Links                []Link                       `json:"links"`
	RankingPosition      *int                         `json:"ranking_position"`
	RankingTotalItems    int                          `json:"ranking_total_items"`
	RankingContext       string                       `json:"ranking_context,omitempty"`
	CompetitorsMentioned map[string]CompetitorMention `json:"competitors_mentioned"`
	VisibilityScore      float64                      `json:"visibility_score"`
	Summary              string                       `json:"summary"`
}

// NewEmptyVisibilityResult returns the all-false result with the given summary.
func NewEmptyVisibilityResult(summary string) *VisibilityResult {
	return &VisibilityResult{
		BrandMentions:        []Mention{},
		WebsiteMentions:      []Mention{},
		Links:                []Link{},
		CompetitorsMentioned: map[string]CompetitorMention{},
		Summary:              summary,
	}
}
