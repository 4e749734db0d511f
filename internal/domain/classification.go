package domain

// SEOIntent is the search intent of a query/answer pair.
type SEOIntent string

const (
	IntentCommercial    SEOIntent = "commercial"
	IntentInformational SEOIntent = "informational"
	IntentTransactional SEOIntent = "transactional"
	IntentNavigational  SEOIntent = "navigational"
)

// AllIntents lists intents in their canonical order.
var AllIntents = []SEOIntent{IntentCommercial, IntentInformational, IntentTransactional, IntentNavigational}

// Relevance tiers for business topics.
const (
	RelevanceHigh   = "high"
	RelevanceMedium = "medium"
	RelevanceLow    = "low"
)

// ContentTypeGeneral is reported when no content pattern matched.
const ContentTypeGeneral = "general"

// ClassificationVersion tags persisted classifications.
const ClassificationVersion = "1.1"

// BusinessTopic is a sector theme detected in an answer.
type BusinessTopic struct {
	Topic      string   `json:"topic"`
	Score      float64  `json:"score"`
	RawScore   int      `json:"raw_score"`
	Weight     float64  `json:"weight"`
	Relevance  string   `json:"relevance"`
	Keywords   []string `json:"keywords"`
	Contexts   []string `json:"contexts"`
	MatchCount int      `json:"matches_count"`
}

// SectorEntity is a named brand, product or technology found in an answer.
type SectorEntity struct {
	Name     string   `json:"name"`
	Count    int      `json:"count"`
	Contexts []string `json:"contexts"`
}

// ClassificationResult is the semantic classification of one answer.
type ClassificationResult struct {
	SEOIntent         SEOIntent                 `json:"seo_intent"`
	SEOConfidence     float64                   `json:"seo_confidence"`
	DetailedScores    map[SEOIntent]float64     `json:"detailed_scores"`
	BusinessTopics    []BusinessTopic           `json:"business_topics"`
	ContentType       string                    `json:"content_type"`
	ContentConfidence float64                   `json:"content_confidence"`
	ContentScores     map[string]float64        `json:"content_scores"`
	SectorEntities    map[string][]SectorEntity `json:"sector_entities"`
	SemanticKeywords  []string                  `json:"semantic_keywords"`
	GlobalConfidence  float64                   `json:"global_confidence"`
	Sector            string                    `json:"sector"`
	ProcessingVersion string                    `json:"processing_version"`
}

// DefaultClassification is the degraded "informational / general / empty" result.
func DefaultClassification(sector string) *ClassificationResult {
	return &ClassificationResult{
		SEOIntent:     IntentInformational,
		SEOConfidence: 0.1,
		DetailedScores: map[SEOIntent]float64{
			IntentCommercial:    0,
			IntentInformational: 0.1,
			IntentTransactional: 0,
			IntentNavigational:  0,
		},
		BusinessTopics:    []BusinessTopic{},
		ContentType:       ContentTypeGeneral,
		ContentConfidence: 0.1,
		ContentScores:     map[string]float64{},
		SectorEntities:    map[string][]SectorEntity{},
		SemanticKeywords:  []string{},
		GlobalConfidence:  0.1,
		Sector:            sector,
		ProcessingVersion: ClassificationVersion,
	}
}
