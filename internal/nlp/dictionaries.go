package nlp

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

//go:embed dictionaries.yaml
var defaultDictionaries []byte

// Scoring holds the numeric knobs of the classifier.
type Scoring struct {
	RelevanceHigh         float64 `yaml:"relevance_high"`
	RelevanceMedium       float64 `yaml:"relevance_medium"`
	MaxTopics             int     `yaml:"max_topics"`
	DiversityFactor       float64 `yaml:"diversity_factor"`
	MaxTopicKeywords      int     `yaml:"max_topic_keywords"`
	MaxContexts           int     `yaml:"max_contexts"`
	ContextRadius         int     `yaml:"context_radius"`
	MaxEntitiesPerType    int     `yaml:"max_entities_per_type"`
	ExpressionBonus       float64 `yaml:"expression_bonus"`
	MinKeywordLength      int     `yaml:"min_keyword_length"`
	MinKeywordOccurrences int     `yaml:"min_keyword_occurrences"`
	MaxSemanticKeywords   int     `yaml:"max_semantic_keywords"`
}

// KeywordGroup is a weighted list of keywords.
type KeywordGroup struct {
	Weight   float64  `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

// IntentConfig groups the keyword categories of one SEO intent.
type IntentConfig struct {
	Weight     float64                 `yaml:"weight"`
	Categories map[string]KeywordGroup `yaml:"categories"`
}

// ContentTypeConfig describes one content type family.
type ContentTypeConfig struct {
	Name        string   `yaml:"name"`
	Keywords    []string `yaml:"keywords"`
	Expressions []string `yaml:"expressions"`
}

// SectorRule maps description keywords to a sector.
type SectorRule struct {
	Sector   string   `yaml:"sector"`
	Keywords []string `yaml:"keywords"`
}

// Dictionaries is the full keyword configuration of the classifier.
type Dictionaries struct {
	Scoring      Scoring                            `yaml:"scoring"`
	Intents      map[string]IntentConfig            `yaml:"intents"`
	Topics       map[string]map[string]KeywordGroup `yaml:"topics"`
	Entities     map[string]map[string][]string     `yaml:"entities"`
	ContentTypes []ContentTypeConfig                `yaml:"content_types"`
	Stopwords    []string                           `yaml:"stopwords"`
	Sectors      struct {
		Default   string       `yaml:"default"`
		Detection []SectorRule `yaml:"detection"`
	} `yaml:"sectors"`
}

// LoadDictionaries parses and validates a YAML dictionary document.
func LoadDictionaries(data []byte) (*Dictionaries, error) {
	var d Dictionaries
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse dictionaries: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// DefaultDictionaries returns the embedded dictionaries.
func DefaultDictionaries() *Dictionaries {
	d, err := LoadDictionaries(defaultDictionaries)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Dictionaries) validate() error {
	for _, intent := range domain.AllIntents {
		if _, ok := d.Intents[string(intent)]; !ok {
			return fmt.Errorf("dictionaries: intent %q missing", intent)
		}
	}
	if len(d.ContentTypes) == 0 {
		return fmt.Errorf("dictionaries: no content types")
	}
	if d.Sectors.Default == "" {
		return fmt.Errorf("dictionaries: default sector missing")
	}
	if _, ok := d.Topics[d.Sectors.Default]; !ok {
		return fmt.Errorf("dictionaries: no topics for default sector %q", d.Sectors.Default)
	}
	s := &d.Scoring
	if s.MaxTopics <= 0 || s.MaxContexts <= 0 || s.MaxEntitiesPerType <= 0 || s.MaxSemanticKeywords <= 0 {
		return fmt.Errorf("dictionaries: scoring limits must be positive")
	}
	return nil
}

// SetDefaultSector replaces the fallback sector. The sector must have topics.
func (d *Dictionaries) SetDefaultSector(sector string) error {
	sector = strings.ToLower(strings.TrimSpace(sector))
	if sector == "" {
		return nil
	}
	if _, ok := d.Topics[sector]; !ok {
		return fmt.Errorf("dictionaries: no topics for sector %q", sector)
	}
	d.Sectors.Default = sector
	return nil
}

// SectorNames lists every sector that has topics or entities.
func (d *Dictionaries) SectorNames() []string {
	seen := map[string]bool{}
	var out []string
	for s := range d.Topics {
		seen[s] = true
	}
	for s := range d.Entities {
		seen[s] = true
	}
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// DetectSector picks the classification sector of a project. An explicit
// sector wins; otherwise description keywords decide, falling back to the
// default sector.
func (d *Dictionaries) DetectSector(explicit, description string) string {
	if s := strings.ToLower(strings.TrimSpace(explicit)); s != "" {
		return s
	}
	desc := normalize(description)
	if desc == "" {
		return d.Sectors.Default
	}
	for _, rule := range d.Sectors.Detection {
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, normalize(kw)) {
				return rule.Sector
			}
		}
	}
	return d.Sectors.Default
}
