package nlp

import (
	"sort"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

const summaryTopN = 10

// Count is a named tally.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Distribution is a tally with its most frequent entry.
type Distribution struct {
	Distribution []Count `json:"distribution"`
	Top          *Count  `json:"top,omitempty"`
}

// TopicsSummary aggregates the classifications of a project.
type TopicsSummary struct {
	TotalAnalyses       int          `json:"total_analyses"`
	AverageConfidence   float64      `json:"average_confidence"`
	HighConfidenceCount int          `json:"high_confidence_count"`
	HighConfidenceRate  float64      `json:"high_confidence_rate"`
	SEOIntents          Distribution `json:"seo_intents"`
	ContentTypes        Distribution `json:"content_types"`
	TopTopics           []Count      `json:"top_topics"`
	TotalTopics         int          `json:"total_topics"`
	TopBrands           []Count      `json:"top_brands"`
	TopTechnologies     []Count      `json:"top_technologies"`
	BrandsDiversity     int          `json:"brands_diversity"`
	TechDiversity       int          `json:"technologies_diversity"`
}

// Summarize aggregates classifications. HighConfidenceRate is a percentage.
func Summarize(items []*domain.ClassificationResult) *TopicsSummary {
	s := &TopicsSummary{
		SEOIntents:      Distribution{Distribution: []Count{}},
		ContentTypes:    Distribution{Distribution: []Count{}},
		TopTopics:       []Count{},
		TopBrands:       []Count{},
		TopTechnologies: []Count{},
	}

	intents := map[string]int{}
	contents := map[string]int{}
	topics := map[string]int{}
	brands := map[string]int{}
	techs := map[string]int{}
	confidence := 0.0

	for _, c := range items {
		if c == nil {
			continue
		}
		s.TotalAnalyses++
		confidence += c.GlobalConfidence
		if c.GlobalConfidence >= domain.HighConfidenceThreshold {
			s.HighConfidenceCount++
		}
		intents[string(c.SEOIntent)]++
		if c.ContentType != "" {
			contents[c.ContentType]++
		}
		for _, t := range c.BusinessTopics {
			topics[t.Topic]++
		}
		for _, e := range c.SectorEntities["brands"] {
			brands[e.Name]++
		}
		for _, e := range c.SectorEntities["technologies"] {
			techs[e.Name]++
		}
	}
	if s.TotalAnalyses == 0 {
		return s
	}

	s.AverageConfidence = round(confidence/float64(s.TotalAnalyses), 2)
	s.HighConfidenceRate = round(float64(s.HighConfidenceCount)/float64(s.TotalAnalyses)*100, 1)
	s.SEOIntents = distribution(intents)
	s.ContentTypes = distribution(contents)
	s.TopTopics = top(ranked(topics), summaryTopN)
	s.TotalTopics = len(topics)
	s.TopBrands = top(ranked(brands), summaryTopN)
	s.TopTechnologies = top(ranked(techs), summaryTopN)
	s.BrandsDiversity = len(brands)
	s.TechDiversity = len(techs)
	return s
}

func distribution(m map[string]int) Distribution {
	d := Distribution{Distribution: ranked(m)}
	if len(d.Distribution) > 0 {
		first := d.Distribution[0]
		d.Top = &first
	}
	return d
}

// ranked orders counts descending, then by name.
func ranked(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func top(c []Count, n int) []Count {
	if len(c) > n {
		return c[:n]
	}
	return c
}
