// Package nlp classifies model answers by search intent, business topic,
// content type, sector entities and recurring keywords.
package nlp

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/textutil"
)

type category struct {
	weight float64
	terms  []term
}

type intentMatcher struct {
	intent     domain.SEOIntent
	weight     float64
	categories []category
}

type topicMatcher struct {
	name   string
	weight float64
	terms  []term
}

type entityGroup struct {
	kind  string
	terms []term
}

type contentMatcher struct {
	name        string
	keywords    []term
	expressions []term
}

// Classifier is a keyword and weight driven classifier. All dictionaries
// are normalized once in NewClassifier; Classify is safe for concurrent use.
type Classifier struct {
	dict         *Dictionaries
	intents      []intentMatcher
	topics       map[string][]topicMatcher
	entities     map[string][]entityGroup
	contentTypes []contentMatcher
	stopwords    map[string]bool
	logger       *zap.Logger
}

// NewClassifier prepares a classifier. A nil dict uses the embedded
// dictionaries.
func NewClassifier(dict *Dictionaries, logger *zap.Logger) *Classifier {
	if dict == nil {
		dict = DefaultDictionaries()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Classifier{
		dict:      dict,
		topics:    make(map[string][]topicMatcher),
		entities:  make(map[string][]entityGroup),
		stopwords: make(map[string]bool, len(dict.Stopwords)),
		logger:    logger,
	}

	for _, intent := range domain.AllIntents {
		cfg := dict.Intents[string(intent)]
		m := intentMatcher{intent: intent, weight: orOne(cfg.Weight)}
		for _, name := range sortedKeys(cfg.Categories) {
			g := cfg.Categories[name]
			m.categories = append(m.categories, category{weight: orOne(g.Weight), terms: newTerms(g.Keywords)})
		}
		c.intents = append(c.intents, m)
	}

	for sector, topics := range dict.Topics {
		for _, name := range sortedKeys(topics) {
			g := topics[name]
			c.topics[sector] = append(c.topics[sector], topicMatcher{name: name, weight: orOne(g.Weight), terms: newTerms(g.Keywords)})
		}
	}

	for sector, groups := range dict.Entities {
		for _, kind := range sortedKeys(groups) {
			c.entities[sector] = append(c.entities[sector], entityGroup{kind: kind, terms: newTerms(groups[kind])})
		}
	}

	for _, ct := range dict.ContentTypes {
		c.contentTypes = append(c.contentTypes, contentMatcher{
			name:        ct.Name,
			keywords:    newTerms(ct.Keywords),
			expressions: newTerms(ct.Expressions),
		})
	}

	for _, w := range dict.Stopwords {
		c.stopwords[normalize(w)] = true
	}
	return c
}

// Dictionaries returns the configuration the classifier was built from.
func (c *Classifier) Dictionaries() *Dictionaries {
	return c.dict
}

// Classify never fails. Blank input yields the default classification, and
// so does any internal fault, which is logged.
func (c *Classifier) Classify(promptText, answer, sector string) (result *domain.ClassificationResult) {
	if sector == "" {
		sector = c.dict.Sectors.Default
	}
	doc := newDocument(promptText + " " + answer)
	text := doc.text
	if text == "" {
		return domain.DefaultClassification(sector)
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("classification failed", zap.String("sector", sector), zap.Any("panic", r))
			result = domain.DefaultClassification(sector)
		}
	}()

	res := &domain.ClassificationResult{
		Sector:            sector,
		ProcessingVersion: domain.ClassificationVersion,
	}
	res.SEOIntent, res.SEOConfidence, res.DetailedScores = c.classifyIntent(text)
	res.BusinessTopics = c.classifyTopics(doc, sector)
	res.ContentType, res.ContentConfidence, res.ContentScores = c.detectContentType(text)
	res.SectorEntities = c.extractEntities(doc, sector)
	res.SemanticKeywords = c.semanticKeywords(text)
	res.GlobalConfidence = globalConfidence(res)
	c.logger.Debug("answer classified", zap.String("sector", sector), zap.String("result", describe(res)))
	return res
}

// classifyIntent scores each intent as the sum of category weight times
// keyword occurrences, scaled by the intent weight.
func (c *Classifier) classifyIntent(text string) (domain.SEOIntent, float64, map[domain.SEOIntent]float64) {
	scores := make(map[domain.SEOIntent]float64, len(c.intents))
	total := 0.0
	best := domain.IntentInformational
	bestScore := 0.0
	for _, m := range c.intents {
		score := 0.0
		for _, cat := range m.categories {
			for _, t := range cat.terms {
				score += cat.weight * float64(t.count(text))
			}
		}
		score *= m.weight
		scores[m.intent] = round(score, 1)
		total += score
		if score > bestScore {
			best, bestScore = m.intent, score
		}
	}
	if total == 0 {
		return domain.IntentInformational, 0.1, scores
	}
	return best, round(clamp01(bestScore/total), 2), scores
}

type keywordHit struct {
	label string
	count int
}

func (c *Classifier) classifyTopics(doc *document, sector string) []domain.BusinessTopic {
	matchers, ok := c.topics[sector]
	if !ok {
		matchers = c.topics[c.dict.Sectors.Default]
	}
	s := c.dict.Scoring

	topics := []domain.BusinessTopic{}
	for _, m := range matchers {
		raw := 0
		var hits []keywordHit
		var contexts []string
		for _, t := range m.terms {
			offsets := t.find(doc.text)
			if len(offsets) == 0 {
				continue
			}
			raw += len(offsets)
			hits = append(hits, keywordHit{label: t.label, count: len(offsets)})
			contexts = c.appendContexts(contexts, doc, offsets, len(t.needle))
		}
		if raw == 0 {
			continue
		}

		score := float64(raw) * m.weight * (1 + s.DiversityFactor*float64(len(hits)))
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].count > hits[j].count })
		if len(hits) > s.MaxTopicKeywords && s.MaxTopicKeywords > 0 {
			hits = hits[:s.MaxTopicKeywords]
		}
		keywords := make([]string, 0, len(hits))
		for _, h := range hits {
			keywords = append(keywords, h.label)
		}

		topics = append(topics, domain.BusinessTopic{
			Topic:      m.name,
			Score:      round(score, 2),
			RawScore:   raw,
			Weight:     m.weight,
			Relevance:  c.relevance(score),
			Keywords:   keywords,
			Contexts:   contexts,
			MatchCount: len(keywords),
		})
	}

	sort.SliceStable(topics, func(i, j int) bool {
		if topics[i].Score != topics[j].Score {
			return topics[i].Score > topics[j].Score
		}
		return topics[i].Topic < topics[j].Topic
	})
	if len(topics) > s.MaxTopics {
		topics = topics[:s.MaxTopics]
	}
	return topics
}

func (c *Classifier) relevance(score float64) string {
	switch {
	case score >= c.dict.Scoring.RelevanceHigh:
		return domain.RelevanceHigh
	case score >= c.dict.Scoring.RelevanceMedium:
		return domain.RelevanceMedium
	default:
		return domain.RelevanceLow
	}
}

// appendContexts adds distinct windows around offsets until MaxContexts.
// Offsets point into the normalized text; windows are cut from the source
// so contexts keep the answer's casing and punctuation.
func (c *Classifier) appendContexts(contexts []string, doc *document, offsets []int, length int) []string {
	s := c.dict.Scoring
	for _, off := range offsets {
		if len(contexts) >= s.MaxContexts {
			break
		}
		from, to := doc.span(off, off+length)
		ctx := textutil.Window(doc.source, from, to, s.ContextRadius)
		if ctx == "" || contains(contexts, ctx) {
			continue
		}
		contexts = append(contexts, ctx)
	}
	return contexts
}

func (c *Classifier) detectContentType(text string) (string, float64, map[string]float64) {
	scores := make(map[string]float64, len(c.contentTypes))
	total := 0.0
	best := domain.ContentTypeGeneral
	bestScore := 0.0
	for _, m := range c.contentTypes {
		score := 0.0
		for _, t := range m.keywords {
			score += float64(t.count(text))
		}
		for _, e := range m.expressions {
			if len(e.find(text)) > 0 {
				score += c.dict.Scoring.ExpressionBonus
			}
		}
		scores[m.name] = score
		total += score
		if score > bestScore {
			best, bestScore = m.name, score
		}
	}
	if total == 0 {
		return domain.ContentTypeGeneral, 0.1, scores
	}
	return best, round(clamp01(bestScore/total), 2), scores
}

func (c *Classifier) extractEntities(doc *document, sector string) map[string][]domain.SectorEntity {
	out := make(map[string][]domain.SectorEntity)
	for _, group := range c.entities[sector] {
		var found []domain.SectorEntity
		for _, t := range group.terms {
			offsets := t.find(doc.text)
			if len(offsets) == 0 {
				continue
			}
			found = append(found, domain.SectorEntity{
				Name:     t.label,
				Count:    len(offsets),
				Contexts: c.appendContexts(nil, doc, offsets, len(t.needle)),
			})
		}
		if len(found) == 0 {
			continue
		}
		sort.SliceStable(found, func(i, j int) bool { return found[i].Count > found[j].Count })
		if len(found) > c.dict.Scoring.MaxEntitiesPerType {
			found = found[:c.dict.Scoring.MaxEntitiesPerType]
		}
		out[group.kind] = found
	}
	return out
}

// semanticKeywords counts letter tokens that are long enough and not stop
// words, keeping those that recur, most frequent first.
func (c *Classifier) semanticKeywords(text string) []string {
	s := c.dict.Scoring
	counts := make(map[string]int)
	for _, tok := range tokens(text) {
		if len([]rune(tok)) < s.MinKeywordLength || c.stopwords[tok] {
			continue
		}
		counts[tok]++
	}

	words := make([]string, 0, len(counts))
	for w, n := range counts {
		if n >= s.MinKeywordOccurrences {
			words = append(words, w)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > s.MaxSemanticKeywords {
		words = words[:s.MaxSemanticKeywords]
	}
	return words
}

// globalConfidence blends intent and content confidence with bonuses for
// high relevance topics and entity richness.
func globalConfidence(r *domain.ClassificationResult) float64 {
	high := 0
	for _, t := range r.BusinessTopics {
		if t.Relevance == domain.RelevanceHigh {
			high++
		}
	}
	entities := 0
	for _, list := range r.SectorEntities {
		entities += len(list)
	}
	topicBonus := minFloat(0.3, 0.15*float64(high))
	entityBonus := minFloat(0.2, 0.03*float64(entities))
	return round(clamp01(0.4*r.SEOConfidence+0.3*r.ContentConfidence+topicBonus+entityBonus), 2)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func orOne(w float64) float64 {
	if w <= 0 {
		return 1
	}
	return w
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// describe renders a compact description used in debug logs.
func describe(r *domain.ClassificationResult) string {
	return fmt.Sprintf("intent=%s(%.2f) content=%s(%.2f) topics=%d confidence=%.2f",
		r.SEOIntent, r.SEOConfidence, r.ContentType, r.ContentConfidence, len(r.BusinessTopics), r.GlobalConfidence)
}
