// Package sources pulls citation-like URLs out of model answers.
package sources

import (
	"regexp"
	"sort"
	"strings"

	"mvdan.cc/xurls/v2"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/textutil"
	"github.com/cloo-solutions/geotrack/internal/urlutil"
)

const (
	DefaultMaxItems = 20

	snippetRadius  = 80
	sectionWindow  = 2000
	footnoteBefore = 200
	footnoteAfter  = 400
	trailingCutset = ").,;"
)

var (
	markdownLink  = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)\s]+)\)`)
	footnoteLabel = regexp.MustCompile(`\[(\d+)\]`)
	sectionLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?i)sources\s*:`),
		regexp.MustCompile(`(?i)références\s*:`),
		regexp.MustCompile(`(?i)references\s*:`),
	}
)

// Extractor runs the markdown, bare URL, "Sources:" section and footnote
// strategies over an answer and merges their findings by URL.
type Extractor struct {
	maxItems int
	urls     *regexp.Regexp
}

// NewExtractor returns an extractor keeping at most maxItems sources.
// Non-positive values use DefaultMaxItems.
func NewExtractor(maxItems int) *Extractor {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	re, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		re = xurls.Strict()
	}
	return &Extractor{maxItems: maxItems, urls: re}
}

type collector struct {
	text  string
	byURL map[string]*domain.Source
}

// add records a source. A URL seen again keeps its earliest position, and
// gains a title or citation label it did not have yet.
func (c *collector) add(url string, pos int, title, label string) {
	url = strings.TrimRight(strings.TrimSpace(url), trailingCutset)
	if url == "" {
		return
	}
	if src, ok := c.byURL[url]; ok {
		if pos < src.Position {
			src.Position = pos
			src.Snippet = textutil.Window(c.text, pos, pos, snippetRadius)
		}
		if src.Title == "" {
			src.Title = title
		}
		if src.CitationLabel == "" {
			src.CitationLabel = label
		}
		return
	}
	host := urlutil.Host(url)
	c.byURL[url] = &domain.Source{
		URL:           url,
		Domain:        host,
		BaseDomain:    urlutil.RegistrableDomain(host),
		Title:         title,
		Snippet:       textutil.Window(c.text, pos, pos, snippetRadius),
		CitationLabel: label,
		Position:      pos,
	}
}

// labelURL returns the bounds of the URL a footnote label at
// [labelStart, labelEnd) refers to: the first URL after it, else the closest
// one before it. Offsets are relative to window.
func (e *Extractor) labelURL(window string, labelStart, labelEnd int) []int {
	var before []int
	for _, u := range e.urls.FindAllStringIndex(window, -1) {
		if u[0] >= labelEnd {
			return u
		}
		if u[1] <= labelStart {
			before = u
		}
	}
	return before
}

// Extract returns unique sources ordered by first appearance.
func (e *Extractor) Extract(text string) []domain.Source {
	if strings.TrimSpace(text) == "" {
		return []domain.Source{}
	}
	c := &collector{text: text, byURL: make(map[string]*domain.Source)}

	for _, m := range markdownLink.FindAllStringSubmatchIndex(text, -1) {
		c.add(text[m[4]:m[5]], m[0], strings.TrimSpace(text[m[2]:m[3]]), "")
	}

	for _, m := range e.urls.FindAllStringIndex(text, -1) {
		c.add(text[m[0]:m[1]], m[0], "", "")
	}

	for _, label := range sectionLabels {
		loc := label.FindStringIndex(text)
		if loc == nil {
			continue
		}
		end := loc[0] + sectionWindow
		if end > len(text) {
			end = len(text)
		}
		tail := text[loc[0]:end]
		for _, m := range e.urls.FindAllStringIndex(tail, -1) {
			c.add(tail[m[0]:m[1]], loc[0]+m[0], "", "")
		}
	}

	for _, m := range footnoteLabel.FindAllStringIndex(text, -1) {
		start := m[0] - footnoteBefore
		if start < 0 {
			start = 0
		}
		end := m[1] + footnoteAfter
		if end > len(text) {
			end = len(text)
		}
		window := text[start:end]
		if u := e.labelURL(window, m[0]-start, m[1]-start); u != nil {
			c.add(window[u[0]:u[1]], start+u[0], "", text[m[0]:m[1]])
		}
	}

	out := make([]domain.Source, 0, len(c.byURL))
	for _, s := range c.byURL {
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].URL < out[j].URL
	})
	if len(out) > e.maxItems {
		out = out[:e.maxItems]
	}
	return out
}

// ExcludeDomains drops sources hosted on any of the given websites, either
// by subdomain suffix or by sharing a registrable domain.
func ExcludeDomains(srcs []domain.Source, websites []string) []domain.Source {
	var hosts []string
	for _, w := range websites {
		if h := urlutil.BareDomain(w); h != "" {
			hosts = append(hosts, h)
		}
	}
	if len(hosts) == 0 {
		return srcs
	}
	kept := make([]domain.Source, 0, len(srcs))
outer:
	for _, s := range srcs {
		for _, h := range hosts {
			if urlutil.SameSite(s.Domain, h) {
				continue outer
			}
		}
		kept = append(kept, s)
	}
	return kept
}
