// Package visibility derives brand visibility signals from a model answer.
package visibility

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mvdan.cc/xurls/v2"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/textutil"
	"github.com/cloo-solutions/geotrack/internal/urlutil"
)

const (
	contextRadius = 50
	maxRank       = 10
)

// Line-oriented list numbering, tried in order: "N. text", "#N: text",
// "N) text", "Top N: text". Leading markdown emphasis is tolerated.
var rankingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^[ \t*_>-]*(\d{1,3})\.[ \t]+(.+)$`),
	regexp.MustCompile(`(?m)^[ \t*_>-]*#(\d{1,3})[ \t:]*(.+)$`),
	regexp.MustCompile(`(?m)^[ \t*_>-]*(\d{1,3})\)[ \t]*(.+)$`),
	regexp.MustCompile(`(?mi)^[ \t*_>-]*top[ \t]*(\d{1,3})[ \t:]+(.+)$`),
}

type competitor struct {
	name    string
	website string
	pattern *regexp.Regexp
}

// Analyzer inspects answers for one project. Patterns are compiled once in
// NewAnalyzer; Analyze is safe for concurrent use.
type Analyzer struct {
	brand          *regexp.Regexp
	website        string
	websitePattern *regexp.Regexp
	competitors    []competitor
	urls           *regexp.Regexp
}

// NewAnalyzer prepares an analyzer for the project's name, main website
// and competitors.
func NewAnalyzer(p *domain.Project) *Analyzer {
	a := &Analyzer{urls: urlPattern()}
	if p == nil {
		return a
	}
	a.brand = literal(p.Name)
	a.website = urlutil.BareDomain(p.MainWebsite)
	a.websitePattern = literal(a.website)
	for _, c := range p.Competitors {
		re := literal(c.Name)
		if re == nil {
			continue
		}
		a.competitors = append(a.competitors, competitor{name: c.Name, website: c.Website, pattern: re})
	}
	return a
}

func urlPattern() *regexp.Regexp {
	re, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		return xurls.Strict()
	}
	return re
}

// literal builds a case-insensitive pattern for s, nil when s is blank.
func literal(s string) *regexp.Regexp {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(s))
}

// Analyze never fails: blank input and internal faults both yield an
// all-false result with an explanatory summary.
func (a *Analyzer) Analyze(text string) (result *domain.VisibilityResult) {
	if strings.TrimSpace(text) == "" {
		return domain.NewEmptyVisibilityResult("No response to analyze")
	}
	defer func() {
		if r := recover(); r != nil {
			result = domain.NewEmptyVisibilityResult(fmt.Sprintf("Analysis failed: %v", r))
		}
	}()

	res := domain.NewEmptyVisibilityResult("")
	res.BrandMentions = mentions(a.brand, text)
	res.BrandMentioned = len(res.BrandMentions) > 0
	res.WebsiteMentions = mentions(a.websitePattern, text)
	res.WebsiteMentioned = len(res.WebsiteMentions) > 0
	res.Links = a.links(text)
	res.WebsiteLinked = len(res.Links) > 0

	for _, c := range a.competitors {
		found := mentions(c.pattern, text)
		if len(found) == 0 {
			continue
		}
		contexts := make([]string, 0, len(found))
		for _, m := range found {
			contexts = append(contexts, m.Context)
		}
		res.CompetitorsMentioned[c.name] = domain.CompetitorMention{
			Count:    len(found),
			Contexts: contexts,
			Website:  c.website,
		}
	}

	res.RankingPosition, res.RankingTotalItems, res.RankingContext = a.ranking(text)
	res.VisibilityScore = Score(res.BrandMentioned, res.WebsiteMentioned, res.WebsiteLinked, res.RankingPosition)
	res.Summary = summarize(res)
	return res
}

// mentions returns every non-overlapping case-insensitive occurrence.
func mentions(re *regexp.Regexp, text string) []domain.Mention {
	if re == nil {
		return []domain.Mention{}
	}
	locs := re.FindAllStringIndex(text, -1)
	out := make([]domain.Mention, 0, len(locs))
	for _, loc := range locs {
		out = append(out, domain.Mention{
			Offset:  loc[0],
			Context: textutil.Window(text, loc[0], loc[1], contextRadius),
		})
	}
	return out
}

func (a *Analyzer) links(text string) []domain.Link {
	out := []domain.Link{}
	if a.website == "" {
		return out
	}
	for _, loc := range a.urls.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		host := urlutil.Host(raw)
		if !urlutil.HostMatches(host, a.website) {
			continue
		}
		out = append(out, domain.Link{
			URL:     raw,
			Domain:  host,
			Context: textutil.Window(text, loc[0], loc[1], contextRadius),
		})
	}
	return out
}

// ranking scans the first numbering pattern that matches anything. An item
// qualifies only when it names the brand and carries a hyperlink, and its
// number is at most 10.
func (a *Analyzer) ranking(text string) (*int, int, string) {
	if a.brand == nil {
		return nil, 0, ""
	}
	for _, re := range rankingPatterns {
		items := re.FindAllStringSubmatch(text, -1)
		if len(items) == 0 {
			continue
		}
		for _, item := range items {
			rank, err := strconv.Atoi(item[1])
			if err != nil || rank < 1 || rank > maxRank {
				continue
			}
			body := strings.TrimSpace(item[2])
			if !a.brand.MatchString(body) || !a.urls.MatchString(body) {
				continue
			}
			return &rank, len(items), body
		}
		return nil, 0, ""
	}
	return nil, 0, ""
}
