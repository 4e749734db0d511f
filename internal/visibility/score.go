package visibility

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

const (
	brandWeight   = 30
	websiteWeight = 25
	linkWeight    = 35
	maxScore      = 100
)

// Score is the additive 0-100 visibility score. It is non-decreasing in
// each signal and in ranking improvement.
func Score(brand, website, linked bool, position *int) float64 {
	score := 0.0
	if brand {
		score += brandWeight
	}
	if website {
		score += websiteWeight
	}
	if linked {
		score += linkWeight
	}
	score += rankingBonus(position)
	if score > maxScore {
		return maxScore
	}
	return score
}

func rankingBonus(position *int) float64 {
	if position == nil || *position < 1 {
		return 0
	}
	switch p := *position; {
	case p == 1:
		return 10
	case p <= 3:
		return 7
	case p <= 5:
		return 5
	case p <= maxRank:
		return 3
	default:
		return 0
	}
}

// Qualifier maps a score to its traffic-light label.
func Qualifier(score float64) string {
	switch {
	case score >= 80:
		return "Excellent visibility"
	case score >= 60:
		return "Good visibility"
	case score >= 30:
		return "Moderate visibility"
	default:
		return "Poor visibility"
	}
}

func summarize(r *domain.VisibilityResult) string {
	parts := []string{Qualifier(r.VisibilityScore)}

	var details []string
	if r.BrandMentioned {
		details = append(details, fmt.Sprintf("brand mentioned %dx", len(r.BrandMentions)))
	}
	if r.WebsiteMentioned {
		details = append(details, fmt.Sprintf("site mentioned %dx", len(r.WebsiteMentions)))
	}
	if r.WebsiteLinked {
		details = append(details, fmt.Sprintf("%d link(s)", len(r.Links)))
	}
	if r.RankingPosition != nil {
		details = append(details, fmt.Sprintf("position #%d", *r.RankingPosition))
	}
	if len(details) > 0 {
		parts = append(parts, "("+strings.Join(details, ", ")+")")
	}
	if n := len(r.CompetitorsMentioned); n > 0 {
		parts = append(parts, fmt.Sprintf("• %d competitor(s) mentioned", n))
	}
	return strings.Join(parts, " ")
}
