package nlp

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// normalize composes, lowercases and strips punctuation so keywords and
// answers compare on the same form. Letters, digits, hyphens and
// apostrophes survive; runs of anything else collapse to one space.
func normalize(s string) string {
	return newDocument(s).text
}

// document is a normalized text that remembers where each of its bytes
// came from, so matches found on the normalized form can be quoted from
// the input as written.
type document struct {
	text   string
	source string // NFC form of the input
	origin []int  // origin[i] is the source offset of the rune behind text[i]
}

func newDocument(s string) *document {
	src := norm.NFC.String(s)
	lower := cases.Lower(language.French)

	var b strings.Builder
	b.Grow(len(src))
	origin := make([]int, 0, len(src))
	pendingSpace := false
	for i, r := range src {
		for _, lr := range lower.String(apostrophes.Replace(string(r))) {
			if !unicode.IsLetter(lr) && !unicode.IsDigit(lr) && lr != '-' && lr != '\'' {
				pendingSpace = true
				continue
			}
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
				origin = append(origin, i)
			}
			pendingSpace = false
			n, _ := b.WriteRune(lr)
			for k := 0; k < n; k++ {
				origin = append(origin, i)
			}
		}
	}
	return &document{text: b.String(), source: src, origin: origin}
}

// span maps the normalized byte range [start, end) onto the source.
func (d *document) span(start, end int) (int, int) {
	if start < 0 || end <= start || end > len(d.origin) {
		return 0, 0
	}
	last := d.origin[end-1]
	_, size := utf8.DecodeRuneInString(d.source[last:])
	return d.origin[start], last + size
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// term is a dictionary entry prepared for matching on normalized text.
type term struct {
	label  string
	needle string
}

func newTerm(label string) term {
	return term{label: label, needle: normalize(label)}
}

func newTerms(labels []string) []term {
	out := make([]term, 0, len(labels))
	for _, l := range labels {
		if t := newTerm(l); t.needle != "" {
			out = append(out, t)
		}
	}
	return out
}

// find returns the byte offsets of non-overlapping occurrences that sit on
// word boundaries.
func (t term) find(text string) []int {
	if t.needle == "" {
		return nil
	}
	var out []int
	for i := 0; i <= len(text)-len(t.needle); {
		j := strings.Index(text[i:], t.needle)
		if j < 0 {
			break
		}
		start := i + j
		end := start + len(t.needle)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			out = append(out, start)
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		i = start + size
	}
	return out
}

func (t term) count(text string) int {
	return len(t.find(text))
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

// tokens splits text into runs of letters.
func tokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
