package nlp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "l'équipe a dit super", normalize("L’Équipe  a dit: «Super!»"))
	assert.Equal(t, "z-wave et a b testing", normalize("Z-Wave et A/B testing"))
	assert.Equal(t, "", normalize(" ?! "))
}

func TestDocument_SpanMapsBackToSource(t *testing.T) {
	doc := newDocument("Le Coût, «Élevé» ?")
	assert.Equal(t, "le coût élevé", doc.text)

	off := strings.Index(doc.text, "élevé")
	from, to := doc.span(off, off+len("élevé"))
	assert.Equal(t, "Élevé", doc.source[from:to])

	from, to = doc.span(0, len(doc.text))
	assert.Equal(t, "Le Coût, «Élevé", doc.source[from:to])

	from, to = doc.span(3, 3)
	assert.Equal(t, 0, from)
	assert.Equal(t, 0, to)
}

func TestDocument_ComposesSource(t *testing.T) {
	doc := newDocument("Cafe\u0301 Noir")
	assert.Equal(t, "café noir", doc.text)
	assert.Equal(t, "Café Noir", doc.source)
	assert.Len(t, doc.origin, len(doc.text))
}

func TestTermFind(t *testing.T) {
	vs := newTerm("vs")
	assert.Equal(t, []int{4}, vs.find("vsx vs"))

	multi := newTerm("Rapport qualité prix")
	assert.Equal(t, 1, multi.count("le meilleur rapport qualité prix du marché"))

	zwave := newTerm("Z-Wave")
	assert.Equal(t, 1, zwave.count("le z-wave et zigbee"))

	assert.Equal(t, 0, newTerm("?").count("anything"))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"prix", "somfy"}, tokens("prix 2024 somfy"))
}
