package domain

// Source is a citation-like URL pulled out of an answer.
type Source struct {
	URL           string `json:"url"`
	Domain        string `json:"domain"`
	BaseDomain    string `json:"base_domain,omitempty"`
	Title         string `json:"title,omitempty"`
	Snippet       string `json:"snippet,omitempty"`
	CitationLabel string `json:"citation_label,omitempty"`
	Position      int    `json:"position"`
}
