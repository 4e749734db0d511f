package client

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/nlp"
	"github.com/cloo-solutions/geotrack/internal/sources"
	"github.com/cloo-solutions/geotrack/internal/visibility"
)

type inspectFlags struct {
	brand       string
	website     string
	competitors []string
	prompt      string
	sector      string
	description string
}

// InspectReport is the local analysis of one answer.
type InspectReport struct {
	Visibility     *domain.VisibilityResult     `json:"analysis_results"`
	Sources        []domain.Source              `json:"sources"`
	Classification *domain.ClassificationResult `json:"topics"`
}

// InspectCmd creates the inspect command. It runs the analyzers locally and
// needs no server.
func InspectCmd() *cobra.Command {
	var flags inspectFlags

	cmd := &cobra.Command{
		Use:   "inspect <file|->",
		Short: "Analyze an AI answer locally",
		Long: `Runs brand visibility, source extraction and topic classification on the
text read from a file (or stdin with "-"). Nothing is sent to the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			report, err := inspect(text, flags)
			if err != nil {
				return err
			}
			if wantsJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printInspect(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.brand, "brand", "", "Brand name to look for")
	cmd.Flags().StringVar(&flags.website, "website", "", "Brand website")
	cmd.Flags().StringArrayVar(&flags.competitors, "competitor", nil, "Competitor as Name or Name=website (repeatable)")
	cmd.Flags().StringVar(&flags.prompt, "prompt", "", "Prompt that produced the answer")
	cmd.Flags().StringVar(&flags.sector, "sector", "", "Sector for topic classification")
	cmd.Flags().StringVar(&flags.description, "description", "", "Business description used to detect the sector")
	_ = cmd.MarkFlagRequired("brand")

	return cmd
}

func readInput(stdin io.Reader, arg string) (string, error) {
	var data []byte
	var err error
	if arg == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

func parseCompetitors(values []string) ([]domain.Competitor, error) {
	competitors := make([]domain.Competitor, 0, len(values))
	for _, v := range values {
		name, website, _ := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid --competitor %q (expected Name or Name=website)", v)
		}
		competitors = append(competitors, domain.Competitor{Name: name, Website: strings.TrimSpace(website)})
	}
	return competitors, nil
}

func inspect(text string, flags inspectFlags) (*InspectReport, error) {
	if strings.TrimSpace(flags.brand) == "" {
		return nil, fmt.Errorf("--brand is required")
	}
	competitors, err := parseCompetitors(flags.competitors)
	if err != nil {
		return nil, err
	}

	project := &domain.Project{
		Name:        flags.brand,
		MainWebsite: flags.website,
		Competitors: competitors,
	}
	websites := make([]string, 0, len(competitors))
	for _, c := range competitors {
		websites = append(websites, c.Website)
	}

	found := sources.ExcludeDomains(sources.NewExtractor(sources.DefaultMaxItems).Extract(text), websites)
	if found == nil {
		found = []domain.Source{}
	}

	dict := nlp.DefaultDictionaries()
	classifier := nlp.NewClassifier(dict, zap.NewNop())

	return &InspectReport{
		Visibility:     visibility.NewAnalyzer(project).Analyze(text),
		Sources:        found,
		Classification: classifier.Classify(flags.prompt, text, dict.DetectSector(flags.sector, flags.description)),
	}, nil
}

func printInspect(w io.Writer, r *InspectReport) {
	v := r.Visibility
	fmt.Fprintf(w, "Visibility score: %.1f\n", v.VisibilityScore)
	fmt.Fprintf(w, "Brand mentioned: %s (%d)\n", yesNo(v.BrandMentioned), len(v.BrandMentions))
	fmt.Fprintf(w, "Website mentioned: %s\n", yesNo(v.WebsiteMentioned))
	fmt.Fprintf(w, "Website linked: %s\n", yesNo(v.WebsiteLinked))
	if v.RankingPosition != nil {
		fmt.Fprintf(w, "Ranking: %d of %d\n", *v.RankingPosition, v.RankingTotalItems)
	}

	names := make([]string, 0, len(v.CompetitorsMentioned))
	for name := range v.CompetitorsMentioned {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "Competitor %s: %d\n", name, v.CompetitorsMentioned[name].Count)
	}

	fmt.Fprintf(w, "Summary: %s\n", v.Summary)

	if len(r.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for _, s := range r.Sources {
			fmt.Fprintf(w, "  %s\n", s.URL)
		}
	}

	if c := r.Classification; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Sector: %s\n", c.Sector)
		fmt.Fprintf(w, "Intent: %s (%.2f)\n", c.SEOIntent, c.SEOConfidence)
		fmt.Fprintf(w, "Content type: %s\n", c.ContentType)
		for _, t := range c.BusinessTopics {
			fmt.Fprintf(w, "  topic %s: %.2f (%s)\n", t.Topic, t.Score, t.Relevance)
		}
	}
}
