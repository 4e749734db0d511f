package client

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

type executeFlags struct {
	vars      []string
	maxTokens int
	models    []string
	compare   bool
}

// ExecutionAnalysis is one model answer as returned by the execute endpoint.
type ExecutionAnalysis struct {
	AnalysisID       string                   `json:"analysis_id"`
	AIModelID        string                   `json:"ai_model_id"`
	AIModelUsed      string                   `json:"ai_model_used"`
	AIResponse       string                   `json:"ai_response"`
	TokensUsed       int                      `json:"tokens_used"`
	ProcessingTimeMS int64                    `json:"processing_time_ms"`
	CostEstimated    float64                  `json:"cost_estimated"`
	WebSearchUsed    bool                     `json:"web_search_used"`
	Visibility       *domain.VisibilityResult `json:"analysis_results"`
	Sources          []domain.Source          `json:"sources"`
}

// ExecutionOutput covers both the single-model and the comparison payload.
type ExecutionOutput struct {
	AnalysisID     string                   `json:"analysis_id"`
	PromptID       string                   `json:"prompt_id"`
	PromptName     string                   `json:"prompt_name"`
	ProjectName    string                   `json:"project_name"`
	PromptExecuted string                   `json:"prompt_executed"`
	AIModelUsed    string                   `json:"ai_model_used"`
	AIResponse     string                   `json:"ai_response"`
	Visibility     *domain.VisibilityResult `json:"analysis_results"`
	Sources        []domain.Source          `json:"sources"`
	Analyses       []ExecutionAnalysis      `json:"analyses"`
	TotalCost      float64                  `json:"total_cost"`
	Comparison     *struct {
		BestModel      string  `json:"best_model"`
		BestVisibility float64 `json:"best_visibility"`
		TotalTokens    int     `json:"total_tokens"`
	} `json:"comparison_summary"`
}

// ExecuteCmd creates the execute command.
func ExecuteCmd() *cobra.Command {
	var flags executeFlags

	cmd := &cobra.Command{
		Use:   "execute <prompt_id>",
		Short: "Execute a prompt against its AI models",
		Long: `Renders the prompt with the project variables plus any --var overrides,
sends it to the selected models and prints the visibility analysis of each answer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringArrayVar(&flags.vars, "var", nil, "Variable override as key=value (repeatable)")
	cmd.Flags().IntVar(&flags.maxTokens, "max-tokens", 0, "Maximum tokens per answer (0 uses the model default)")
	cmd.Flags().StringSliceVar(&flags.models, "model", nil, "AI model ID to use (repeatable)")
	cmd.Flags().BoolVar(&flags.compare, "compare", false, "Run every active model and compare them")

	return cmd
}

func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q (expected key=value)", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

func runExecute(cmd *cobra.Command, promptID string, flags executeFlags) error {
	if flags.maxTokens < 0 {
		return fmt.Errorf("--max-tokens must be zero or positive")
	}
	vars, err := parseVars(flags.vars)
	if err != nil {
		return err
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"variables":      vars,
		"max_tokens":     flags.maxTokens,
		"model_ids":      flags.models,
		"compare_models": flags.compare,
	}
	resp, err := api.Post(cmd.Context(), "/prompts/"+url.PathEscape(promptID)+"/execute", body)
	if err != nil {
		return fmt.Errorf("failed to execute prompt: %w", err)
	}

	if wantsJSON(cmd) {
		return writeJSON(cmd.OutOrStdout(), resp.Data)
	}

	var out ExecutionOutput
	if err := resp.Decode(&out); err != nil {
		return err
	}
	printExecution(cmd.OutOrStdout(), &out)
	return nil
}

func printExecution(w io.Writer, out *ExecutionOutput) {
	fmt.Fprintf(w, "Prompt: %s (%s)\n", out.PromptName, out.PromptID)
	fmt.Fprintf(w, "Project: %s\n", out.ProjectName)
	fmt.Fprintf(w, "Executed: %s\n", out.PromptExecuted)

	if len(out.Analyses) == 0 {
		fmt.Fprintln(w)
		printAnalysis(w, ExecutionAnalysis{
			AnalysisID:  out.AnalysisID,
			AIModelUsed: out.AIModelUsed,
			AIResponse:  out.AIResponse,
			Visibility:  out.Visibility,
			Sources:     out.Sources,
		})
		return
	}

	for _, a := range out.Analyses {
		fmt.Fprintln(w)
		printAnalysis(w, a)
	}
	fmt.Fprintln(w)
	if out.Comparison != nil && out.Comparison.BestModel != "" {
		fmt.Fprintf(w, "Best model: %s (score %.1f)\n", out.Comparison.BestModel, out.Comparison.BestVisibility)
	}
	fmt.Fprintf(w, "Total cost: $%.4f\n", out.TotalCost)
}

func printAnalysis(w io.Writer, a ExecutionAnalysis) {
	fmt.Fprintf(w, "--- %s (analysis %s) ---\n", a.AIModelUsed, a.AnalysisID)
	if v := a.Visibility; v != nil {
		fmt.Fprintf(w, "Visibility score: %.1f\n", v.VisibilityScore)
		fmt.Fprintf(w, "Brand mentioned: %s\n", yesNo(v.BrandMentioned))
		fmt.Fprintf(w, "Website linked: %s\n", yesNo(v.WebsiteLinked))
		if v.RankingPosition != nil {
			fmt.Fprintf(w, "Ranking: %d of %d\n", *v.RankingPosition, v.RankingTotalItems)
		}
		if len(v.CompetitorsMentioned) > 0 {
			names := make([]string, 0, len(v.CompetitorsMentioned))
			for name := range v.CompetitorsMentioned {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintf(w, "Competitors: %s\n", strings.Join(names, ", "))
		}
	}
	if len(a.Sources) > 0 {
		fmt.Fprintf(w, "Sources: %d\n", len(a.Sources))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, a.AIResponse)
}
