package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/geotrack/internal/config"
	"github.com/cloo-solutions/geotrack/internal/database"
	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/repository"
)

func ModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage AI models",
		Long:  "Register and list the AI models prompts can be executed against",
	}

	cmd.AddCommand(ModelAddCmd())
	cmd.AddCommand(ModelListCmd())

	return cmd
}

type modelFlags struct {
	provider   string
	identifier string
	maxTokens  int
	cost       float64
	inactive   bool
}

func ModelAddCmd() *cobra.Command {
	var f modelFlags

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register an AI model",
		Long:  "Register an AI model. The provider must be one of openai, anthropic, google or mistral.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := newAIModel(uuid.NewString(), args[0], f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repository.NewAIModelRepository(pool).Create(ctx, model); err != nil {
				return fmt.Errorf("failed to register model: %w", err)
			}

			outputFormat, _ := cmd.Flags().GetString("output")
			if outputFormat == "json" {
				return writeJSON(cmd.OutOrStdout(), model)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model registered: %s (%s)\n", model.Name, model.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.provider, "provider", "", "Provider (openai, anthropic, google, mistral)")
	cmd.Flags().StringVar(&f.identifier, "model-id", "", "Provider model identifier, e.g. gpt-4o")
	cmd.Flags().IntVar(&f.maxTokens, "max-tokens", domain.DefaultModelMaxTokens, "Maximum completion tokens")
	cmd.Flags().Float64Var(&f.cost, "cost", domain.DefaultCostPer1KTokens, "Estimated USD cost per 1000 tokens")
	cmd.Flags().BoolVar(&f.inactive, "inactive", false, "Register the model as inactive")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("model-id")

	return cmd
}

func newAIModel(id, name string, f modelFlags) (*domain.AIModel, error) {
	p, err := domain.ParseProvider(f.provider)
	if err != nil {
		return nil, err
	}
	m := &domain.AIModel{
		ID:              id,
		Name:            name,
		Provider:        p,
		ModelIdentifier: f.identifier,
		MaxTokens:       f.maxTokens,
		CostPer1KTokens: f.cost,
		IsActive:        !f.inactive,
	}
	if err := domain.ValidateAIModel(m); err != nil {
		return nil, err
	}
	return m, nil
}

func ModelListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List AI models",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			models, err := repository.NewAIModelRepository(pool).List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list models: %w", err)
			}

			outputFormat, _ := cmd.Flags().GetString("output")
			if outputFormat == "json" {
				if models == nil {
					models = []*domain.AIModel{}
				}
				return writeJSON(cmd.OutOrStdout(), models)
			}
			return printModels(cmd.OutOrStdout(), models)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func printModels(out io.Writer, models []*domain.AIModel) error {
	if len(models) == 0 {
		fmt.Fprintln(out, "No models registered.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROVIDER\tMODEL\tMAX TOKENS\tCOST/1K\tACTIVE")
	for _, m := range models {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4f\t%t\n",
			m.ID, m.Name, m.Provider, m.ModelIdentifier, m.MaxTokens, m.CostPer1KTokens, m.IsActive)
	}
	return w.Flush()
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL, MaxConns: 2})
}
