package client

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/geotrack/internal/prompt"
)

// PreviewCmd creates the preview command.
func PreviewCmd() *cobra.Command {
	var vars []string

	cmd := &cobra.Command{
		Use:   "preview <prompt_id>",
		Short: "Render a prompt without calling any model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, args[0], vars)
		},
	}

	cmd.Flags().StringArrayVar(&vars, "var", nil, "Variable override as key=value (repeatable)")

	return cmd
}

func runPreview(cmd *cobra.Command, promptID string, pairs []string) error {
	vars, err := parseVars(pairs)
	if err != nil {
		return err
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	path := "/prompts/" + url.PathEscape(promptID) + "/preview"
	if len(vars) > 0 {
		query := url.Values{}
		for k, v := range vars {
			query.Set(k, v)
		}
		path += "?" + query.Encode()
	}

	resp, err := api.Get(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("failed to preview prompt: %w", err)
	}

	if wantsJSON(cmd) {
		return writeJSON(cmd.OutOrStdout(), resp.Data)
	}

	var preview prompt.Preview
	if err := resp.Decode(&preview); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Can execute: %s\n", yesNo(preview.CanExecute))
	if len(preview.MissingVariables) > 0 {
		fmt.Fprintf(w, "Missing variables: %s\n", strings.Join(preview.MissingVariables, ", "))
	}
	if preview.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", preview.Error)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, preview.Prompt)
	return nil
}
