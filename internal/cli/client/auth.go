package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// AuthCmd creates the auth parent command
func AuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage server credentials",
		Long:  "Login, logout, and check which geotrack server and token the CLI uses",
	}

	cmd.AddCommand(AuthLoginCmd())
	cmd.AddCommand(AuthLogoutCmd())
	cmd.AddCommand(AuthStatusCmd())

	return cmd
}

// AuthLoginCmd creates the auth login command
func AuthLoginCmd() *cobra.Command {
	var apiToken string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store server URL and API token",
		Long:  "Store API token and URL in the global config (~/.config/geotrack/config.json)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("token") {
				fmt.Fprint(cmd.OutOrStdout(), "Enter API token (empty for an open server): ")
				token, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				apiToken = token
			}
			return runAuthLogin(cmd.OutOrStdout(), apiToken, apiURL)
		},
	}

	cmd.Flags().StringVar(&apiToken, "token", "", "API token")
	cmd.Flags().StringVar(&apiURL, "url", defaultAPIURL, "API URL")

	return cmd
}

// AuthLogoutCmd creates the auth logout command
func AuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := DeleteGlobalConfig(); err != nil {
				return fmt.Errorf("failed to logout: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Successfully logged out")
			return nil
		},
	}
}

// AuthStatusCmd creates the auth status command
func AuthStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which server and token are in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			creds, err := ResolveCredentials("", "")
			if err != nil {
				return err
			}
			return runAuthStatus(cmd.OutOrStdout(), creds, outputJSON)
		},
	}

	cmd.Flags().Bool("output", false, "Output as JSON")

	return cmd
}

func readLine(r io.Reader) (string, error) {
	input, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

func runAuthLogin(w io.Writer, apiToken, apiURL string) error {
	apiURL = strings.TrimSpace(apiURL)
	if !strings.HasPrefix(apiURL, "http://") && !strings.HasPrefix(apiURL, "https://") {
		return fmt.Errorf("invalid API URL %q (expected http:// or https://)", apiURL)
	}

	config := &GlobalConfig{
		APIToken: strings.TrimSpace(apiToken),
		APIURL:   apiURL,
	}

	if err := SaveGlobalConfig(config); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Fprintln(w, "Successfully logged in")
	return nil
}

func runAuthStatus(w io.Writer, creds *Credentials, outputJSON bool) error {
	if outputJSON {
		status := map[string]interface{}{
			"authenticated": creds.TokenSource != SourceNone,
			"source":        string(creds.TokenSource),
			"api_url":       creds.APIURL,
		}
		if creds.TokenSource != SourceNone {
			status["api_token"] = maskToken(creds.APIToken)
		}
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	fmt.Fprintf(w, "API URL: %s\n", creds.APIURL)
	if creds.TokenSource == SourceNone {
		fmt.Fprintln(w, "API Token: none (requests are sent unauthenticated)")
		return nil
	}
	fmt.Fprintf(w, "API Token: %s\n", maskToken(creds.APIToken))
	fmt.Fprintf(w, "Source: %s\n", creds.TokenSource)
	return nil
}

func maskToken(token string) string {
	if len(token) < 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
