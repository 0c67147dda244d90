// recipectl is a small operator CLI for the recipe runner HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"recipe-runner/backend/pkg/models"
)

var (
	serverURL string
	token     string
)

func main() {
	root := &cobra.Command{
		Use:           "recipectl",
		Short:         "Manage and execute recipes against a recipe-runner server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&serverURL, "server", envOr("RECIPECTL_SERVER", "http://localhost:8080"), "Base URL of the recipe-runner server")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("RECIPECTL_TOKEN"), "Bearer token for authentication")

	root.AddCommand(listCmd(), runCmd(), showRunCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var recipes []models.Recipe
			if err := apiGet("/api/v1/recipes", &recipes); err != nil {
				return err
			}
			for _, r := range recipes {
				fmt.Printf("%s  %-24s  vars=%s\n", r.ID, r.Name, strings.Join(r.VariableNames(), ","))
			}
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:   "run <recipe-id>",
		Short: "Execute a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := map[string]any{}
			for _, kv := range vars {
				name, value, found := strings.Cut(kv, "=")
				if !found {
					return fmt.Errorf("invalid --var %q, expected name=value", kv)
				}
				values[name] = value
			}

			var run models.RunRecord
			if err := apiPost("/api/v1/recipes/"+args[0]+"/runs", map[string]any{"values": values}, &run); err != nil {
				return err
			}
			return printRun(&run)
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "Variable value as name=value (repeatable)")
	return cmd
}

func showRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-run <run-id>",
		Short: "Show a run record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var run models.RunRecord
			if err := apiGet("/api/v1/runs/"+args[0], &run); err != nil {
				return err
			}
			return printRun(&run)
		},
	}
}

func printRun(run *models.RunRecord) error {
	fmt.Printf("run %s  recipe=%s  status=%s\n", run.ID, run.RecipeID, run.Status)
	if seconds, ok := run.DurationSeconds(); ok {
		fmt.Printf("duration: %.2fs\n", seconds)
	}
	for _, step := range run.Results {
		if step.Success {
			fmt.Printf("response:\n%s\n", step.Response)
			if len(step.ToolsUsed) > 0 {
				fmt.Printf("tools: %s\n", strings.Join(step.ToolsUsed, ", "))
			}
			if len(step.ArtifactsCreated) > 0 {
				fmt.Printf("artifacts: %s\n", strings.Join(step.ArtifactsCreated, ", "))
			}
		} else {
			fmt.Printf("error: %s\n", step.Error)
		}
	}
	return nil
}

func apiGet(path string, out any) error {
	return apiDo(http.MethodGet, path, nil, out)
}

func apiPost(path string, body, out any) error {
	return apiDo(http.MethodPost, path, body, out)
}

func apiDo(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, serverURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(detail))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
