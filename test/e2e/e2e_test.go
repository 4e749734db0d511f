//go:build e2e

package e2e

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

// TestE2E_Auth checks the bearer token guard
func TestE2E_Auth(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	t.Run("health is open", func(t *testing.T) {
		resp, err := env.HTTPClient.Get(env.ServerURL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing token returns 401", func(t *testing.T) {
		resp, err := env.Get("/jobs/anything", "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong token returns 401", func(t *testing.T) {
		resp, err := env.Get("/jobs/anything", "nope")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		resp, err := env.Get("/jobs/anything", apiToken)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

// TestE2E_ExecutePrompt runs a prompt end to end and follows the stored analysis
func TestE2E_ExecutePrompt(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	_, _, prompts := env.Seed("Best CRM for {project_name} in {city}?")
	promptID := prompts[0].ID

	t.Run("preview reports missing variables", func(t *testing.T) {
		resp, err := env.Get("/prompts/"+promptID+"/preview", apiToken)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var preview struct {
			CanExecute       bool     `json:"can_execute"`
			MissingVariables []string `json:"missing_variables"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &preview))
		assert.False(t, preview.CanExecute)
		assert.Equal(t, []string{"city"}, preview.MissingVariables)
	})

	t.Run("execute without the variable fails", func(t *testing.T) {
		resp, err := env.Post("/prompts/"+promptID+"/execute", map[string]interface{}{}, apiToken)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	var analysisID string
	t.Run("execute with variables", func(t *testing.T) {
		resp, err := env.Post("/prompts/"+promptID+"/execute", map[string]interface{}{
			"variables": map[string]string{"city": "Lyon"},
		}, apiToken)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Error)

		var result struct {
			AnalysisID      string  `json:"analysis_id"`
			PromptExecuted  string  `json:"prompt_executed"`
			BrandMentioned  bool    `json:"brand_mentioned"`
			WebsiteLinked   bool    `json:"website_linked"`
			VisibilityScore float64 `json:"visibility_score"`
			Sources         []struct {
				URL string `json:"url"`
			} `json:"sources"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		analysisID = result.AnalysisID

		assert.Equal(t, "Best CRM for MyBrand in Lyon?", result.PromptExecuted)
		assert.True(t, result.BrandMentioned)
		assert.True(t, result.WebsiteLinked)
		assert.Greater(t, result.VisibilityScore, 0.0)
		assert.NotEmpty(t, result.Sources)
	})

	t.Run("stored analysis links the raw payload", func(t *testing.T) {
		require.NotEmpty(t, analysisID)
		resp, err := env.Get("/analyses/"+analysisID, apiToken)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var analysis struct {
			ID            string `json:"id"`
			RawPayloadURL string `json:"raw_payload_url"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &analysis))
		assert.Equal(t, analysisID, analysis.ID)
		require.NotEmpty(t, analysis.RawPayloadURL)

		raw, err := env.DownloadFile(analysis.RawPayloadURL)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "Best CRM for MyBrand in Lyon?")
	})

	t.Run("pending analysis gets classified", func(t *testing.T) {
		n, err := env.Topics.ClassifyPending(env.Ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

// TestE2E_BatchJob submits a project job and polls it to completion
func TestE2E_BatchJob(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	project, _, _ := env.Seed("Best CRM like {project_name}?", "FAIL on purpose", "Top CRM tools?")

	resp, err := env.Post("/projects/"+project.ID+"/jobs", nil, apiToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var submitted struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &submitted))
	assert.Equal(t, "queued", submitted.Status)

	var job domain.Job
	require.Eventually(t, func() bool {
		resp, err := env.Get("/jobs/"+submitted.JobID, apiToken)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(resp.Data, &job); err != nil {
			return false
		}
		return job.Status.IsTerminal()
	}, 30*time.Second, 200*time.Millisecond)

	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 3, job.TotalItems)
	assert.Equal(t, 3, job.ProcessedItems)
	assert.Equal(t, 2, job.SuccessCount)
	assert.Equal(t, 1, job.ErrorCount)

	t.Run("unknown project returns 404", func(t *testing.T) {
		resp, err := env.Post("/projects/00000000-0000-0000-0000-000000000000/jobs", nil, apiToken)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

// TestE2E_CLI drives the geotrack binary against the server
func TestE2E_CLI(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.BuildBinaries()
	project, _, prompts := env.Seed("Best CRM like {project_name}?")

	t.Run("execute", func(t *testing.T) {
		out, err := env.RunGeotrack("", "execute", prompts[0].ID)
		require.NoError(t, err, out)
		assert.Contains(t, out, "Brand mentioned: yes")
	})

	t.Run("run --wait", func(t *testing.T) {
		out, err := env.RunGeotrack("", "run", project.ID, "--wait", "--interval", "200ms")
		require.NoError(t, err, out)
		assert.Contains(t, out, "Status: completed")
	})

	t.Run("inspect from stdin", func(t *testing.T) {
		out, err := env.RunGeotrack("MyBrand is great, see https://mybrand.com", "inspect", "-", "--brand", "MyBrand", "--website", "mybrand.com")
		require.NoError(t, err, out)
		assert.Contains(t, out, "Website linked: yes")
	})
}
