//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap/zaptest"

	"github.com/cloo-solutions/geotrack/internal/api/handlers"
	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/jobs"
	"github.com/cloo-solutions/geotrack/internal/nlp"
	"github.com/cloo-solutions/geotrack/internal/repository"
	"github.com/cloo-solutions/geotrack/internal/server"
	"github.com/cloo-solutions/geotrack/internal/service"
	"github.com/cloo-solutions/geotrack/internal/storage"
	"github.com/cloo-solutions/geotrack/internal/testutil"
)

const apiToken = "e2e-secret-token"

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Redis        *miniredis.Miniredis
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	Controller   *jobs.Controller
	Topics       *service.TopicsService
	BinaryDir    string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client := s3C.NewArchive(ctx, t, "test-raw-payloads")

	mr := miniredis.RunT(t)

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	env := &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Redis:      mr,
		Pool:       pool,
		S3Client:   s3Client,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	env.startServer(port)
	return env
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// Seed stores a project with one competitor, a model and the given prompt templates.
func (e *E2ETestEnv) Seed(templates ...string) (*domain.Project, *domain.AIModel, []*domain.Prompt) {
	project := &domain.Project{
		ID:          uuid.NewString(),
		Name:        "MyBrand",
		MainWebsite: "https://mybrand.com",
		Description: "Logiciel CRM en SaaS",
		Keywords:    []string{"crm"},
		Competitors: []domain.Competitor{{Name: "Rival", Website: "rival.com"}},
		CreatedAt:   time.Now().UTC(),
	}
	if err := repository.NewProjectRepository(e.Pool).Create(e.Ctx, project); err != nil {
		e.T.Fatalf("failed to seed project: %v", err)
	}

	model := &domain.AIModel{
		ID:              uuid.NewString(),
		Name:            "GPT-4o",
		Provider:        domain.ProviderOpenAI,
		ModelIdentifier: "gpt-4o",
		MaxTokens:       500,
		CostPer1KTokens: 0.01,
		IsActive:        true,
	}
	if err := repository.NewAIModelRepository(e.Pool).Create(e.Ctx, model); err != nil {
		e.T.Fatalf("failed to seed model: %v", err)
	}

	prompts := make([]*domain.Prompt, 0, len(templates))
	for i, tmpl := range templates {
		p := &domain.Prompt{
			ID:        uuid.NewString(),
			ProjectID: project.ID,
			Name:      fmt.Sprintf("prompt %d", i+1),
			Template:  tmpl,
			IsActive:  true,
			Model:     model,
			CreatedAt: time.Now().UTC(),
		}
		if err := repository.NewPromptRepository(e.Pool).Create(e.Ctx, p); err != nil {
			e.T.Fatalf("failed to seed prompt: %v", err)
		}
		prompts = append(prompts, p)
	}
	return project, model, prompts
}

// BuildBinaries builds the geotrack CLI
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "geotrack-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "geotrack"), "./cmd/geotrack")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build geotrack: %v\n%s", err, out)
	}
}

// RunGeotrack runs the geotrack CLI against the test server
func (e *E2ETestEnv) RunGeotrack(stdin string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "geotrack"), args...)
	cmd.Dir = e.BinaryDir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	cmd.Env = append(os.Environ(),
		"GEOTRACK_API_TOKEN="+apiToken,
		"GEOTRACK_API_URL="+e.ServerURL,
		"XDG_CONFIG_HOME="+e.BinaryDir,
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// APIResponse represents a standard API response
type APIResponse struct {
	StatusCode int
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error,omitempty"`
	Code       string          `json:"code,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path, token string) (*APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil, token)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}, token string) (*APIResponse, error) {
	return e.doRequest(http.MethodPost, path, body, token)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, token string) (*APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(respBody, apiResp); err != nil {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	return apiResp, nil
}

// DownloadFile downloads a file from a presigned URL
func (e *E2ETestEnv) DownloadFile(downloadURL string) ([]byte, error) {
	resp, err := e.HTTPClient.Get(downloadURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// cannedExecutor answers every prompt with a fixed text citing the brand.
type cannedExecutor struct{}

func (cannedExecutor) Execute(ctx context.Context, model *domain.AIModel, prompt string, maxTokens int) (*domain.Completion, error) {
	if strings.Contains(prompt, "FAIL") {
		return nil, domain.Wrap(domain.ErrProviderFailed, fmt.Errorf("upstream refused"))
	}
	text := "Top picks:\n1. [MyBrand](https://mybrand.com) is the best CRM to buy.\n2. Rival is cheaper.\n\nSources: https://example.org/crm-review"
	raw, _ := json.Marshal(map[string]string{"prompt": prompt, "text": text})
	return &domain.Completion{
		Text:             text,
		TokensUsed:       42,
		ProcessingTimeMS: 5,
		Cost:             model.Cost(42),
		ModelName:        model.Name,
		ActualModel:      model.ModelIdentifier,
		Raw:              raw,
	}, nil
}

func (e *E2ETestEnv) startServer(port int) {
	logger := zaptest.NewLogger(e.T)

	projectRepo := repository.NewProjectRepository(e.Pool)
	promptRepo := repository.NewPromptRepository(e.Pool)
	analysisRepo := repository.NewAnalysisRepository(e.Pool)

	executionSvc := service.NewExecutionService(promptRepo, repository.NewTxRunner(e.Pool), cannedExecutor{}, logger)
	executionSvc.WithArchive(e.S3Client)

	redisClient, err := jobs.NewRedisClient(e.Ctx, "redis://"+e.Redis.Addr())
	if err != nil {
		e.T.Fatalf("failed to connect to redis: %v", err)
	}
	e.Controller = jobs.NewController(executionSvc, promptRepo, jobs.NewRedisStore(redisClient, time.Hour), 2, logger)

	dict := nlp.DefaultDictionaries()
	e.Topics = service.NewTopicsService(analysisRepo, projectRepo, nlp.NewClassifier(dict, logger), logger)

	router := server.NewRouter(server.RouterConfig{
		APIToken:         apiToken,
		Logger:           logger,
		ExecutionHandler: handlers.NewExecutionHandler(executionSvc),
		JobHandler:       handlers.NewJobHandler(e.Controller, projectRepo),
		AnalyzeHandler:   handlers.NewAnalyzeHandler(e.Topics),
		AnalysisHandler:  handlers.NewAnalysisHandler(analysisRepo, e.S3Client, logger),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.T.Logf("server error: %v", err)
		}
	}()

	e.ServerURL = fmt.Sprintf("http://localhost:%d", port)
	waitForServer(e.T, e.ServerURL, 10*time.Second)

	e.ServerCloser = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		e.Controller.Wait(ctx)
		redisClient.Close()
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
