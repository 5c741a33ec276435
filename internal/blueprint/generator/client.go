// Package generator wraps the remote Generator collaborator that turns a
// finalized project intent into a concrete set of files.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
	"github.com/blueprintforge/blueprint-backend/internal/logging"
)

// DefaultTimeout bounds one generation call end to end.
const DefaultTimeout = 120 * time.Second

// Client calls the upstream generation service.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a generator client. Calls are throttled so a burst of
// finalized wizards cannot stampede the upstream model service.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 4),
	}
}

// generateRequest is the wire form of the minimized intent sent upstream.
type generateRequest struct {
	ProjectType  domain.ProjectType                `json:"project_type"`
	Description  string                            `json:"description"`
	Answers      map[domain.QuestionID]domain.AnswerValue `json:"answers"`
	AgentPersona domain.AgentPersona               `json:"agent_persona"`
}

type generateResponse struct {
	OK      bool                     `json:"ok"`
	Error   string                   `json:"error,omitempty"`
	Project *domain.GeneratedProject `json:"project"`
}

// Generate invokes the Generator with the intent and returns a
// shape-validated GeneratedProject. Any failure, including a structurally
// invalid response, is a GenerationFailure.
func (c *Client) Generate(ctx context.Context, intent domain.ProjectIntent) (*domain.GeneratedProject, error) {
	logger := logging.NewLogger(ctx)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, domain.WrapFailure(domain.FailGeneration, "rate limit wait", err)
	}

	body, err := json.Marshal(generateRequest{
		ProjectType:  intent.ProjectType,
		Description:  intent.Description,
		Answers:      intent.Answers,
		AgentPersona: intent.AgentPersona,
	})
	if err != nil {
		return nil, domain.WrapFailure(domain.FailGeneration, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapFailure(domain.FailGeneration, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.LogError("generate", err)
		return nil, domain.WrapFailure(domain.FailGeneration, "upstream request failed", err)
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		logger.LogError("generate", err)
		return nil, domain.WrapFailure(domain.FailGeneration, "decode response", err)
	}
	if resp.StatusCode >= 400 || !out.OK {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("upstream returned status %d", resp.StatusCode)
		}
		logger.LogWarnf("generate", "upstream failure: %s", msg)
		return nil, domain.NewFailure(domain.FailGeneration, msg)
	}
	if err := validateProject(out.Project); err != nil {
		logger.LogError("generate", err)
		return nil, domain.WrapFailure(domain.FailGeneration, "invalid project shape", err)
	}

	logger.LogInfof("generate", "generated %d files in %s", len(out.Project.Files), time.Since(start))
	return out.Project, nil
}

// validateProject enforces the GeneratedProject shape contract: a response
// missing required fields is a failure, never a partial success.
func validateProject(p *domain.GeneratedProject) error {
	if p == nil {
		return fmt.Errorf("missing project")
	}
	if p.ProjectName == "" {
		return fmt.Errorf("missing project_name")
	}
	if p.Summary == "" {
		return fmt.Errorf("missing summary")
	}
	if len(p.Files) == 0 {
		return fmt.Errorf("missing files")
	}
	for path := range p.Files {
		if path == "" {
			return fmt.Errorf("empty file path")
		}
	}
	return nil
}
