package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
)

// DefaultTimeout bounds one review call.
const DefaultTimeout = 60 * time.Second

// Client is the HTTP implementation of the Reviewer collaborator.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a reviewer client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

type reviewResponse struct {
	OK     bool             `json:"ok"`
	Error  string           `json:"error,omitempty"`
	Report *domain.QAReport `json:"report"`
}

// Review posts the minimized context and decodes the structured report.
func (c *Client) Review(ctx context.Context, rc ReviewContext) (*domain.QAReport, error) {
	body, err := json.Marshal(rc)
	if err != nil {
		return nil, domain.WrapFailure(domain.FailReview, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/review", bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapFailure(domain.FailReview, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.WrapFailure(domain.FailReview, "upstream request failed", err)
	}
	defer resp.Body.Close()

	var out reviewResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.WrapFailure(domain.FailReview, "decode response", err)
	}
	if resp.StatusCode >= 400 || !out.OK {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("upstream returned status %d", resp.StatusCode)
		}
		return nil, domain.NewFailure(domain.FailReview, msg)
	}
	if out.Report == nil {
		return nil, domain.NewFailure(domain.FailReview, "response missing report")
	}
	return out.Report, nil
}
