// Package kms is a thin client for the knowledge-management system,
// which tracks deliverables per employee. The formal data export pulls
// per-project counts from it.
package kms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fairview/review-cycle-service/internal/config"
)

// ProjectCount is the number of deliverables an employee filed for one
// project.
type ProjectCount struct {
	ProjectName string `json:"project_name"`
	Count       int    `json:"count"`
}

// Client reads project counts over JSON/HTTP.
type Client interface {
	ProjectCounts(ctx context.Context, employeeName string) ([]ProjectCount, error)
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(cfg config.KMS) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *HTTPClient) ProjectCounts(ctx context.Context, employeeName string) ([]ProjectCount, error) {
	const op = "internal.kms.ProjectCounts"

	u := fmt.Sprintf("%s/employees/%s/project-counts", c.baseURL, url.PathEscape(employeeName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var counts []ProjectCount
	if err := json.NewDecoder(resp.Body).Decode(&counts); err != nil {
		return nil, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}

	return counts, nil
}
