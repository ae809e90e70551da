// Package vercel creates hosting projects on Vercel.
package vercel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/santiagomed/mindful/logger"
)

const defaultBaseURL = "https://api.vercel.com"

type EnvType string

const (
	EnvPlain  EnvType = "plain"
	EnvSecret EnvType = "secret"
)

// Targets that every project environment variable is exposed to.
var DefaultTargets = []string{"production", "preview"}

type EnvVariable struct {
	Type   EnvType  `json:"type"`
	Key    string   `json:"key"`
	Value  string   `json:"value"`
	Target []string `json:"target"`
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Framework string `json:"framework,omitempty"`
}

type CreateProjectInput struct {
	Name      string
	Domain    string
	Framework string
	Env       []EnvVariable
}

type Client interface {
	// GetProject returns nil without error when no project has that name.
	GetProject(ctx context.Context, name string) (*Project, error)
	// CreateProject creates the project, attaches its domain and sets its
	// environment variables.
	CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error)
	GetSecretID(ctx context.Context, name string) (string, error)
}

type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vercel API error: %s - %s", e.Code, e.Message)
}

type errorResponse struct {
	Error APIError `json:"error"`
}

type secret struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

type HTTPClient struct {
	baseURL    string
	token      string
	teamID     string
	httpClient *http.Client
	logger     logger.Logger
}

type Option func(*HTTPClient)

func WithBaseURL(u string) Option {
	return func(c *HTTPClient) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithTeamID scopes every request to a team.
func WithTeamID(id string) Option {
	return func(c *HTTPClient) {
		c.teamID = id
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) {
		c.httpClient = h
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *HTTPClient) {
		c.logger = l
	}
}

func NewHTTPClient(token string, opts ...Option) (*HTTPClient, error) {
	if token == "" {
		return nil, errors.New("vercel token is required")
	}
	c := &HTTPClient{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{},
		logger:     logger.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) GetProject(ctx context.Context, name string) (*Project, error) {
	var p Project
	err := c.do(ctx, http.MethodGet, "/v9/projects/"+url.PathEscape(name), nil, &p)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error) {
	body := map[string]interface{}{"name": in.Name}
	if in.Framework != "" {
		body["framework"] = in.Framework
	}

	var p Project
	if err := c.do(ctx, http.MethodPost, "/v10/projects", body, &p); err != nil {
		return nil, fmt.Errorf("error creating project %s: %w", in.Name, err)
	}

	if in.Domain != "" {
		endpoint := fmt.Sprintf("/v10/projects/%s/domains", p.ID)
		if err := c.do(ctx, http.MethodPost, endpoint, map[string]string{"name": in.Domain}, nil); err != nil {
			return nil, fmt.Errorf("error adding domain %s to %s: %w", in.Domain, in.Name, err)
		}
	}

	for _, env := range in.Env {
		endpoint := fmt.Sprintf("/v10/projects/%s/env", p.ID)
		if err := c.do(ctx, http.MethodPost, endpoint, env, nil); err != nil {
			return nil, fmt.Errorf("error adding env %s to %s: %w", env.Key, in.Name, err)
		}
	}

	return &p, nil
}

func (c *HTTPClient) GetSecretID(ctx context.Context, name string) (string, error) {
	var s secret
	if err := c.do(ctx, http.MethodGet, "/v3/secrets/"+url.PathEscape(name), nil, &s); err != nil {
		return "", fmt.Errorf("error getting secret %s: %w", name, err)
	}
	return s.UID, nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	u := c.baseURL + endpoint
	if c.teamID != "" {
		u += "?teamId=" + url.QueryEscape(c.teamID)
	}
	c.logger.Debug(fmt.Sprintf("%s %s", method, u))

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil {
			return &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: strings.TrimSpace(string(respBody))}
		}
		errResp.Error.Status = resp.StatusCode
		return &errResp.Error
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("error unmarshaling response: %w", err)
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)
