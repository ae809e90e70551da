// Package atlas manages database users and clusters on MongoDB Atlas.
package atlas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mongodb-forks/digest"

	"github.com/santiagomed/mindful/logger"
)

const defaultBaseURL = "https://cloud.mongodb.com/api/atlas/v1.0"

var ErrUserAlreadyExists = errors.New("atlas: database user already exists")

type User struct {
	Username     string `json:"username"`
	DatabaseName string `json:"databaseName"`
}

type Client interface {
	// GetUser returns nil without error when the user does not exist.
	GetUser(ctx context.Context, name string) (*User, error)
	// CreateUser fails with ErrUserAlreadyExists when name is taken.
	CreateUser(ctx context.Context, name, password string) error
	// GetConnectionString returns the srv address of a cluster.
	GetConnectionString(ctx context.Context, cluster string) (string, error)
}

// APIError is the error body returned by the Atlas API.
type APIError struct {
	Status    int    `json:"error"`
	ErrorCode string `json:"errorCode"`
	Detail    string `json:"detail"`
	Reason    string `json:"reason"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("atlas API error: %s - %s", e.ErrorCode, e.Detail)
	}
	return fmt.Sprintf("atlas API error: %d %s", e.Status, e.Reason)
}

type role struct {
	DatabaseName string `json:"databaseName"`
	RoleName     string `json:"roleName"`
}

type createUserRequest struct {
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
	GroupID      string `json:"groupId"`
	Password     string `json:"password"`
	Roles        []role `json:"roles"`
}

type cluster struct {
	Name       string `json:"name"`
	SrvAddress string `json:"srvAddress"`
}

// HTTPClient calls the Atlas admin API for one project using digest auth.
type HTTPClient struct {
	baseURL    string
	projectID  string
	httpClient *http.Client
	logger     logger.Logger
}

type Option func(*HTTPClient)

func WithBaseURL(u string) Option {
	return func(c *HTTPClient) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *HTTPClient) {
		c.logger = l
	}
}

func NewHTTPClient(publicKey, privateKey, projectID string, opts ...Option) (*HTTPClient, error) {
	if publicKey == "" || privateKey == "" {
		return nil, errors.New("atlas API key pair is required")
	}
	if projectID == "" {
		return nil, errors.New("atlas project id is required")
	}
	c := &HTTPClient{
		baseURL:    defaultBaseURL,
		projectID:  projectID,
		httpClient: &http.Client{Transport: digest.NewTransport(publicKey, privateKey)},
		logger:     logger.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, name string) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/databaseUsers/admin/"+name, nil, &user)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode == "USERNAME_NOT_FOUND" {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser creates an admin-database user with dbAdmin and readWrite on the
// database of the same name.
func (c *HTTPClient) CreateUser(ctx context.Context, name, password string) error {
	req := createUserRequest{
		DatabaseName: "admin",
		Username:     name,
		GroupID:      c.projectID,
		Password:     password,
		Roles: []role{
			{DatabaseName: name, RoleName: "dbAdmin"},
			{DatabaseName: name, RoleName: "readWrite"},
		},
	}
	err := c.do(ctx, http.MethodPost, "/databaseUsers", req, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode == "USER_ALREADY_EXISTS" {
			return fmt.Errorf("%w: %s", ErrUserAlreadyExists, name)
		}
		return err
	}
	return nil
}

func (c *HTTPClient) GetConnectionString(ctx context.Context, name string) (string, error) {
	var cl cluster
	if err := c.do(ctx, http.MethodGet, "/clusters/"+name, nil, &cl); err != nil {
		return "", err
	}
	if cl.SrvAddress == "" {
		return "", fmt.Errorf("cluster %s has no srv address", name)
	}
	return cl.SrvAddress, nil
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

	url := fmt.Sprintf("%s/groups/%s%s", c.baseURL, c.projectID, endpoint)
	c.logger.Debug(fmt.Sprintf("%s %s", method, url))

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
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
		apiErr := &APIError{Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			return fmt.Errorf("atlas API error: %d %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return apiErr
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
