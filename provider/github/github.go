// Package github provisions repositories and Actions secrets on GitHub.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/santiagomed/mindful/logger"
)

type Repo struct {
	Name   string
	SSHURL string
}

// Client is the source-control provider as seen by jobs.
type Client interface {
	// GetRepo returns nil without error when the repository does not exist.
	GetRepo(ctx context.Context, name string) (*Repo, error)
	CreateRepo(ctx context.Context, name string) (*Repo, error)
	// AddSecrets encrypts each value with the repository's public key and
	// stores it as an Actions secret.
	AddSecrets(ctx context.Context, repo string, secrets map[string]string) error
}

// RESTClient talks to the GitHub REST API on behalf of one organisation.
type RESTClient struct {
	client *gh.Client
	org    string
	logger logger.Logger
}

type Option func(*RESTClient) error

// WithBaseURL points the client at another API host, such as a GitHub
// Enterprise server or a test server.
func WithBaseURL(base string) Option {
	return func(c *RESTClient) error {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("invalid github base url: %w", err)
		}
		c.client.BaseURL = u
		return nil
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *RESTClient) error {
		c.logger = l
		return nil
	}
}

func NewRESTClient(token, org string, opts ...Option) (*RESTClient, error) {
	if token == "" {
		return nil, errors.New("github token is required")
	}
	if org == "" {
		return nil, errors.New("github organisation is required")
	}
	c := &RESTClient{
		client: gh.NewClient(nil).WithAuthToken(token),
		org:    org,
		logger: logger.NewNullLogger(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *RESTClient) GetRepo(ctx context.Context, name string) (*Repo, error) {
	c.logger.Debug(fmt.Sprintf("GET repo %s/%s", c.org, name))
	repo, resp, err := c.client.Repositories.Get(ctx, c.org, name)
	if err != nil {
		if isNotFound(resp, err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting repo %s: %w", name, err)
	}
	return toRepo(repo), nil
}

func (c *RESTClient) CreateRepo(ctx context.Context, name string) (*Repo, error) {
	c.logger.Debug(fmt.Sprintf("POST repo %s/%s", c.org, name))
	repo, _, err := c.client.Repositories.Create(ctx, c.org, &gh.Repository{
		Name:    gh.String(name),
		Private: gh.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating repo %s: %w", name, err)
	}
	return toRepo(repo), nil
}

func (c *RESTClient) AddSecrets(ctx context.Context, repo string, secrets map[string]string) error {
	key, _, err := c.client.Actions.GetRepoPublicKey(ctx, c.org, repo)
	if err != nil {
		return fmt.Errorf("error getting public key of %s: %w", repo, err)
	}

	names := make([]string, 0, len(secrets))
	for name := range secrets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sealed, err := Seal(key.GetKey(), secrets[name])
		if err != nil {
			return fmt.Errorf("error encrypting secret %s: %w", name, err)
		}

		c.logger.WithField("secret", name).Debug(fmt.Sprintf("PUT secret on %s/%s", c.org, repo))
		_, err = c.client.Actions.CreateOrUpdateRepoSecret(ctx, c.org, repo, &gh.EncryptedSecret{
			Name:           name,
			KeyID:          key.GetKeyID(),
			EncryptedValue: sealed,
		})
		if err != nil {
			return fmt.Errorf("error storing secret %s on %s: %w", name, repo, err)
		}
	}
	return nil
}

func toRepo(r *gh.Repository) *Repo {
	return &Repo{Name: r.GetName(), SSHURL: r.GetSSHURL()}
}

func isNotFound(resp *gh.Response, err error) bool {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == http.StatusNotFound
	}
	return resp != nil && resp.StatusCode == http.StatusNotFound
}

var _ Client = (*RESTClient)(nil)
