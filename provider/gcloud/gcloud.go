// Package gcloud provisions Google Cloud projects that host the CMS on App
// Engine.
package gcloud

import (
	"context"
	"errors"
	"fmt"

	"github.com/santiagomed/mindful/logger"
)

var (
	// ErrProjectIDTaken is returned by API.CreateProject when the id belongs to
	// another project.
	ErrProjectIDTaken = errors.New("gcloud: project id already taken")
	// ErrProjectIDUnavailable is returned by SetupProject when no free id was
	// found within the allowed number of attempts.
	ErrProjectIDUnavailable = errors.New("gcloud: no available project id")
)

const DefaultMaxAttempts = 3

// Services enabled on every new project, in order. Billing must be enabled
// before it can be linked.
const (
	serviceBilling   = "cloudbilling.googleapis.com"
	serviceAppEngine = "appengine.googleapis.com"
	serviceBuild     = "cloudbuild.googleapis.com"
)

type Project struct {
	ProjectID     string
	ProjectNumber string
	Name          string
}

// ReplaceFunc proposes a new project id when takenID is unavailable.
type ReplaceFunc func(ctx context.Context, takenID string) (string, error)

type Client interface {
	// GetProject returns nil without error when the project does not exist.
	GetProject(ctx context.Context, projectID string) (*Project, error)
	SetupProject(ctx context.Context, name, projectID string, replace ReplaceFunc) (*Project, error)
}

// API is the set of Google Cloud calls needed to set up a project.
type API interface {
	GetProject(ctx context.Context, projectID string) (*Project, error)
	// CreateProject creates the project under folderID and waits for the
	// operation to finish.
	CreateProject(ctx context.Context, name, projectID, folderID string) (*Project, error)
	EnableService(ctx context.Context, projectNumber, service string) error
	LinkBilling(ctx context.Context, projectID, billingAccount string) error
	CreateApp(ctx context.Context, projectID, location string) error
}

type Config struct {
	ParentFolderID string
	BillingAccount string
	Location       string
	MaxAttempts    int
}

type Manager struct {
	api    API
	cfg    Config
	logger logger.Logger
}

func NewManager(api API, cfg Config, l logger.Logger) *Manager {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &Manager{api: api, cfg: cfg, logger: l}
}

func (m *Manager) GetProject(ctx context.Context, projectID string) (*Project, error) {
	return m.api.GetProject(ctx, projectID)
}

// SetupProject creates a project, links billing, enables App Engine and Cloud
// Build and creates the App Engine application. When the id is taken, replace
// is asked for another one; at most MaxAttempts ids are tried.
func (m *Manager) SetupProject(ctx context.Context, name, projectID string, replace ReplaceFunc) (*Project, error) {
	project, err := m.createProject(ctx, name, projectID, replace)
	if err != nil {
		return nil, err
	}
	if project.ProjectID == "" || project.ProjectNumber == "" {
		return nil, fmt.Errorf("gcloud: created project %q has no id or number", name)
	}

	log := m.logger.WithField("project", project.ProjectID)

	log.Debug("Enabling billing service")
	if err := m.api.EnableService(ctx, project.ProjectNumber, serviceBilling); err != nil {
		return nil, err
	}
	log.Debug("Linking billing account")
	if err := m.api.LinkBilling(ctx, project.ProjectID, m.cfg.BillingAccount); err != nil {
		return nil, err
	}
	for _, service := range []string{serviceAppEngine, serviceBuild} {
		log.Debug(fmt.Sprintf("Enabling %s", service))
		if err := m.api.EnableService(ctx, project.ProjectNumber, service); err != nil {
			return nil, err
		}
	}
	log.Debug(fmt.Sprintf("Creating App Engine app in %s", m.cfg.Location))
	if err := m.api.CreateApp(ctx, project.ProjectID, m.cfg.Location); err != nil {
		return nil, err
	}

	return project, nil
}

func (m *Manager) createProject(ctx context.Context, name, projectID string, replace ReplaceFunc) (*Project, error) {
	id := projectID
	for attempt := 1; ; attempt++ {
		project, err := m.api.CreateProject(ctx, name, id, m.cfg.ParentFolderID)
		if err == nil {
			return project, nil
		}
		if !errors.Is(err, ErrProjectIDTaken) {
			return nil, err
		}

		m.logger.WithField("project", id).Warn("Project id is taken")
		if replace == nil || attempt >= m.cfg.MaxAttempts {
			return nil, fmt.Errorf("%w: tried %d ids starting with %q", ErrProjectIDUnavailable, attempt, projectID)
		}
		id, err = replace(ctx, id)
		if err != nil {
			return nil, err
		}
	}
}

var _ Client = (*Manager)(nil)
