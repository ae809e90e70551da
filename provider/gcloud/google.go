package gcloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/appengine/v1"
	"google.golang.org/api/cloudbilling/v1"
	"google.golang.org/api/cloudresourcemanager/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/serviceusage/v1"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultPollAttempts = 6
)

// GoogleAPI implements API with the Google Cloud REST clients.
type GoogleAPI struct {
	projects   *cloudresourcemanager.ProjectsService
	operations *cloudresourcemanager.OperationsService
	billing    *cloudbilling.ProjectsService
	services   *serviceusage.ServicesService
	apps       *appengine.AppsService

	pollInterval time.Duration
	pollAttempts int
}

// NewGoogleAPI builds the clients. opts usually carry credentials, for example
// option.WithCredentialsFile.
func NewGoogleAPI(ctx context.Context, opts ...option.ClientOption) (*GoogleAPI, error) {
	resources, err := cloudresourcemanager.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating resource manager client: %w", err)
	}
	billing, err := cloudbilling.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating billing client: %w", err)
	}
	usage, err := serviceusage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating service usage client: %w", err)
	}
	apps, err := appengine.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating app engine client: %w", err)
	}
	return &GoogleAPI{
		projects:     resources.Projects,
		operations:   resources.Operations,
		billing:      billing.Projects,
		services:     usage.Services,
		apps:         apps.Apps,
		pollInterval: defaultPollInterval,
		pollAttempts: defaultPollAttempts,
	}, nil
}

// GetProject treats 403 like 404: Google answers 403 for ids that do not exist.
func (g *GoogleAPI) GetProject(ctx context.Context, projectID string) (*Project, error) {
	p, err := g.projects.Get(projectID).Context(ctx).Do()
	if err != nil {
		if hasCode(err, http.StatusNotFound, http.StatusForbidden) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting project %s: %w", projectID, err)
	}
	return toProject(p), nil
}

func (g *GoogleAPI) CreateProject(ctx context.Context, name, projectID, folderID string) (*Project, error) {
	op, err := g.projects.Create(&cloudresourcemanager.Project{
		Name:      name,
		ProjectId: projectID,
		Parent:    &cloudresourcemanager.ResourceId{Type: "folder", Id: folderID},
	}).Context(ctx).Do()
	if err != nil {
		if hasCode(err, http.StatusConflict) {
			return nil, fmt.Errorf("%w: %s", ErrProjectIDTaken, projectID)
		}
		return nil, fmt.Errorf("error creating project %s: %w", projectID, err)
	}
	if op.Name == "" {
		return nil, errors.New("gcloud: create project returned no operation")
	}

	done, err := g.waitOperation(ctx, op)
	if err != nil {
		return nil, err
	}

	var p cloudresourcemanager.Project
	if err := json.Unmarshal(done.Response, &p); err != nil {
		return nil, fmt.Errorf("error decoding created project: %w", err)
	}
	return toProject(&p), nil
}

func (g *GoogleAPI) waitOperation(ctx context.Context, op *cloudresourcemanager.Operation) (*cloudresourcemanager.Operation, error) {
	for attempt := 0; ; attempt++ {
		if op.Done {
			if op.Error != nil {
				return nil, fmt.Errorf("operation %s failed: %s", op.Name, op.Error.Message)
			}
			return op, nil
		}
		if attempt >= g.pollAttempts {
			return nil, fmt.Errorf("operation %s did not complete", op.Name)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.pollInterval):
		}

		next, err := g.operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("error checking operation %s: %w", op.Name, err)
		}
		op = next
	}
}

func (g *GoogleAPI) EnableService(ctx context.Context, projectNumber, service string) error {
	name := fmt.Sprintf("projects/%s/services/%s", projectNumber, service)
	if _, err := g.services.Enable(name, &serviceusage.EnableServiceRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("error enabling %s: %w", service, err)
	}
	return nil
}

func (g *GoogleAPI) LinkBilling(ctx context.Context, projectID, billingAccount string) error {
	name := "projects/" + projectID
	_, err := g.billing.UpdateBillingInfo(name, &cloudbilling.ProjectBillingInfo{
		Name:               name + "/billingInfo",
		ProjectId:          projectID,
		BillingAccountName: billingAccount,
		BillingEnabled:     true,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("error linking billing account: %w", err)
	}
	return nil
}

func (g *GoogleAPI) CreateApp(ctx context.Context, projectID, location string) error {
	_, err := g.apps.Create(&appengine.Application{Id: projectID, LocationId: location}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("error creating app engine app: %w", err)
	}
	return nil
}

func toProject(p *cloudresourcemanager.Project) *Project {
	number := ""
	if p.ProjectNumber != 0 {
		number = strconv.FormatInt(p.ProjectNumber, 10)
	}
	return &Project{ProjectID: p.ProjectId, ProjectNumber: number, Name: p.Name}
}

func hasCode(err error, codes ...int) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.Code == c {
			return true
		}
	}
	return false
}

var _ API = (*GoogleAPI)(nil)
