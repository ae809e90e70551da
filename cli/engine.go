package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/option"

	"github.com/santiagomed/mindful/config"
	"github.com/santiagomed/mindful/fs"
	"github.com/santiagomed/mindful/logger"
	"github.com/santiagomed/mindful/project"
	"github.com/santiagomed/mindful/provider/atlas"
	"github.com/santiagomed/mindful/provider/gcloud"
	"github.com/santiagomed/mindful/provider/github"
	"github.com/santiagomed/mindful/provider/vercel"
	"github.com/santiagomed/mindful/utils"
)

const vercelTimeout = 30 * time.Second

// NewServices builds the provider clients from the settings and credentials.
func NewServices(ctx context.Context, cfg *config.Config, creds *config.Credentials, l logger.Logger) (project.Services, error) {
	if l == nil {
		l = logger.NewNullLogger()
	}

	gh, err := github.NewRESTClient(creds.GitHubToken, cfg.GitHubOrg, github.WithLogger(l.WithField("provider", "github")))
	if err != nil {
		return project.Services{}, err
	}

	mongo, err := atlas.NewHTTPClient(creds.MongoPublicKey, creds.MongoPrivateKey, creds.MongoProjectID,
		atlas.WithLogger(l.WithField("provider", "atlas")))
	if err != nil {
		return project.Services{}, err
	}

	hosting, err := vercel.NewHTTPClient(creds.VercelToken,
		vercel.WithTeamID(creds.VercelOrgID),
		vercel.WithHTTPClient(&http.Client{Timeout: vercelTimeout}),
		vercel.WithLogger(l.WithField("provider", "vercel")))
	if err != nil {
		return project.Services{}, err
	}

	api, err := gcloud.NewGoogleAPI(ctx, option.WithCredentialsFile(creds.GcloudCredentialsFile))
	if err != nil {
		return project.Services{}, fmt.Errorf("error creating google cloud clients: %w", err)
	}
	google := gcloud.NewManager(api, gcloud.Config{
		ParentFolderID: creds.GCloudParentFolderID,
		BillingAccount: creds.GCloudBillingAccount,
		Location:       cfg.GCloudLocation,
		MaxAttempts:    cfg.MaxIDAttempts,
	}, l.WithField("provider", "gcloud"))

	return project.Services{
		GitHub: gh,
		Atlas:  mongo,
		Vercel: hosting,
		GCloud: google,
		FS:     fs.NewOsFileSystem(),
		Runner: utils.NewExecRunner(),
	}, nil
}

// newLocalServices is enough for a local-only run.
func newLocalServices() project.Services {
	return project.Services{
		FS:     fs.NewOsFileSystem(),
		Runner: utils.NewExecRunner(),
	}
}

// replaceTakenID asks the user for a new Google project id while the step
// line is paused.
func replaceTakenID(p Prompter, pub *CliStepPublisher) gcloud.ReplaceFunc {
	return func(ctx context.Context, takenID string) (string, error) {
		var (
			id  string
			err error
		)
		pub.Pause(func() {
			id, err = p.Ask(fmt.Sprintf("Project id %s is taken. Which id should be used instead?", takenID), takenID+"-1")
		})
		if err != nil {
			return "", err
		}
		if !utils.IsValidHid(id) {
			return "", fmt.Errorf("invalid project id %q", id)
		}
		return id, nil
	}
}
