package project

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/santiagomed/mindful/fs"
	"github.com/santiagomed/mindful/jobs"
	"github.com/santiagomed/mindful/logger"
	"github.com/santiagomed/mindful/provider/atlas"
	"github.com/santiagomed/mindful/provider/gcloud"
	"github.com/santiagomed/mindful/provider/github"
	"github.com/santiagomed/mindful/provider/vercel"
	"github.com/santiagomed/mindful/steppy"
	"github.com/santiagomed/mindful/utils"
)

// Services bundles the clients a run talks to.
type Services struct {
	GitHub github.Client
	Atlas  atlas.Client
	Vercel vercel.Client
	GCloud gcloud.Client
	FS     *fs.FileSystem
	Runner utils.Runner

	// ReplaceTakenID asks for a new Google project id when the derived one
	// is taken.
	ReplaceTakenID gcloud.ReplaceFunc
}

type EnvResult struct {
	Env             jobs.Env
	Domain          string
	DatabaseURI     string
	GCloudProjectID string
	UIProjectID     string
	AppProjectID    string
}

// Result summarises a run. Caveats is filled even when the run fails.
type Result struct {
	RunID        string
	DestDir      string
	RepoURL      string
	Environments []EnvResult
	Caveats      []steppy.Caveat
}

type options struct {
	formatter steppy.Formatter
	logger    logger.Logger
	localOnly bool
}

type Option func(*options)

func WithFormatter(f steppy.Formatter) Option {
	return func(o *options) {
		o.formatter = f
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// LocalOnly stops after the dev environment is set up.
func LocalOnly() Option {
	return func(o *options) {
		o.localOnly = true
	}
}

type remoteEnv struct {
	env    jobs.Env
	head   string
	domain string
}

// Create sets up the dev environment, the GitHub repository and the stage and
// production environments, in that order, stopping at the first failure.
func Create(ctx context.Context, req *Request, svc Services, opts ...Option) (*Result, error) {
	o := options{logger: logger.NewNullLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.formatter == nil {
		o.formatter = steppy.NewDefaultFormatter(os.Stdout)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	password := req.MongoPassword
	if password == "" {
		var err error
		if password, err = utils.GeneratePassword(); err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	log := o.logger.WithField("run_id", runID).WithField("project", req.ProjectHid)
	log.Info(fmt.Sprintf("Creating project %s in %s", req.ProjectHid, req.DestDir))

	ledger := steppy.NewLedger()
	res := &Result{RunID: runID, DestDir: req.DestDir}
	done := func(err error) (*Result, error) {
		res.Caveats = ledger.List()
		if err != nil {
			log.Error(fmt.Sprintf("Project creation failed: %v", err))
		}
		return res, err
	}
	runOpts := []steppy.Option{steppy.WithListener(o.formatter), steppy.WithLogger(log)}

	o.formatter.Head("setting up dev environment")
	_, err := steppy.Run(ctx, jobs.SetupLocalEnv, jobs.LocalEnv{
		ProjectHid:  req.ProjectHid,
		ProjectName: req.ProjectName,
		TemplateDir: req.TemplateDir,
		DestDir:     req.DestDir,
		SeedFile:    req.SeedFile,
		Seed:        req.SeedDatabase,
		Direnv:      req.EnableDirenv,
		FS:          svc.FS,
		Runner:      svc.Runner,
	}, ledger, runOpts...)
	if err != nil || o.localOnly {
		return done(err)
	}

	o.formatter.Head("setting up github")
	out, err := steppy.Run(ctx, jobs.SetupGitHub, jobs.GitHub{
		DestDir:               req.DestDir,
		ProjectHid:            req.ProjectHid,
		NPMToken:              req.Secrets.NPMToken,
		VercelToken:           req.Secrets.VercelToken,
		VercelOrgID:           req.Secrets.VercelOrgID,
		GcloudCredentialsFile: req.Secrets.GcloudCredentialsFile,
		RefreshSecrets:        req.RefreshSecrets,
		Client:                svc.GitHub,
		FS:                    svc.FS,
		Runner:                svc.Runner,
	}, ledger, runOpts...)
	if err != nil {
		return done(err)
	}
	repo, err := jobs.RepoKey.From(out)
	if err != nil {
		return done(err)
	}
	res.RepoURL = repo.RepoURL

	envs := []remoteEnv{
		{env: jobs.Stage, head: "setting up stage environment", domain: "stage." + req.Domain},
		{env: jobs.Production, head: "setting up production environment", domain: req.Domain},
	}
	for _, e := range envs {
		o.formatter.Head(e.head)
		out, err := steppy.Run(ctx, jobs.SetupRemoteEnv, jobs.RemoteEnv{
			ProjectName:      req.ProjectName,
			ProjectHid:       req.ProjectHid,
			DestDir:          req.DestDir,
			Domain:           e.domain,
			Env:              e.env,
			MongoPassword:    password,
			VercelToken:      req.Secrets.VercelToken,
			VercelOrgID:      req.Secrets.VercelOrgID,
			Atlas:            svc.Atlas,
			Vercel:           svc.Vercel,
			GCloud:           svc.GCloud,
			GitHub:           svc.GitHub,
			FS:               svc.FS,
			ReplaceTakenID:   svc.ReplaceTakenID,
			ManifestTemplate: req.ManifestTemplate,
		}, ledger, runOpts...)
		if err != nil {
			return done(err)
		}
		env, err := collectEnv(e, out)
		if err != nil {
			return done(err)
		}
		res.Environments = append(res.Environments, env)
	}

	log.Info("Project created")
	return done(nil)
}

func collectEnv(e remoteEnv, out steppy.Outputs) (EnvResult, error) {
	db, err := jobs.DatabaseURIKey.From(out)
	if err != nil {
		return EnvResult{}, err
	}
	gc, err := jobs.GCloudProjectKey.From(out)
	if err != nil {
		return EnvResult{}, err
	}
	ui, err := jobs.UIProjectKey.From(out)
	if err != nil {
		return EnvResult{}, err
	}
	app, err := jobs.AppProjectKey.From(out)
	if err != nil {
		return EnvResult{}, err
	}
	return EnvResult{
		Env:             e.env,
		Domain:          e.domain,
		DatabaseURI:     db.URI,
		GCloudProjectID: gc.ProjectID,
		UIProjectID:     ui.ProjectID,
		AppProjectID:    app.ProjectID,
	}, nil
}
