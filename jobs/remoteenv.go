package jobs

import (
	"context"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/santiagomed/mindful/fs"
	"github.com/santiagomed/mindful/provider/atlas"
	"github.com/santiagomed/mindful/provider/gcloud"
	"github.com/santiagomed/mindful/provider/github"
	"github.com/santiagomed/mindful/provider/vercel"
	"github.com/santiagomed/mindful/steppy"
	"github.com/santiagomed/mindful/template"
)

//go:embed app.yml.tmpl
var defaultManifestTemplate string

// RemoteEnv parameterises the job that provisions one deployment environment.
type RemoteEnv struct {
	ProjectName string
	ProjectHid  string
	DestDir     string
	Domain      string
	Env         Env

	MongoPassword string
	VercelToken   string
	VercelOrgID   string

	Atlas  atlas.Client
	Vercel vercel.Client
	GCloud gcloud.Client
	GitHub github.Client
	FS     *fs.FileSystem

	// ReplaceTakenID is asked for a new Google project id when the derived
	// one is taken. Nil fails instead.
	ReplaceTakenID gcloud.ReplaceFunc

	// ManifestTemplate overrides the App Engine manifest template.
	ManifestTemplate string
}

type DatabaseOutput struct {
	URI string
}

type GCloudOutput struct {
	ProjectID string
	AppYAML   string
}

type VercelOutput struct {
	ProjectID string
}

var (
	DatabaseURIKey   = steppy.NewKey[DatabaseOutput]("getting database uri")
	GCloudProjectKey = steppy.NewKey[GCloudOutput]("setting up google cloud")
	UIProjectKey     = steppy.NewKey[VercelOutput]("creating ui project")
	AppProjectKey    = steppy.NewKey[VercelOutput]("creating app project")
)

var SetupRemoteEnv = steppy.MustDefine("setup-remote-env",
	[]steppy.Slot{
		steppy.Void("creating atlas user"),
		DatabaseURIKey.Slot(),
		GCloudProjectKey.Slot(),
		UIProjectKey.Slot(),
		AppProjectKey.Slot(),
		steppy.Void("adding github env vars"),
		steppy.Void("updating .env files"),
		steppy.Void("adding google app.yml file to cms"),
	},
	steppy.Effect(groupMongo, "creating atlas user", createAtlasUser),
	steppy.Produce(groupMongo, DatabaseURIKey, getDatabaseURI),
	steppy.Produce(groupGoogle, GCloudProjectKey, setupGoogleCloud),
	steppy.Produce(groupVercel, UIProjectKey, createUIProject),
	steppy.Produce(groupVercel, AppProjectKey, createAppProject),
	steppy.Effect(groupGitHub, "adding github env vars", addGitHubEnvVars),
	steppy.Effect(groupLocal, "updating .env files", updateEnvFiles),
	steppy.Effect(groupLocal, "adding google app.yml file to cms", writeAppManifest),
)

func createAtlasUser(ctx context.Context, rc *steppy.RunContext[RemoteEnv], _ steppy.Outputs) error {
	p := rc.Params
	_, err := steppy.Ensure(ctx, rc.Caveats, CaveatAtlasUserExists,
		func(ctx context.Context) (*atlas.User, bool, error) {
			u, err := p.Atlas.GetUser(ctx, p.ProjectHid)
			return u, u != nil, err
		},
		func(ctx context.Context) (*atlas.User, error) {
			err := p.Atlas.CreateUser(ctx, p.ProjectHid, p.MongoPassword)
			if errors.Is(err, atlas.ErrUserAlreadyExists) {
				rc.Caveats.Add(CaveatAtlasUserExists)
				return nil, nil
			}
			return nil, err
		},
	)
	return err
}

func getDatabaseURI(ctx context.Context, rc *steppy.RunContext[RemoteEnv], _ steppy.Outputs) (DatabaseOutput, error) {
	p := rc.Params
	srv, err := p.Atlas.GetConnectionString(ctx, p.Env.Name)
	if err != nil {
		return DatabaseOutput{}, err
	}

	u, err := url.Parse(srv)
	if err != nil {
		return DatabaseOutput{}, fmt.Errorf("invalid srv address %q: %w", srv, err)
	}
	u.User = url.UserPassword(p.ProjectHid, p.MongoPassword)
	u.Path = "/" + p.ProjectHid
	u.RawQuery = url.Values{"retryWrites": {"true"}, "w": {"majority"}}.Encode()

	return DatabaseOutput{URI: u.String()}, nil
}

func setupGoogleCloud(ctx context.Context, rc *steppy.RunContext[RemoteEnv], out steppy.Outputs) (GCloudOutput, error) {
	p := rc.Params
	db, err := DatabaseURIKey.From(out)
	if err != nil {
		return GCloudOutput{}, err
	}

	name := fmt.Sprintf("%s CMS %s", p.ProjectName, p.Env.ShortName)
	// Lookup only knows the derived id. A replacement picked by ReplaceTakenID
	// on an earlier run is not found here.
	id := fmt.Sprintf("%s-cms-%s", p.ProjectHid, p.Env.Slug)

	project, err := steppy.Ensure(ctx, rc.Caveats, CaveatGCloudProjectExists,
		func(ctx context.Context) (*gcloud.Project, bool, error) {
			pr, err := p.GCloud.GetProject(ctx, id)
			return pr, pr != nil, err
		},
		func(ctx context.Context) (*gcloud.Project, error) {
			return p.GCloud.SetupProject(ctx, name, id, p.ReplaceTakenID)
		},
	)
	if err != nil {
		return GCloudOutput{}, err
	}

	appYAML, err := renderManifest(p.ManifestTemplate, p.Env.NodeEnv, db.URI)
	if err != nil {
		return GCloudOutput{}, err
	}

	return GCloudOutput{ProjectID: project.ProjectID, AppYAML: appYAML}, nil
}

// renderManifest renders the App Engine manifest and checks that the result is
// valid YAML.
func renderManifest(tmpl, nodeEnv, databaseURI string) (string, error) {
	if tmpl == "" {
		tmpl = defaultManifestTemplate
	}
	rendered, err := template.Render(tmpl, map[string]interface{}{
		"nodeEnv":     nodeEnv,
		"databaseUri": databaseURI,
	})
	if err != nil {
		return "", fmt.Errorf("error rendering app manifest: %w", err)
	}

	var manifest map[string]interface{}
	if err := yaml.Unmarshal([]byte(rendered), &manifest); err != nil {
		return "", fmt.Errorf("rendered app manifest is not valid YAML: %w", err)
	}
	return rendered, nil
}

func ensureVercelProject(ctx context.Context, rc *steppy.RunContext[RemoteEnv], name string, create func(ctx context.Context) (vercel.CreateProjectInput, error)) (VercelOutput, error) {
	p := rc.Params
	project, err := steppy.Ensure(ctx, rc.Caveats, CaveatVercelProjectExists,
		func(ctx context.Context) (*vercel.Project, bool, error) {
			pr, err := p.Vercel.GetProject(ctx, name)
			return pr, pr != nil, err
		},
		func(ctx context.Context) (*vercel.Project, error) {
			in, err := create(ctx)
			if err != nil {
				return nil, err
			}
			return p.Vercel.CreateProject(ctx, in)
		},
	)
	if err != nil {
		return VercelOutput{}, err
	}
	return VercelOutput{ProjectID: project.ID}, nil
}

func createUIProject(ctx context.Context, rc *steppy.RunContext[RemoteEnv], _ steppy.Outputs) (VercelOutput, error) {
	p := rc.Params
	name := fmt.Sprintf("%s-ui-%s", p.ProjectHid, p.Env.Slug)
	return ensureVercelProject(ctx, rc, name, func(ctx context.Context) (vercel.CreateProjectInput, error) {
		return vercel.CreateProjectInput{Name: name, Domain: "ui." + p.Domain}, nil
	})
}

func createAppProject(ctx context.Context, rc *steppy.RunContext[RemoteEnv], _ steppy.Outputs) (VercelOutput, error) {
	p := rc.Params
	name := fmt.Sprintf("%s-app-%s", p.ProjectHid, p.Env.Slug)
	return ensureVercelProject(ctx, rc, name, func(ctx context.Context) (vercel.CreateProjectInput, error) {
		npmToken, err := p.Vercel.GetSecretID(ctx, "npm-token")
		if err != nil {
			return vercel.CreateProjectInput{}, err
		}
		return vercel.CreateProjectInput{
			Name:      name,
			Domain:    p.Domain,
			Framework: "nextjs",
			Env: []vercel.EnvVariable{
				{Type: vercel.EnvPlain, Key: "GRAPHQL_URL", Value: fmt.Sprintf("https://cms.%s/graphql", p.Domain), Target: vercel.DefaultTargets},
				{Type: vercel.EnvSecret, Key: "NPM_TOKEN", Value: npmToken, Target: vercel.DefaultTargets},
			},
		}, nil
	})
}

func addGitHubEnvVars(ctx context.Context, rc *steppy.RunContext[RemoteEnv], out steppy.Outputs) error {
	p := rc.Params
	ui, err := UIProjectKey.From(out)
	if err != nil {
		return err
	}
	app, err := AppProjectKey.From(out)
	if err != nil {
		return err
	}
	gc, err := GCloudProjectKey.From(out)
	if err != nil {
		return err
	}

	return p.GitHub.AddSecrets(ctx, p.ProjectHid, map[string]string{
		p.Env.Suffixed("VERCEL_APP_PROJECT_ID"):  app.ProjectID,
		p.Env.Suffixed("VERCEL_UI_PROJECT_ID"):   ui.ProjectID,
		p.Env.Suffixed("GCLOUD_PROJECT_ID"):      gc.ProjectID,
		p.Env.Suffixed("GCLOUD_APP_YAML_BASE64"): base64.StdEncoding.EncodeToString([]byte(gc.AppYAML)),
	})
}

func updateEnvFiles(ctx context.Context, rc *steppy.RunContext[RemoteEnv], out steppy.Outputs) error {
	p := rc.Params
	db, err := DatabaseURIKey.From(out)
	if err != nil {
		return err
	}
	gc, err := GCloudProjectKey.From(out)
	if err != nil {
		return err
	}
	ui, err := UIProjectKey.From(out)
	if err != nil {
		return err
	}
	app, err := AppProjectKey.From(out)
	if err != nil {
		return err
	}

	files := []struct {
		pkg  string
		vars map[string]string
	}{
		{"cms", map[string]string{
			p.Env.Suffixed("DATABASE_URI"):      db.URI,
			p.Env.Suffixed("GCLOUD_PROJECT_ID"): gc.ProjectID,
		}},
		{"ui", map[string]string{
			"VERCEL_TOKEN":                      p.VercelToken,
			"VERCEL_ORG_ID":                     p.VercelOrgID,
			p.Env.Suffixed("VERCEL_PROJECT_ID"): ui.ProjectID,
		}},
		{"app", map[string]string{
			"VERCEL_TOKEN":                      p.VercelToken,
			"VERCEL_ORG_ID":                     p.VercelOrgID,
			p.Env.Suffixed("VERCEL_PROJECT_ID"): app.ProjectID,
		}},
	}

	for _, f := range files {
		path := filepath.Join(PackageDir(p.DestDir, p.ProjectHid, f.pkg), ".env")
		if err := p.FS.ExtendDotEnv(path, f.vars); err != nil {
			return err
		}
	}
	return nil
}

func writeAppManifest(ctx context.Context, rc *steppy.RunContext[RemoteEnv], out steppy.Outputs) error {
	p := rc.Params
	gc, err := GCloudProjectKey.From(out)
	if err != nil {
		return err
	}
	path := filepath.Join(PackageDir(p.DestDir, p.ProjectHid, "cms"), fmt.Sprintf("app.%s.yml", p.Env.Slug))
	return p.FS.WriteFile(path, gc.AppYAML)
}
