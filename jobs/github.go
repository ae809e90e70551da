package jobs

import (
	"context"
	"fmt"

	"github.com/santiagomed/mindful/fs"
	"github.com/santiagomed/mindful/git"
	"github.com/santiagomed/mindful/provider/github"
	"github.com/santiagomed/mindful/steppy"
	"github.com/santiagomed/mindful/utils"
)

// GitHub parameterises the job that creates the repository and pushes the work
// tree to it.
type GitHub struct {
	DestDir    string
	ProjectHid string

	NPMToken              string
	VercelToken           string
	VercelOrgID           string
	GcloudCredentialsFile string

	// RefreshSecrets re-uploads repository secrets when the repository
	// already existed.
	RefreshSecrets bool

	Client github.Client
	FS     *fs.FileSystem
	Runner utils.Runner
}

type RepoOutput struct {
	RepoURL string
}

var RepoKey = steppy.NewKey[RepoOutput]("setting up github")

var SetupGitHub = steppy.MustDefine("setup-github",
	[]steppy.Slot{
		RepoKey.Slot(),
		steppy.Void("adding git remote"),
	},
	steppy.Produce(groupGitHub, RepoKey, setupRepo),
	steppy.Effect(groupLocal, "adding git remote", addRemote),
)

func setupRepo(ctx context.Context, rc *steppy.RunContext[GitHub], _ steppy.Outputs) (RepoOutput, error) {
	p := rc.Params
	reused := false

	repo, err := steppy.Ensure(ctx, rc.Caveats, CaveatGitHubRepoExists,
		func(ctx context.Context) (*github.Repo, bool, error) {
			r, err := p.Client.GetRepo(ctx, p.ProjectHid)
			reused = r != nil
			return r, reused, err
		},
		func(ctx context.Context) (*github.Repo, error) {
			return p.Client.CreateRepo(ctx, p.ProjectHid)
		},
	)
	if err != nil {
		return RepoOutput{}, err
	}

	if !reused || p.RefreshSecrets {
		if err := uploadRepoSecrets(ctx, p); err != nil {
			return RepoOutput{}, err
		}
	}

	return RepoOutput{RepoURL: repo.SSHURL}, nil
}

func uploadRepoSecrets(ctx context.Context, p GitHub) error {
	serviceAccount, err := p.FS.ReadFile(p.GcloudCredentialsFile)
	if err != nil {
		return fmt.Errorf("error reading google credentials: %w", err)
	}
	return p.Client.AddSecrets(ctx, p.ProjectHid, map[string]string{
		"NPM_TOKEN":                   p.NPMToken,
		"VERCEL_TOKEN":                p.VercelToken,
		"VERCEL_ORG_ID":               p.VercelOrgID,
		"GCLOUD_SERVICE_ACCOUNT_JSON": string(serviceAccount),
	})
}

// addRemote pushes main and develop only to a repository created by this run.
func addRemote(ctx context.Context, rc *steppy.RunContext[GitHub], out steppy.Outputs) error {
	setup, err := RepoKey.From(out)
	if err != nil {
		return err
	}

	repo := git.New(rc.Params.DestDir, rc.Params.Runner)
	if err := repo.AddRemote(ctx, "origin", setup.RepoURL); err != nil {
		return err
	}
	if rc.Caveats.Exists(CaveatGitHubRepoExists) {
		rc.Logger.Info("Repository already existed, skipping push")
		return nil
	}

	for _, branch := range []string{"main", "develop"} {
		if err := repo.Checkout(ctx, branch); err != nil {
			return err
		}
		if err := repo.PushUpstream(ctx, "origin", branch); err != nil {
			return err
		}
	}
	return nil
}
