package jobs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/santiagomed/mindful/fs"
	"github.com/santiagomed/mindful/git"
	"github.com/santiagomed/mindful/steppy"
	"github.com/santiagomed/mindful/template"
	"github.com/santiagomed/mindful/utils"
)

// LocalEnv parameterises the job that builds the local work tree.
type LocalEnv struct {
	ProjectHid  string
	ProjectName string
	TemplateDir string
	DestDir     string

	// SeedFile is a mongorestore archive loaded into the local CMS database
	// when Seed is set.
	SeedFile string
	Seed     bool
	Direnv   bool

	FS     *fs.FileSystem
	Runner utils.Runner
}

const initialCommitMessage = "chore: initial commit [skip ci]"

var SetupLocalEnv = steppy.MustDefine("setup-local-env",
	[]steppy.Slot{
		steppy.Void("creating work tree"),
		steppy.Void("adding default .env files"),
		steppy.Void("seeding cms database"),
		steppy.Void("injecting template variables"),
		steppy.Void("prefixing packages"),
		steppy.Void("enabling environment variables"),
		steppy.Void("initialising git"),
	},
	steppy.Effect(groupLocal, "creating work tree", createWorkTree),
	steppy.Effect(groupLocal, "adding default .env files", addDefaultEnvFiles),
	steppy.Effect(groupLocal, "seeding cms database", seedDatabase),
	steppy.Effect(groupLocal, "injecting template variables", injectTemplateVariables),
	steppy.Effect(groupLocal, "prefixing packages", prefixPackages),
	steppy.Effect(groupLocal, "enabling environment variables", enableDirenv),
	steppy.Effect(groupLocal, "initialising git", initialiseGit),
)

func createWorkTree(ctx context.Context, rc *steppy.RunContext[LocalEnv], _ steppy.Outputs) error {
	p := rc.Params
	return p.FS.CopyDir(p.TemplateDir, p.DestDir)
}

func addDefaultEnvFiles(ctx context.Context, rc *steppy.RunContext[LocalEnv], _ steppy.Outputs) error {
	p := rc.Params
	for _, pkg := range envPackages {
		dir := filepath.Join(p.DestDir, "packages", pkg)
		if err := p.FS.CopyFile(filepath.Join(dir, ".env.example"), filepath.Join(dir, ".env")); err != nil {
			return fmt.Errorf("package %s: %w", pkg, err)
		}
	}
	return nil
}

func seedDatabase(ctx context.Context, rc *steppy.RunContext[LocalEnv], _ steppy.Outputs) error {
	p := rc.Params
	if !p.Seed {
		rc.Logger.Info("Database seeding disabled")
		return nil
	}

	archive, err := p.FS.Fs.Open(p.SeedFile)
	if err != nil {
		return fmt.Errorf("error opening seed file: %w", err)
	}
	defer archive.Close()

	_, err = p.Runner.Run(ctx, utils.Command{
		Name:  "docker",
		Args:  []string{"exec", "-i", "mongo", "mongorestore", "--archive", "--nsFrom=ms.*", fmt.Sprintf("--nsTo=%s.*", p.ProjectHid)},
		Stdin: archive,
	})
	if err != nil {
		return err
	}

	eval := fmt.Sprintf(`db.projects.updateOne({}, { $set: { name: %q } })`, p.ProjectName)
	_, err = p.Runner.Run(ctx, utils.Command{
		Name: "docker",
		Args: []string{"exec", "-i", "mongo", "mongo", p.ProjectHid, "--eval", eval},
	})
	return err
}

func injectTemplateVariables(ctx context.Context, rc *steppy.RunContext[LocalEnv], _ steppy.Outputs) error {
	p := rc.Params
	return template.RenderDirectory(p.FS, p.DestDir, map[string]interface{}{
		"projectName": p.ProjectName,
		"projectHid":  p.ProjectHid,
	})
}

func prefixPackages(ctx context.Context, rc *steppy.RunContext[LocalEnv], _ steppy.Outputs) error {
	p := rc.Params
	for _, pkg := range packages {
		src := filepath.Join(p.DestDir, "packages", pkg)
		if err := p.FS.Move(src, PackageDir(p.DestDir, p.ProjectHid, pkg)); err != nil {
			return fmt.Errorf("package %s: %w", pkg, err)
		}
	}
	return nil
}

func enableDirenv(ctx context.Context, rc *steppy.RunContext[LocalEnv], _ steppy.Outputs) error {
	p := rc.Params
	if !p.Direnv {
		rc.Logger.Info("direnv disabled")
		return nil
	}
	for _, pkg := range envPackages {
		_, err := p.Runner.Run(ctx, utils.Command{
			Dir:  PackageDir(p.DestDir, p.ProjectHid, pkg),
			Name: "direnv",
			Args: []string{"allow"},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func initialiseGit(ctx context.Context, rc *steppy.RunContext[LocalEnv], _ steppy.Outputs) error {
	repo := git.New(rc.Params.DestDir, rc.Params.Runner)
	if err := repo.Init(ctx); err != nil {
		return err
	}
	if err := repo.AddAll(ctx); err != nil {
		return err
	}
	if err := repo.Commit(ctx, initialCommitMessage); err != nil {
		return err
	}
	if err := repo.RenameBranch(ctx, "main"); err != nil {
		return err
	}
	return repo.CheckoutNew(ctx, "develop")
}
