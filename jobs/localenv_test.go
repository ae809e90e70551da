package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santiagomed/mindful/fs"
	"github.com/santiagomed/mindful/steppy"
)

func newTemplateFS(t *testing.T) *fs.FileSystem {
	t.Helper()
	fsys := fs.NewMemoryFileSystem()
	files := map[string]string{
		"/tpl/package.json":                 `{"name": "{{projectHid}}"}`,
		"/tpl/README.md":                    "# {{projectName}}\n",
		"/tpl/packages/tsconfig/base.json":  "{}",
		"/tpl/packages/types/index.d.ts":    "export {}",
		"/tpl/packages/cms/.env.example":    "PORT=4000\n",
		"/tpl/packages/cms/package.json":    `{"name": "{{projectHid}}-cms"}`,
		"/tpl/packages/ui/.env.example":     "PORT=6006\n",
		"/tpl/packages/app/.env.example":    "PORT=3000\n",
		"/tpl/packages/app/pages/index.tsx": "export default () => null",
		"/assets/cms.data":                  "ARCHIVE",
	}
	for path, content := range files {
		require.NoError(t, fsys.WriteFile(path, content))
	}
	return fsys
}

func localParams(fsys *fs.FileSystem, runner *fakeRunner) LocalEnv {
	return LocalEnv{
		ProjectHid:  "acme",
		ProjectName: "Acme Store",
		TemplateDir: "/tpl",
		DestDir:     "/work/acme",
		SeedFile:    "/assets/cms.data",
		Seed:        true,
		Direnv:      true,
		FS:          fsys,
		Runner:      runner,
	}
}

func TestSetupLocalEnv(t *testing.T) {
	fsys := newTemplateFS(t)
	runner := &fakeRunner{}
	listener := &steppy.SilentFormatter{}

	out, err := steppy.Run(context.Background(), SetupLocalEnv, localParams(fsys, runner), steppy.NewLedger(), steppy.WithListener(listener))
	require.NoError(t, err)

	assert.Zero(t, out.Len())
	assert.Equal(t, []string{
		"creating work tree",
		"adding default .env files",
		"seeding cms database",
		"injecting template variables",
		"prefixing packages",
		"enabling environment variables",
		"initialising git",
	}, listener.Titles)

	content, err := fsys.ReadFile("/work/acme/package.json")
	require.NoError(t, err)
	assert.Equal(t, `{"name": "acme"}`, string(content))

	content, err = fsys.ReadFile("/work/acme/packages/acme-cms/package.json")
	require.NoError(t, err)
	assert.Equal(t, `{"name": "acme-cms"}`, string(content))

	for _, p := range []string{"cms", "ui", "app"} {
		assert.True(t, fsys.Exists("/work/acme/packages/acme-"+p+"/.env"), p)
	}
	for _, p := range packages {
		assert.False(t, fsys.Exists("/work/acme/packages/"+p), p)
		assert.True(t, fsys.IsDir("/work/acme/packages/acme-"+p), p)
	}

	assert.Equal(t, []string{
		"docker exec -i mongo mongorestore --archive --nsFrom=ms.* --nsTo=acme.*",
		`docker exec -i mongo mongo acme --eval db.projects.updateOne({}, { $set: { name: "Acme Store" } })`,
		"direnv allow",
		"direnv allow",
		"direnv allow",
		"git init",
		"git add --all",
		"git commit -m chore: initial commit [skip ci]",
		"git branch --move main",
		"git checkout -b develop",
	}, runner.lines())
	assert.Equal(t, "ARCHIVE", runner.stdin[0])
	assert.Equal(t, "/work/acme/packages/acme-cms", runner.commands[2].Dir)
	assert.Equal(t, "/work/acme", runner.commands[5].Dir)
}

func TestSetupLocalEnv_SkipsOptionalSteps(t *testing.T) {
	fsys := newTemplateFS(t)
	runner := &fakeRunner{}
	params := localParams(fsys, runner)
	params.Seed = false
	params.Direnv = false

	_, err := steppy.Run(context.Background(), SetupLocalEnv, params, steppy.NewLedger(), steppy.WithListener(&steppy.SilentFormatter{}))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"git init",
		"git add --all",
		"git commit -m chore: initial commit [skip ci]",
		"git branch --move main",
		"git checkout -b develop",
	}, runner.lines())
}

func TestSetupLocalEnv_MissingEnvExampleAborts(t *testing.T) {
	fsys := newTemplateFS(t)
	require.NoError(t, fsys.Fs.Remove("/tpl/packages/ui/.env.example"))
	runner := &fakeRunner{}
	listener := &steppy.SilentFormatter{}

	_, err := steppy.Run(context.Background(), SetupLocalEnv, localParams(fsys, runner), steppy.NewLedger(), steppy.WithListener(listener))

	var stepErr *steppy.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "adding default .env files", stepErr.Step.Title)
	assert.Empty(t, runner.commands)
	assert.Equal(t, []string{"creating work tree", "adding default .env files"}, listener.Titles)
}

func TestSetupLocalEnv_SeedFailureAborts(t *testing.T) {
	fsys := newTemplateFS(t)
	refused := errors.New("container mongo is not running")
	runner := &fakeRunner{fail: map[string]error{
		"docker exec -i mongo mongorestore --archive --nsFrom=ms.* --nsTo=acme.*": refused,
	}}

	_, err := steppy.Run(context.Background(), SetupLocalEnv, localParams(fsys, runner), steppy.NewLedger(), steppy.WithListener(&steppy.SilentFormatter{}))

	assert.ErrorIs(t, err, refused)
	assert.Len(t, runner.commands, 1)
	// templating never ran
	content, err := fsys.ReadFile("/work/acme/package.json")
	require.NoError(t, err)
	assert.Equal(t, `{"name": "{{projectHid}}"}`, string(content))
}
