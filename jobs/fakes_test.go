package jobs

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/santiagomed/mindful/provider/atlas"
	"github.com/santiagomed/mindful/provider/gcloud"
	"github.com/santiagomed/mindful/provider/github"
	"github.com/santiagomed/mindful/provider/vercel"
	"github.com/santiagomed/mindful/utils"
)

// fakeRunner records every command and the stdin it was given.
type fakeRunner struct {
	mu       sync.Mutex
	commands []utils.Command
	stdin    []string
	fail     map[string]error
}

func (r *fakeRunner) Run(ctx context.Context, cmd utils.Command) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in := ""
	if cmd.Stdin != nil {
		data, err := io.ReadAll(cmd.Stdin)
		if err != nil {
			return "", err
		}
		in = string(data)
	}
	r.commands = append(r.commands, cmd)
	r.stdin = append(r.stdin, in)

	if err, ok := r.fail[cmd.String()]; ok {
		return "", err
	}
	return "", nil
}

func (r *fakeRunner) lines() []string {
	out := make([]string, len(r.commands))
	for i, c := range r.commands {
		out[i] = c.String()
	}
	return out
}

type MockGitHub struct {
	mock.Mock
}

func (m *MockGitHub) GetRepo(ctx context.Context, name string) (*github.Repo, error) {
	args := m.Called(name)
	r, _ := args.Get(0).(*github.Repo)
	return r, args.Error(1)
}

func (m *MockGitHub) CreateRepo(ctx context.Context, name string) (*github.Repo, error) {
	args := m.Called(name)
	r, _ := args.Get(0).(*github.Repo)
	return r, args.Error(1)
}

func (m *MockGitHub) AddSecrets(ctx context.Context, repo string, secrets map[string]string) error {
	return m.Called(repo, secrets).Error(0)
}

type MockAtlas struct {
	mock.Mock
}

func (m *MockAtlas) GetUser(ctx context.Context, name string) (*atlas.User, error) {
	args := m.Called(name)
	u, _ := args.Get(0).(*atlas.User)
	return u, args.Error(1)
}

func (m *MockAtlas) CreateUser(ctx context.Context, name, password string) error {
	return m.Called(name, password).Error(0)
}

func (m *MockAtlas) GetConnectionString(ctx context.Context, cluster string) (string, error) {
	args := m.Called(cluster)
	return args.String(0), args.Error(1)
}

// The fakes below keep state so a second run sees what the first one created.

type fakeAtlas struct {
	users   map[string]string
	creates int
}

func newFakeAtlas() *fakeAtlas {
	return &fakeAtlas{users: map[string]string{}}
}

func (f *fakeAtlas) GetUser(ctx context.Context, name string) (*atlas.User, error) {
	if _, ok := f.users[name]; !ok {
		return nil, nil
	}
	return &atlas.User{Username: name, DatabaseName: "admin"}, nil
}

func (f *fakeAtlas) CreateUser(ctx context.Context, name, password string) error {
	if _, ok := f.users[name]; ok {
		return atlas.ErrUserAlreadyExists
	}
	f.creates++
	f.users[name] = password
	return nil
}

func (f *fakeAtlas) GetConnectionString(ctx context.Context, cluster string) (string, error) {
	return fmt.Sprintf("mongodb+srv://%s.abc.mongodb.net", cluster), nil
}

type fakeGCloud struct {
	projects map[string]*gcloud.Project
	creates  int
}

func newFakeGCloud() *fakeGCloud {
	return &fakeGCloud{projects: map[string]*gcloud.Project{}}
}

func (f *fakeGCloud) GetProject(ctx context.Context, id string) (*gcloud.Project, error) {
	return f.projects[id], nil
}

func (f *fakeGCloud) SetupProject(ctx context.Context, name, id string, replace gcloud.ReplaceFunc) (*gcloud.Project, error) {
	f.creates++
	p := &gcloud.Project{ProjectID: id, ProjectNumber: fmt.Sprint(100 + f.creates), Name: name}
	f.projects[id] = p
	return p, nil
}

type fakeVercel struct {
	projects map[string]*vercel.Project
	inputs   []vercel.CreateProjectInput
}

func newFakeVercel() *fakeVercel {
	return &fakeVercel{projects: map[string]*vercel.Project{}}
}

func (f *fakeVercel) GetProject(ctx context.Context, name string) (*vercel.Project, error) {
	return f.projects[name], nil
}

func (f *fakeVercel) CreateProject(ctx context.Context, in vercel.CreateProjectInput) (*vercel.Project, error) {
	f.inputs = append(f.inputs, in)
	p := &vercel.Project{ID: fmt.Sprintf("prj_%d", len(f.inputs)), Name: in.Name}
	f.projects[in.Name] = p
	return p, nil
}

func (f *fakeVercel) GetSecretID(ctx context.Context, name string) (string, error) {
	return "sec_" + name, nil
}

type fakeGitHub struct {
	secrets map[string]map[string]string
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{secrets: map[string]map[string]string{}}
}

func (f *fakeGitHub) GetRepo(ctx context.Context, name string) (*github.Repo, error) {
	return nil, nil
}

func (f *fakeGitHub) CreateRepo(ctx context.Context, name string) (*github.Repo, error) {
	return &github.Repo{Name: name}, nil
}

func (f *fakeGitHub) AddSecrets(ctx context.Context, repo string, secrets map[string]string) error {
	if f.secrets[repo] == nil {
		f.secrets[repo] = map[string]string{}
	}
	for k, v := range secrets {
		f.secrets[repo][k] = v
	}
	return nil
}
