// Package git drives the git binary for a single work tree.
package git

import (
	"context"
	"fmt"

	"github.com/santiagomed/mindful/utils"
)

// Repo runs git subcommands inside Dir.
type Repo struct {
	Dir    string
	runner utils.Runner
}

func New(dir string, runner utils.Runner) *Repo {
	return &Repo{Dir: dir, runner: runner}
}

func (r *Repo) run(ctx context.Context, args ...string) error {
	_, err := r.runner.Run(ctx, utils.Command{Dir: r.Dir, Name: "git", Args: args})
	if err != nil {
		return fmt.Errorf("git %s: %w", args[0], err)
	}
	return nil
}

func (r *Repo) Init(ctx context.Context) error {
	return r.run(ctx, "init")
}

// AddAll stages every change in the work tree.
func (r *Repo) AddAll(ctx context.Context) error {
	return r.run(ctx, "add", "--all")
}

func (r *Repo) Commit(ctx context.Context, message string) error {
	return r.run(ctx, "commit", "-m", message)
}

// RenameBranch renames the current branch.
func (r *Repo) RenameBranch(ctx context.Context, name string) error {
	return r.run(ctx, "branch", "--move", name)
}

func (r *Repo) Checkout(ctx context.Context, branch string) error {
	return r.run(ctx, "checkout", branch)
}

// CheckoutNew creates branch name from HEAD and switches to it.
func (r *Repo) CheckoutNew(ctx context.Context, name string) error {
	return r.run(ctx, "checkout", "-b", name)
}

func (r *Repo) AddRemote(ctx context.Context, name, url string) error {
	return r.run(ctx, "remote", "add", name, url)
}

// PushUpstream pushes branch to remote and sets it as upstream.
func (r *Repo) PushUpstream(ctx context.Context, remote, branch string) error {
	return r.run(ctx, "push", "--set-upstream", remote, branch)
}
