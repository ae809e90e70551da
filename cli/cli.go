package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/santiagomed/mindful/config"
	"github.com/santiagomed/mindful/logger"
	"github.com/santiagomed/mindful/project"
	"github.com/santiagomed/mindful/utils"
)

var rootCmd = &cobra.Command{
	Use:   "mindful",
	Short: "Mindful bootstraps new Mindful Studio projects",
	Long: `Mindful creates a project from the Mindful template and provisions everything it runs on:
a GitHub repository, a MongoDB Atlas database user, a Google Cloud project for the CMS and
Vercel projects for the UI and the app, for both the stage and the production environment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new project",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := parseCreateFlags(cmd)
		if err != nil {
			return fmt.Errorf("error parsing flags: %w", err)
		}
		return runCreate(cmd.Context(), flags, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

type createFlags struct {
	name      string
	hid       string
	domain    string
	dest      string
	config    string
	yes       bool
	localOnly bool
}

func init() {
	rootCmd.AddCommand(createCmd)
	addCreateFlags(createCmd)
}

func addCreateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("name", "n", "", "The name of the project")
	cmd.Flags().String("hid", "", "The project hid, used in every resource name. Defaults to the param-cased name")
	cmd.Flags().StringP("domain", "d", "", "The production domain. Stage is served from stage.<domain>")
	cmd.Flags().String("dest", "", "Directory to create the project in. Defaults to ./<hid>")
	cmd.Flags().StringP("config", "c", "", "Path to custom configuration file")
	cmd.Flags().BoolP("yes", "y", false, "Do not prompt; use flags and defaults")
	cmd.Flags().Bool("local-only", false, "Only set up the local work tree")
}

func parseCreateFlags(cmd *cobra.Command) (createFlags, error) {
	var f createFlags
	var err error
	if f.name, err = cmd.Flags().GetString("name"); err != nil {
		return createFlags{}, err
	}
	if f.hid, err = cmd.Flags().GetString("hid"); err != nil {
		return createFlags{}, err
	}
	if f.domain, err = cmd.Flags().GetString("domain"); err != nil {
		return createFlags{}, err
	}
	if f.dest, err = cmd.Flags().GetString("dest"); err != nil {
		return createFlags{}, err
	}
	if f.config, err = cmd.Flags().GetString("config"); err != nil {
		return createFlags{}, err
	}
	if f.yes, err = cmd.Flags().GetBool("yes"); err != nil {
		return createFlags{}, err
	}
	if f.localOnly, err = cmd.Flags().GetBool("local-only"); err != nil {
		return createFlags{}, err
	}
	return f, nil
}

func runCreate(ctx context.Context, f createFlags, in io.Reader, out io.Writer) error {
	log := logger.GetLogger()
	log.Debug("Initializing mindful CLI")

	cfg, err := config.LoadConfig(f.config)
	if err != nil {
		return err
	}
	var creds *config.Credentials
	if !f.localOnly {
		if creds, err = config.LoadCredentials(".env"); err != nil {
			return err
		}
	}

	var prompter Prompter
	if !f.yes {
		prompter = NewTeaPrompter(in, out)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	req, err := resolveRequest(f, cfg, prompter, cwd)
	if err != nil {
		return err
	}

	pub := NewCliStepPublisher(out, log)
	svc := newLocalServices()
	if !f.localOnly {
		req.Secrets = project.Secrets{
			NPMToken:              creds.NPMToken,
			VercelToken:           creds.VercelToken,
			VercelOrgID:           creds.VercelOrgID,
			GcloudCredentialsFile: creds.GcloudCredentialsFile,
		}
		if svc, err = NewServices(ctx, cfg, creds, log); err != nil {
			return err
		}
	}
	if prompter != nil {
		svc.ReplaceTakenID = replaceTakenID(prompter, pub)
	}

	opts := []project.Option{project.WithFormatter(pub), project.WithLogger(log)}
	if f.localOnly {
		opts = append(opts, project.LocalOnly())
	}
	res, err := project.Create(ctx, req, svc, opts...)
	if res != nil {
		printResult(out, res)
	}
	return err
}

// resolveRequest fills the name, hid and domain from the flags, asking for the
// missing ones when p is not nil.
func resolveRequest(f createFlags, cfg *config.Config, p Prompter, cwd string) (*project.Request, error) {
	ask := func(value, question, initial string) (string, error) {
		if value != "" {
			return value, nil
		}
		if p == nil {
			return initial, nil
		}
		return p.Ask(question, initial)
	}

	name, err := ask(f.name, "What is the name of the project?", "MS Web")
	if err != nil {
		return nil, err
	}
	hid, err := ask(f.hid, "Is this the correct project hid?", utils.ParamCase(name))
	if err != nil {
		return nil, err
	}
	domain, err := ask(f.domain, "What is the domain?", cfg.DefaultDomain)
	if err != nil {
		return nil, err
	}

	dest := f.dest
	if dest == "" {
		dest = filepath.Join(cwd, hid)
	}

	req := project.NewRequest(name, hid, domain, dest)
	req.TemplateDir = cfg.TemplateDir
	req.SeedFile = cfg.SeedFile
	req.SeedDatabase = cfg.SeedDatabase
	req.EnableDirenv = cfg.EnableDirenv
	req.RefreshSecrets = cfg.RefreshSecrets
	return req, nil
}

// maxValueWidth bounds the environment lines of the result summary.
const maxValueWidth = 64

func printResult(w io.Writer, res *project.Result) {
	label := lipgloss.NewStyle().Faint(true).Width(14)
	name := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	value := func(s string) string { return utils.TruncateString(s, maxValueWidth) }

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%s\n", label.Render("directory"), name.Render(res.DestDir))
	if res.RepoURL != "" {
		fmt.Fprintf(w, "%s%s\n", label.Render("repository"), res.RepoURL)
	}
	for _, env := range res.Environments {
		fmt.Fprintf(w, "%s%s\n", label.Render(env.Env.Slug), value("https://"+env.Domain))
		fmt.Fprintf(w, "%s%s\n", label.Render(""), value("gcloud "+env.GCloudProjectID))
		fmt.Fprintf(w, "%s%s\n", label.Render(""), value("vercel ui "+env.UIProjectID+", app "+env.AppProjectID))
	}

	caveats := make([]string, len(res.Caveats))
	for i, c := range res.Caveats {
		caveats[i] = string(c)
	}
	if len(caveats) == 0 {
		caveats = []string{"none"}
	}
	fmt.Fprintf(w, "%s%s\n", label.Render("caveats"), strings.Join(caveats, ", "))
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrPromptCancelled) {
			errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFBA08"))
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		}
		stop()
		os.Exit(1)
	}
}
