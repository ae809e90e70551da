package project

import (
	"errors"
	"fmt"

	"github.com/santiagomed/mindful/utils"
)

// Request indicates the user's request for a new project.
type Request struct {
	ProjectName string `mapstructure:"project_name"`
	ProjectHid  string `mapstructure:"project_hid"`
	Domain      string `mapstructure:"domain"`
	DestDir     string `mapstructure:"dest_dir"`

	TemplateDir      string `mapstructure:"template_dir"`
	SeedFile         string `mapstructure:"seed_file"`
	SeedDatabase     bool   `mapstructure:"seed_database"`
	EnableDirenv     bool   `mapstructure:"enable_direnv"`
	RefreshSecrets   bool   `mapstructure:"refresh_secrets"`
	ManifestTemplate string `mapstructure:"manifest_template"`

	// MongoPassword is shared by the stage and production database user.
	// A random one is generated when empty.
	MongoPassword string

	Secrets Secrets
}

// Secrets are the credentials copied into the generated project.
type Secrets struct {
	NPMToken              string
	VercelToken           string
	VercelOrgID           string
	GcloudCredentialsFile string
}

// DefaultRequest returns a Request with default values.
func DefaultRequest() *Request {
	return &Request{
		ProjectName:  "MS Web",
		ProjectHid:   "ms-web",
		Domain:       "mindfulstudio.io",
		TemplateDir:  "template",
		SeedFile:     "cms.data",
		SeedDatabase: true,
		EnableDirenv: true,
	}
}

func NewRequest(projectName, projectHid, domain, destDir string) *Request {
	req := DefaultRequest()
	req.ProjectName = projectName
	req.ProjectHid = projectHid
	req.Domain = domain
	req.DestDir = destDir
	return req
}

func (r *Request) Validate() error {
	switch {
	case r.ProjectName == "":
		return errors.New("project name is required")
	case !utils.IsValidHid(r.ProjectHid):
		return fmt.Errorf("invalid project hid %q: use lowercase letters, digits and dashes", r.ProjectHid)
	case r.Domain == "":
		return errors.New("domain is required")
	case r.DestDir == "":
		return errors.New("destination directory is required")
	case r.TemplateDir == "":
		return errors.New("template directory is required")
	}
	return nil
}
