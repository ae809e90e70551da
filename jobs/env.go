package jobs

import (
	"path/filepath"

	"github.com/santiagomed/mindful/utils"
)

// Env describes one deployment environment. Name is also the name of the Atlas
// cluster serving it; Slug is used in resource names, e.g. acme-cms-stage.
type Env struct {
	Name           string
	ShortName      string
	Slug           string
	NodeEnv        string
	ConstantSuffix string
}

// NewEnv derives the slug and constant suffix from shortName.
func NewEnv(name, shortName, nodeEnv string) Env {
	return Env{
		Name:           name,
		ShortName:      shortName,
		Slug:           utils.ParamCase(shortName),
		NodeEnv:        nodeEnv,
		ConstantSuffix: utils.ConstantCase(shortName),
	}
}

var (
	Stage      = NewEnv("Stage", "Stage", "stage")
	Production = NewEnv("Production", "Prod", "production")
)

// Suffixed returns key with the environment's constant suffix, e.g. DATABASE_URI_STAGE.
func (e Env) Suffixed(key string) string {
	return key + "_" + e.ConstantSuffix
}

// Packages of the template work tree, before prefixing.
var (
	packages    = []string{"tsconfig", "types", "cms", "ui", "app"}
	envPackages = []string{"cms", "ui", "app"}
)

// PackageDir returns the directory of package p once prefixed with the project hid.
func PackageDir(destDir, hid, p string) string {
	return filepath.Join(destDir, "packages", hid+"-"+p)
}
