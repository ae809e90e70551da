package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Credentials are read from the environment. All of them are required.
type Credentials struct {
	NPMToken              string `env:"NPM_TOKEN,required,notEmpty"`
	VercelToken           string `env:"VERCEL_TOKEN,required,notEmpty"`
	VercelOrgID           string `env:"VERCEL_ORG_ID,required,notEmpty"`
	GcloudCredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS,required,notEmpty"`
	GitHubToken           string `env:"GITHUB_TOKEN,required,notEmpty"`
	MongoPublicKey        string `env:"MONGO_USER_ID,required,notEmpty"`
	MongoPrivateKey       string `env:"MONGO_USER_TOKEN,required,notEmpty"`
	MongoProjectID        string `env:"MONGO_PROJECT_ID,required,notEmpty"`
	GCloudParentFolderID  string `env:"GCLOUD_PARENT_FOLDER_ID,required,notEmpty"`
	GCloudBillingAccount  string `env:"GCLOUD_BILLING_ACCOUNT,required,notEmpty"`
}

// LoadCredentials merges the given .env files, in order, with the process
// environment and parses the result. Files that do not exist are skipped;
// process variables win over file values.
func LoadCredentials(files ...string) (*Credentials, error) {
	environ := map[string]string{}
	for _, path := range files {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
		for k, v := range vars {
			environ[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	return ParseCredentials(environ)
}

func ParseCredentials(environ map[string]string) (*Credentials, error) {
	creds := &Credentials{}
	if err := env.ParseWithOptions(creds, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("missing credentials: %w", err)
	}
	return creds, nil
}
