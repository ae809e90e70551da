package jobs

import "github.com/santiagomed/mindful/steppy"

// Caveats recorded when a remote resource already existed and was reused.
const (
	CaveatGitHubRepoExists    steppy.Caveat = "GITHUB_REPO_EXISTS"
	CaveatGCloudProjectExists steppy.Caveat = "GCLOUD_PROJECT_EXISTS"
	CaveatAtlasUserExists     steppy.Caveat = "ATLAS_USER_EXISTS"
	CaveatVercelProjectExists steppy.Caveat = "VERCEL_PROJECT_EXISTS"
)

// Step groups, used to tag progress lines.
const (
	groupLocal  = "local"
	groupGitHub = "github"
	groupMongo  = "mongo"
	groupGoogle = "google"
	groupVercel = "vercel"
)
