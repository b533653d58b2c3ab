// Package ci reads build metadata from CI environment variables. CI runners
// usually check out a detached commit, so the branch is only known from the
// environment.
package ci

import (
	"os"
	"strconv"
	"strings"
)

// Kind represents the type of CI.
type Kind int

const (
	// Unknown indicates the CI provider could not be identified.
	Unknown Kind = iota
	// GitHub identifies GitHub Actions.
	GitHub
	// GitLab identifies GitLab CI.
	GitLab
	// Bitbucket identifies Bitbucket Pipelines.
	Bitbucket
)

// LookupFunc fetches environment variables and defaults to os.Getenv.
type LookupFunc func(string) string

// Environment captures the CI metadata the scanner uses.
type Environment struct {
	Kind               Kind
	CI                 bool
	CommitHash         string
	Branch             string
	RepositoryFullName string
	RepositoryURL      string
}

// String returns the human-readable string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case GitHub:
		return "github"
	case GitLab:
		return "gitlab"
	case Bitbucket:
		return "bitbucket"
	default:
		return "unknown"
	}
}

// Detect returns the CI environment of the current process, or nil outside CI.
func Detect() *Environment {
	return detectWithLookup(os.Getenv)
}

func detectWithLookup(lookup LookupFunc) *Environment {
	switch detectKind(lookup) {
	case GitHub:
		return gitHubEnvironment(lookup)
	case GitLab:
		return gitLabEnvironment(lookup)
	case Bitbucket:
		return bitbucketEnvironment(lookup)
	default:
		return nil
	}
}

func detectKind(lookup LookupFunc) Kind {
	if lookup("GITHUB_REPOSITORY") != "" || lookup("GITHUB_SHA") != "" {
		return GitHub
	}
	if strings.EqualFold(lookup("GITLAB_CI"), "true") || lookup("CI_PROJECT_PATH") != "" {
		return GitLab
	}
	if lookup("BITBUCKET_WORKSPACE") != "" || lookup("BITBUCKET_REPO_SLUG") != "" {
		return Bitbucket
	}
	return Unknown
}

// See https://docs.github.com/en/actions/reference/workflows-and-actions/variables.
func gitHubEnvironment(lookup LookupFunc) *Environment {
	ci, _ := strconv.ParseBool(lookup("CI"))

	// pull request runs check out a merge ref, the source branch is in GITHUB_HEAD_REF
	branch := lookup("GITHUB_HEAD_REF")
	if branch == "" && strings.HasPrefix(lookup("GITHUB_REF"), "refs/heads/") {
		branch = lookup("GITHUB_REF_NAME")
	}

	fullName := lookup("GITHUB_REPOSITORY")
	var url string
	if server := lookup("GITHUB_SERVER_URL"); server != "" && fullName != "" {
		url = strings.TrimSuffix(server, "/") + "/" + fullName
	}

	return &Environment{
		Kind:               GitHub,
		CI:                 ci,
		CommitHash:         lookup("GITHUB_SHA"),
		Branch:             branch,
		RepositoryFullName: fullName,
		RepositoryURL:      url,
	}
}

// See https://docs.gitlab.com/ci/variables/predefined_variables/.
func gitLabEnvironment(lookup LookupFunc) *Environment {
	ci, _ := strconv.ParseBool(lookup("CI"))

	branch := lookup("CI_MERGE_REQUEST_SOURCE_BRANCH_NAME")
	if branch == "" && lookup("CI_COMMIT_TAG") == "" {
		branch = lookup("CI_COMMIT_REF_NAME")
	}

	return &Environment{
		Kind:               GitLab,
		CI:                 ci,
		CommitHash:         lookup("CI_COMMIT_SHA"),
		Branch:             branch,
		RepositoryFullName: lookup("CI_PROJECT_PATH"),
		RepositoryURL:      lookup("CI_PROJECT_URL"),
	}
}

// See https://support.atlassian.com/bitbucket-cloud/docs/variables-and-secrets/.
func bitbucketEnvironment(lookup LookupFunc) *Environment {
	ci, _ := strconv.ParseBool(lookup("CI"))

	return &Environment{
		Kind:               Bitbucket,
		CI:                 ci,
		CommitHash:         lookup("BITBUCKET_COMMIT"),
		Branch:             lookup("BITBUCKET_BRANCH"),
		RepositoryFullName: lookup("BITBUCKET_REPO_FULL_NAME"),
		RepositoryURL:      lookup("BITBUCKET_GIT_HTTP_ORIGIN"),
	}
}
