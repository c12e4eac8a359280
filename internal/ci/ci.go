package ci

import (
	"os"
	"strings"
)

// Env is the build context detected from CI environment variables.
type Env struct {
	IsCI     bool
	Service  string
	Branch   string
	PRBranch string
	Commit   string
	Message  string
}

// BuildBranch returns the branch a build should be reported under: the
// pull request source branch when there is one, else the branch.
func (e Env) BuildBranch() string {
	if e.PRBranch != "" {
		return e.PRBranch
	}
	return e.Branch
}

// vendor maps one CI service to the variables it exports.
type vendor struct {
	service string
	detect  func(getenv func(string) string) bool

	commit   string
	branch   string
	prBranch string
	message  string
}

func isSet(name string) func(func(string) string) bool {
	return func(getenv func(string) string) bool {
		return getenv(name) != ""
	}
}

func equals(name, value string) func(func(string) string) bool {
	return func(getenv func(string) string) bool {
		return strings.EqualFold(getenv(name), value)
	}
}

var vendors = []vendor{
	{
		service: "appveyor", detect: isSet("APPVEYOR"),
		commit: "APPVEYOR_REPO_COMMIT", branch: "APPVEYOR_REPO_BRANCH",
		prBranch: "APPVEYOR_PULL_REQUEST_HEAD_REPO_BRANCH", message: "APPVEYOR_REPO_COMMIT_MESSAGE",
	},
	{
		service: "bitrise", detect: isSet("BITRISE_IO"),
		commit: "BITRISE_GIT_COMMIT", branch: "BITRISE_GIT_BRANCH", message: "BITRISE_GIT_MESSAGE",
	},
	{
		service: "buildkite", detect: isSet("BUILDKITE"),
		commit: "BUILDKITE_COMMIT", branch: "BUILDKITE_BRANCH", message: "BUILDKITE_MESSAGE",
	},
	{
		service: "circleci", detect: isSet("CIRCLECI"),
		commit: "CIRCLE_SHA1", branch: "CIRCLE_BRANCH",
	},
	{
		service: "codeship", detect: equals("CI_NAME", "codeship"),
		commit: "CI_COMMIT_ID", branch: "CI_BRANCH", message: "CI_MESSAGE",
	},
	{
		service: "drone", detect: isSet("DRONE"),
		commit: "DRONE_COMMIT_SHA", branch: "DRONE_BRANCH",
		prBranch: "DRONE_SOURCE_BRANCH", message: "DRONE_COMMIT_MESSAGE",
	},
	{
		service: "github", detect: isSet("GITHUB_ACTIONS"),
		commit: "GITHUB_SHA", branch: "GITHUB_REF", prBranch: "GITHUB_HEAD_REF",
	},
	{
		service: "gitlab", detect: isSet("GITLAB_CI"),
		commit: "CI_COMMIT_SHA", branch: "CI_COMMIT_REF_NAME",
		prBranch: "CI_MERGE_REQUEST_SOURCE_BRANCH_NAME", message: "CI_COMMIT_MESSAGE",
	},
	{
		service: "jenkins", detect: isSet("JENKINS_URL"),
		commit: "GIT_COMMIT", branch: "GIT_BRANCH", prBranch: "CHANGE_BRANCH",
	},
	{
		service: "shippable", detect: isSet("SHIPPABLE"),
		commit: "COMMIT", branch: "BRANCH", prBranch: "HEAD_BRANCH", message: "COMMIT_MESSAGE",
	},
	{
		service: "travis", detect: isSet("TRAVIS"),
		commit: "TRAVIS_COMMIT", branch: "TRAVIS_BRANCH",
		prBranch: "TRAVIS_PULL_REQUEST_BRANCH", message: "TRAVIS_COMMIT_MESSAGE",
	},
}

// Detect reads the process environment.
func Detect() Env {
	return FromEnv(os.Getenv)
}

// FromEnv detects the CI service using getenv. Outside CI the zero Env is
// returned; an unknown service that sets CI=true yields IsCI without build
// details.
func FromEnv(getenv func(string) string) Env {
	for _, v := range vendors {
		if !v.detect(getenv) {
			continue
		}
		return Env{
			IsCI:     true,
			Service:  v.service,
			Commit:   lookup(getenv, v.commit),
			Branch:   trimRef(lookup(getenv, v.branch)),
			PRBranch: trimRef(lookup(getenv, v.prBranch)),
			Message:  lookup(getenv, v.message),
		}
	}
	if ci := strings.ToLower(getenv("CI")); ci == "true" || ci == "1" {
		return Env{IsCI: true}
	}
	return Env{}
}

func lookup(getenv func(string) string, name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSpace(getenv(name))
}

// trimRef turns "refs/heads/main" into "main" and drops tag and pull
// request refs, which do not name a branch.
func trimRef(ref string) string {
	switch {
	case strings.HasPrefix(ref, "refs/heads/"):
		return strings.TrimPrefix(ref, "refs/heads/")
	case strings.HasPrefix(ref, "refs/"):
		return ""
	case strings.HasPrefix(ref, "origin/"):
		return strings.TrimPrefix(ref, "origin/")
	}
	return ref
}
