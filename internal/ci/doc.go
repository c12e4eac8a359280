// Package ci detects the build context (branch, commit and commit message)
// from the environment variables exported by common CI services.
//
// Supported services: AppVeyor, Bitrise, Buildkite, CircleCI, Codeship,
// Drone, GitHub Actions, GitLab CI, Jenkins, Shippable and Travis CI. Not
// every service exports a commit message; callers fall back to flags.
package ci
