package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/viswiz-io/viswiz-go/internal/ci"
	"github.com/viswiz-io/viswiz-go/internal/config"
	"github.com/viswiz-io/viswiz-go/internal/ui"
	"github.com/viswiz-io/viswiz-go/viswiz"
)

var (
	ErrMissingProject  = errors.New("missing project ID")
	ErrMissingImageDir = errors.New("missing image directory")
	ErrMissingBranch   = errors.New("missing branch name")
	ErrMissingMessage  = errors.New("missing commit message")
	ErrMissingRevision = errors.New("missing commit revision")
	ErrMissingBuild    = errors.New("missing build ID")
	ErrDiffsFound      = errors.New("comparison found differences")
)

// API is the part of *viswiz.Client the workflows use.
type API interface {
	BuildImages(ctx context.Context, params viswiz.BuildParams, images []viswiz.ImageFile, opts viswiz.UploadOptions) (string, error)
	GetAccount(ctx context.Context) (*viswiz.Account, error)
	GetProjects(ctx context.Context) ([]viswiz.Project, error)
	GetBuilds(ctx context.Context, projectID string) ([]viswiz.Build, error)
	GetBuildResults(ctx context.Context, buildID string) (*viswiz.BuildResults, error)
}

// Options configure an App.
type Options struct {
	Client   API
	Config   config.Config
	CI       ci.Env
	Reporter ui.Reporter // nil prints plain progress lines to Stdout
	Quiet    bool        // drop status lines, keep results and report URLs
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger

	PollInterval time.Duration // zero uses defaultPollInterval
}

// App runs the command workflows against the VisWiz API.
type App struct {
	client       API
	cfg          config.Config
	ci           ci.Env
	reporter     ui.Reporter
	quiet        bool
	stdout       io.Writer
	stderr       io.Writer
	logger       *slog.Logger
	pollInterval time.Duration
}

// New returns an App. Client is required.
func New(opts Options) *App {
	a := &App{
		client:       opts.Client,
		cfg:          opts.Config,
		ci:           opts.CI,
		reporter:     opts.Reporter,
		quiet:        opts.Quiet,
		stdout:       opts.Stdout,
		stderr:       opts.Stderr,
		logger:       opts.Logger,
		pollInterval: opts.PollInterval,
	}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.stderr == nil {
		a.stderr = os.Stderr
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	if a.reporter == nil {
		a.reporter = ui.New(ui.Options{Out: a.stdout})
	}
	if a.pollInterval <= 0 {
		a.pollInterval = defaultPollInterval
	}
	return a
}

// BuildRequest holds the build command inputs. Empty fields fall back to the
// configured project and to values detected from the CI environment.
type BuildRequest struct {
	ProjectID   string
	ImageDir    string
	Branch      string
	Message     string
	Revision    string
	Concurrency int

	Wait        bool
	WaitTimeout time.Duration
	FailOnDiff  bool
}

// Build uploads every image in req.ImageDir as a new build and prints where
// the report will be published. It returns the build id.
func (a *App) Build(ctx context.Context, req BuildRequest) (string, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return "", err
	}

	images, err := viswiz.FindImages(req.ImageDir)
	if err != nil {
		return "", err
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = a.cfg.Concurrency
	}

	a.logger.Info("creating build",
		"project", params.ProjectID,
		"branch", params.Branch,
		"revision", params.Revision,
		"images", len(images),
		"concurrency", concurrency,
	)
	a.status("Creating build on VisWiz.io...")

	a.reporter.Start(len(images))
	buildID, err := a.client.BuildImages(ctx, params, images, viswiz.UploadOptions{
		Progress:    a.reporter.Progress,
		Concurrency: concurrency,
	})
	a.reporter.Finish(err)
	if err != nil {
		return "", err
	}

	a.status("Done!")
	fmt.Fprintf(a.stdout, "Build report will be available at: %s\n", a.cfg.ResultsURL(params.ProjectID, buildID))

	if !req.Wait {
		return buildID, nil
	}
	results, err := a.waitForResults(ctx, buildID, req.WaitTimeout)
	if err != nil {
		return buildID, err
	}
	return buildID, a.printSummary(results, req.FailOnDiff)
}

func (a *App) buildParams(req BuildRequest) (viswiz.BuildParams, error) {
	params := viswiz.BuildParams{
		ProjectID: firstNonEmpty(req.ProjectID, a.cfg.Project),
		Branch:    firstNonEmpty(req.Branch, a.ci.BuildBranch()),
		Name:      firstNonEmpty(req.Message, a.ci.Message),
		Revision:  firstNonEmpty(req.Revision, a.ci.Commit),
	}
	if a.ci.IsCI {
		a.logger.Debug("ci environment detected", "service", a.ci.Service, "branch", a.ci.BuildBranch(), "commit", a.ci.Commit)
	}

	switch {
	case params.ProjectID == "":
		return params, ErrMissingProject
	case strings.TrimSpace(req.ImageDir) == "":
		return params, ErrMissingImageDir
	case params.Branch == "":
		return params, ErrMissingBranch
	case params.Name == "":
		return params, ErrMissingMessage
	case params.Revision == "":
		return params, ErrMissingRevision
	}
	return params, nil
}

// Projects prints the projects of the account.
func (a *App) Projects(ctx context.Context) error {
	projects, err := a.client.GetProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	if len(projects) == 0 {
		fmt.Fprintln(a.stdout, "No projects found.")
		return nil
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{p.ID, p.Name, orDash(p.BaselineBranch), orDash(p.URL)})
	}
	fmt.Fprintln(a.stdout, ui.Table(a.cfg.Theme, []string{"ID", "NAME", "BASELINE", "URL"}, rows))
	return nil
}

// Builds prints the builds of projectID, or of the configured project.
func (a *App) Builds(ctx context.Context, projectID string) error {
	projectID = firstNonEmpty(projectID, a.cfg.Project)
	if projectID == "" {
		return ErrMissingProject
	}

	builds, err := a.client.GetBuilds(ctx, projectID)
	if err != nil {
		return fmt.Errorf("list builds: %w", err)
	}
	if len(builds) == 0 {
		fmt.Fprintln(a.stdout, "No builds found.")
		return nil
	}

	rows := make([][]string, 0, len(builds))
	for _, b := range builds {
		created := "-"
		if ts := b.ParsedCreatedAt(); !ts.IsZero() {
			created = ts.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{b.ID, b.Branch, b.Name, shortRevision(b.Revision), created})
	}
	fmt.Fprintln(a.stdout, ui.Table(a.cfg.Theme, []string{"ID", "BRANCH", "NAME", "REVISION", "CREATED"}, rows))
	return nil
}

// ResultsRequest holds the results command inputs.
type ResultsRequest struct {
	BuildID     string
	Wait        bool
	WaitTimeout time.Duration
	FailOnDiff  bool
}

// Results prints the comparison summary of a build, optionally waiting for
// the comparison to finish first.
func (a *App) Results(ctx context.Context, req ResultsRequest) error {
	if strings.TrimSpace(req.BuildID) == "" {
		return ErrMissingBuild
	}

	var (
		results *viswiz.BuildResults
		err     error
	)
	if req.Wait {
		results, err = a.waitForResults(ctx, req.BuildID, req.WaitTimeout)
	} else {
		results, err = a.client.GetBuildResults(ctx, req.BuildID)
		if err != nil {
			err = fmt.Errorf("get build results: %w", err)
		}
	}
	if err != nil {
		return err
	}
	return a.printSummary(results, req.FailOnDiff)
}

// Account prints the account bound to the API key.
func (a *App) Account(ctx context.Context) error {
	account, err := a.client.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if account.Name != "" {
		fmt.Fprintf(a.stdout, "Name:  %s\n", account.Name)
	}
	fmt.Fprintf(a.stdout, "Email: %s\n", account.Email)
	fmt.Fprintf(a.stdout, "ID:    %s\n", account.ID)
	return nil
}

func (a *App) printSummary(results *viswiz.BuildResults, failOnDiff bool) error {
	diffs := diffCount(results)
	fmt.Fprintf(a.stdout, "Comparison %s: %d image(s) with differences\n", results.Status, diffs)
	if failOnDiff && results.HasDiffs() {
		return fmt.Errorf("build %s: %w", results.ID, ErrDiffsFound)
	}
	return nil
}

func (a *App) status(line string) {
	if !a.quiet {
		fmt.Fprintln(a.stdout, line)
	}
}

func diffCount(results *viswiz.BuildResults) int {
	if results.DiffCount > 0 {
		return results.DiffCount
	}
	n := 0
	for _, img := range results.Images {
		if img.DiffPercentage > 0 {
			n++
		}
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortRevision(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}
