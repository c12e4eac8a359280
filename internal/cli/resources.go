package cli

import (
	"context"
	"time"

	"github.com/viswiz-io/viswiz-go/internal/app"
)

// Represents the 'viswiz projects' command.
type ProjectsCmd struct{}

// Executes the projects command.
func (c *ProjectsCmd) Run(ctx context.Context, s *session) error {
	a, err := s.app(ctx)
	if err != nil {
		return err
	}
	return a.Projects(ctx)
}

// Represents the 'viswiz builds' command.
type BuildsCmd struct{}

// Executes the builds command for the project selected with --project.
func (c *BuildsCmd) Run(ctx context.Context, s *session) error {
	a, err := s.app(ctx)
	if err != nil {
		return err
	}
	return a.Builds(ctx, "")
}

// Represents the 'viswiz results' command.
type ResultsCmd struct {
	BuildID     string        `arg:"" name:"build-id" help:"ID of the build."`
	Wait        bool          `help:"Wait for the comparison to finish."`
	WaitTimeout time.Duration `default:"10m" help:"Give up waiting after this long." placeholder:"DURATION"`
	FailOnDiff  bool          `help:"Exit with an error when the comparison found differences."`
}

// Executes the results command.
func (c *ResultsCmd) Run(ctx context.Context, s *session) error {
	a, err := s.app(ctx)
	if err != nil {
		return err
	}
	return a.Results(ctx, app.ResultsRequest{
		BuildID:     c.BuildID,
		Wait:        c.Wait,
		WaitTimeout: c.WaitTimeout,
		FailOnDiff:  c.FailOnDiff,
	})
}

// Represents the 'viswiz account' command.
type AccountCmd struct{}

// Executes the account command.
func (c *AccountCmd) Run(ctx context.Context, s *session) error {
	a, err := s.app(ctx)
	if err != nil {
		return err
	}
	return a.Account(ctx)
}
