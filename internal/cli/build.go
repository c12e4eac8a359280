package cli

import (
	"context"
	"time"

	"github.com/viswiz-io/viswiz-go/internal/app"
)

// Represents the 'viswiz build' command.
type BuildCmd struct {
	ImageDir    string        `short:"i" name:"image-dir" help:"Directory scanned recursively for PNG images." placeholder:"PATH"`
	Branch      string        `short:"b" help:"Branch name of the build. Detected on popular CI services." placeholder:"NAME"`
	Message     string        `short:"m" help:"Commit message of the build. Detected on popular CI services." placeholder:"MESSAGE"`
	Revision    string        `short:"r" help:"Revision of the build. Detected on popular CI services." placeholder:"REV"`
	Concurrency int           `short:"c" help:"Number of simultaneous uploads (default ${concurrency})." placeholder:"N"`
	Wait        bool          `help:"Wait for the comparison to finish and print a summary."`
	WaitTimeout time.Duration `default:"10m" help:"Give up waiting after this long." placeholder:"DURATION"`
	FailOnDiff  bool          `help:"Exit with an error when the comparison finds differences. Implies --wait."`
}

// Executes the build command.
//
// Prints the report URL once every image is uploaded and the build is
// finished.
func (c *BuildCmd) Run(ctx context.Context, s *session) error {
	a, err := s.app(ctx)
	if err != nil {
		return err
	}

	_, err = a.Build(ctx, app.BuildRequest{
		ImageDir:    c.ImageDir,
		Branch:      c.Branch,
		Message:     c.Message,
		Revision:    c.Revision,
		Concurrency: c.Concurrency,
		Wait:        c.Wait || c.FailOnDiff,
		WaitTimeout: c.WaitTimeout,
		FailOnDiff:  c.FailOnDiff,
	})
	return err
}
