package cli

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// Set with -ldflags "-X github.com/viswiz-io/viswiz-go/internal/cli.version=1.2.3".
var (
	version   = ""
	gitCommit = ""
)

// Returns "<version> <commit> [<arch>]", or "(local)" for builds without
// linker flags.
func VersionString() string {
	v := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(version)), "v")
	if v == "" {
		return "(local)"
	}
	commit := strings.TrimSpace(gitCommit)
	if commit == "" {
		commit = "(undefined)"
	}
	return fmt.Sprintf("%s %s [%s]", v, commit, runtime.GOARCH)
}

// Represents the 'viswiz version' command.
type VersionCmd struct{}

// Executes the version command.
func (c *VersionCmd) Run(ctx context.Context, s *session) error {
	fmt.Fprintf(s.stdout, "%s %s\n", name, VersionString())
	return nil
}
