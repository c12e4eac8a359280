package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/viswiz-io/viswiz-go/internal/app"
	"github.com/viswiz-io/viswiz-go/internal/ci"
	"github.com/viswiz-io/viswiz-go/internal/config"
	"github.com/viswiz-io/viswiz-go/internal/ui"
	"github.com/viswiz-io/viswiz-go/viswiz"
)

const name = "viswiz"

// Represents the root command and the flags shared by every subcommand.
type Root struct {
	APIKey  string `short:"k" name:"api-key" env:"VISWIZ_API_KEY" help:"API key of the VisWiz account to use." placeholder:"KEY"`
	Project string `short:"p" env:"VISWIZ_PROJECT_ID" help:"ID of the VisWiz project to use." placeholder:"ID"`
	Server  string `env:"VISWIZ_SERVER" help:"Override the API base URL." placeholder:"URL"`
	Config  string `help:"Config file (default ${config_path})." placeholder:"PATH"`
	Quiet   bool   `short:"q" xor:"verbosity" help:"Suppress progress and status lines; results and report URLs are still printed."`
	Debug   bool   `short:"d" xor:"verbosity" help:"Enable debug output."`

	Build    BuildCmd    `cmd:"" help:"Create a build on VisWiz.io and upload images for regression testing."`
	Projects ProjectsCmd `cmd:"" help:"List the projects of the account."`
	Builds   BuildsCmd   `cmd:"" help:"List the builds of the project."`
	Results  ResultsCmd  `cmd:"" help:"Show the comparison results of a build."`
	Account  AccountCmd  `cmd:"" help:"Show the account the API key belongs to."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// detectCI is replaced in tests so the host CI does not leak into them.
var detectCI = ci.Detect

// Parses args, runs the selected subcommand and returns the process exit
// code. Errors are printed to stderr as "Error: <message>".
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var root Root
	exitCode := -1

	parser, err := kong.New(&root,
		kong.Name(name),
		kong.Description("Visual regression testing with VisWiz.io.\n\nUploads folders of screenshots as builds and reports on their comparison."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
		kong.Vars{
			"version":     VersionString(),
			"config_path": config.DefaultPath(),
			"concurrency": strconv.Itoa(config.DefaultConcurrency),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	s := &session{root: &root, stdout: stdout, stderr: stderr}
	s.logger = newLogger(stderr, &root)
	if err := kctx.Run(s); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// Builds the text logger on stderr. Its level follows -d and -q.
func newLogger(w io.Writer, root *Root) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case root.Debug:
		level = slog.LevelDebug
	case root.Quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Carries the parsed root flags and output streams into subcommands.
type session struct {
	root   *Root
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// Loads the config file and layers flags and environment on top of it.
func (s *session) config() (config.Config, error) {
	path := s.root.Config
	if strings.TrimSpace(path) == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	s.logger.Debug("config loaded", "path", path)
	if v := strings.TrimSpace(s.root.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(s.root.Project); v != "" {
		cfg.Project = v
	}
	if v := strings.TrimSpace(s.root.Server); v != "" {
		cfg.Server = v
	}
	return cfg, nil
}

// Builds the workflow runner for a subcommand. Progress is drawn as a bar
// only on an interactive terminal outside CI.
func (s *session) app(ctx context.Context) (*app.App, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}

	client, err := viswiz.NewClient(cfg.APIKey,
		viswiz.WithServer(cfg.Server),
		viswiz.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("client ready", "server", client.Server())

	env := detectCI()

	var reporter ui.Reporter = ui.Discard{}
	if !s.root.Quiet {
		reporter = ui.New(ui.Options{
			Context:     ctx,
			Out:         s.stdout,
			Interactive: !env.IsCI && ui.IsTerminal(s.stdout),
			ThemeName:   cfg.Theme,
		})
	}

	return app.New(app.Options{
		Client:   client,
		Config:   cfg,
		CI:       env,
		Reporter: reporter,
		Quiet:    s.root.Quiet,
		Stdout:   s.stdout,
		Stderr:   s.stderr,
		Logger:   s.logger,
	}), nil
}
