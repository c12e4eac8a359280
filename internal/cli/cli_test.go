package cli

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/viswiz-io/viswiz-go/internal/apitest"
	"github.com/viswiz-io/viswiz-go/internal/ci"
)

const testKey = "foobar"

// isolate clears the VisWiz environment, pins CI detection to "not CI" and
// returns a config path inside a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"VISWIZ_API_KEY", "VISWIZ_PROJECT_ID", "VISWIZ_SERVER"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	prev := detectCI
	detectCI = func() ci.Env { return ci.Env{} }
	t.Cleanup(func() { detectCI = prev })
	return filepath.Join(t.TempDir(), "config.toml")
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func shots(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("\x89PNG\r\n\x1a\n"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return dir
}

func TestVersion(t *testing.T) {
	isolate(t)

	code, stdout, _ := run(t, "version")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if stdout != "viswiz (local)\n" {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestHelpExitsZero(t *testing.T) {
	isolate(t)

	code, stdout, _ := run(t, "--help")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	for _, want := range []string{"Usage: viswiz", "build", "--api-key"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("help missing %q:\n%s", want, stdout)
		}
	}
}

func TestBuild_Succeeds(t *testing.T) {
	cfgPath := isolate(t)
	server := apitest.New(t, testKey)
	server.AddProject(apitest.Project{ID: "qwerty", Name: "Foo"})

	code, stdout, stderr := run(t,
		"--config", cfgPath,
		"--server", server.URL,
		"-k", testKey,
		"-p", "qwerty",
		"build", "-i", shots(t, "a.png", "b.png"),
		"-b", "master", "-m", "Commit message", "-r", "abcdef",
	)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr:\n%s", code, stderr)
	}

	for _, want := range []string{
		"Creating build on VisWiz.io...\n",
		"100% (2/2 images)\n",
		"Done!\n",
		"Build report will be available at: https://app.viswiz.io/projects/qwerty/build/",
	} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stderr, "level=INFO") || !strings.Contains(stderr, `msg="creating build"`) {
		t.Fatalf("stderr = %q, want an info log line", stderr)
	}
	if got := server.CountRequests(http.MethodPost, "/projects/qwerty/builds"); got != 1 {
		t.Fatalf("create requests = %d, want 1", got)
	}
}

func TestBuild_QuietPrintsOnlyReportURL(t *testing.T) {
	cfgPath := isolate(t)
	server := apitest.New(t, testKey)
	server.AddProject(apitest.Project{ID: "qwerty", Name: "Foo"})

	code, stdout, stderr := run(t,
		"--config", cfgPath,
		"--server", server.URL,
		"-k", testKey,
		"-p", "qwerty",
		"-q",
		"build", "-i", shots(t, "a.png"),
		"-b", "master", "-m", "Commit message", "-r", "abcdef",
	)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr:\n%s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "Build report will be available at: https://app.viswiz.io/projects/qwerty/build/") || strings.Count(stdout, "\n") != 1 {
		t.Fatalf("stdout = %q, want only the report URL line", stdout)
	}
	if stderr != "" {
		t.Fatalf("stderr = %q, want empty", stderr)
	}
}

func TestBuild_MissingInputs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"api key", []string{"build", "-i", "x"}, "Error: missing API key value\n"},
		{"project", []string{"-k", testKey, "build", "-i", "x"}, "Error: missing project ID\n"},
		{"image dir", []string{"-k", testKey, "-p", "qwerty", "build"}, "Error: missing image directory\n"},
		{"branch", []string{"-k", testKey, "-p", "qwerty", "build", "-i", "x"}, "Error: missing branch name\n"},
		{"message", []string{"-k", testKey, "-p", "qwerty", "build", "-i", "x", "-b", "main"}, "Error: missing commit message\n"},
		{"revision", []string{"-k", testKey, "-p", "qwerty", "build", "-i", "x", "-b", "main", "-m", "msg"}, "Error: missing commit revision\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := isolate(t)
			args := append([]string{"--config", cfgPath, "-q"}, tt.args...)

			code, stdout, stderr := run(t, args...)
			if code != 1 {
				t.Fatalf("exit code = %d, want 1", code)
			}
			if stderr != tt.want {
				t.Fatalf("stderr = %q, want %q", stderr, tt.want)
			}
			if stdout != "" {
				t.Fatalf("stdout = %q, want empty", stdout)
			}
		})
	}
}

func TestBuild_UsesConfigFileAndEnvironment(t *testing.T) {
	cfgPath := isolate(t)
	server := apitest.New(t, testKey)
	server.AddProject(apitest.Project{ID: "from-env", Name: "Env"})
	writeConfig(t, cfgPath, `
api_key = "foobar"
project = "from-file"
server = "`+server.URL+`"
app_url = "https://viswiz.example.com/"
`)
	t.Setenv("VISWIZ_PROJECT_ID", "from-env")

	code, stdout, stderr := run(t, "--config", cfgPath, "build", "-i", shots(t, "a.png"), "-b", "main", "-m", "msg", "-r", "sha")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "Build report will be available at: https://viswiz.example.com/projects/from-env/build/") {
		t.Fatalf("stdout = %q, want report URL for the env project on the configured app", stdout)
	}
}

func TestBuild_DetectsCIValues(t *testing.T) {
	cfgPath := isolate(t)
	detectCI = func() ci.Env {
		return ci.Env{IsCI: true, Service: "travis", Branch: "main", PRBranch: "feature", Commit: "c0ffee", Message: "From CI"}
	}
	server := apitest.New(t, testKey)
	server.AddProject(apitest.Project{ID: "qwerty", Name: "Foo"})

	code, stdout, stderr := run(t, "--config", cfgPath, "--server", server.URL, "-k", testKey, "-p", "qwerty", "build", "-i", shots(t, "a.png"))
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "100% (1/1 images)\n") {
		t.Fatalf("stdout = %q, want plain progress in CI", stdout)
	}

	var buildID string
	for _, r := range server.Requests() {
		if r.Method == http.MethodPost && strings.HasSuffix(r.Path, "/finish") {
			buildID = strings.TrimSuffix(strings.TrimPrefix(r.Path, "/builds/"), "/finish")
		}
	}
	build, ok := server.Build(buildID)
	if !ok || build.Branch != "feature" || build.Revision != "c0ffee" || build.Name != "From CI" {
		t.Fatalf("stored build = %#v (found %v)", build, ok)
	}
}

func TestProjectsAndAccount(t *testing.T) {
	cfgPath := isolate(t)
	server := apitest.New(t, testKey)
	server.AddProject(apitest.Project{ID: "qwerty", Name: "Marketing site"})
	common := []string{"--config", cfgPath, "--server", server.URL, "-k", testKey}

	code, stdout, stderr := run(t, append(common, "projects")...)
	if code != 0 || !strings.Contains(stdout, "Marketing site") {
		t.Fatalf("projects: code = %d, stdout = %q, stderr = %q", code, stdout, stderr)
	}

	code, stdout, stderr = run(t, append(common, "account")...)
	if code != 0 || !strings.Contains(stdout, "Email: test@viswiz.io") {
		t.Fatalf("account: code = %d, stdout = %q, stderr = %q", code, stdout, stderr)
	}

	code, _, stderr = run(t, append(common, "builds")...)
	if code != 1 || stderr != "Error: missing project ID\n" {
		t.Fatalf("builds without project: code = %d, stderr = %q", code, stderr)
	}
}

func TestResults(t *testing.T) {
	cfgPath := isolate(t)
	server := apitest.New(t, testKey)
	server.AddBuild(apitest.Build{ID: "b1", ProjectID: "qwerty", Finished: true})

	code, stdout, stderr := run(t, "--config", cfgPath, "--server", server.URL, "-k", testKey, "results", "b1", "--wait")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr:\n%s", code, stderr)
	}
	if stdout != "Comparison completed: 0 image(s) with differences\n" {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestAPIErrorIsReported(t *testing.T) {
	cfgPath := isolate(t)
	server := apitest.New(t, testKey)

	code, stdout, stderr := run(t, "--config", cfgPath, "--server", server.URL, "-k", "wrong", "account")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.HasPrefix(stderr, "Error: get account: api GET /account returned status 401") {
		t.Fatalf("stderr = %q", stderr)
	}
	if stdout != "" {
		t.Fatalf("stdout = %q, want empty", stdout)
	}
}

func TestDebugLogging(t *testing.T) {
	cfgPath := isolate(t)
	server := apitest.New(t, testKey)

	code, _, stderr := run(t, "--config", cfgPath, "--server", server.URL, "-k", testKey, "-d", "account")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stderr, "level=DEBUG") || !strings.Contains(stderr, `msg="client ready"`) {
		t.Fatalf("stderr = %q, want debug lines", stderr)
	}
}

func TestQuietAndDebugConflict(t *testing.T) {
	isolate(t)

	code, _, stderr := run(t, "-q", "-d", "version")
	if code != 1 || !strings.HasPrefix(stderr, "Error: ") {
		t.Fatalf("code = %d, stderr = %q", code, stderr)
	}
}
