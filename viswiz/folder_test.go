package viswiz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFindImages_NamesAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "b.png")
	writeImage(t, dir, "a.png")
	writeImage(t, dir, "sub/c.PNG")
	writeImage(t, dir, "notes.txt")
	writeImage(t, dir, ".hidden.png")
	writeImage(t, dir, ".cache/d.png")

	images, err := FindImages(dir)
	if err != nil {
		t.Fatalf("FindImages returned error: %v", err)
	}

	var names []string
	for _, img := range images {
		names = append(names, img.Name)
		if !filepath.IsAbs(img.Path) {
			t.Fatalf("path %q is not absolute", img.Path)
		}
	}
	if diff := cmp.Diff([]string{"a", "b", "sub/c"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestFindImages_Empty(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "readme.md")

	if _, err := FindImages(dir); !errors.Is(err, ErrNoImages) {
		t.Fatalf("FindImages error = %v, want ErrNoImages", err)
	}
	if _, err := FindImages(filepath.Join(dir, "missing")); err == nil || errors.Is(err, ErrNoImages) {
		t.Fatalf("FindImages on missing dir = %v, want scan error", err)
	}
}

func TestImageName(t *testing.T) {
	root := filepath.Join("/", "shots")
	tests := map[string]string{
		filepath.Join(root, "icon.png"):              "icon",
		filepath.Join(root, "subfolder", "icon.png"): "subfolder/icon",
		filepath.Join(root, "a", "b", "c.v2.png"):    "a/b/c.v2",
	}
	for path, want := range tests {
		got, err := ImageName(root, path)
		if err != nil {
			t.Fatalf("ImageName(%q) returned error: %v", path, err)
		}
		if got != want {
			t.Fatalf("ImageName(%q) = %q, want %q", path, got, want)
		}
	}
}

// fakeAPI is a minimal build/upload server that records call order.
type fakeAPI struct {
	mu       sync.Mutex
	events   []string
	inFlight int
	peak     int

	createStatus int
	uploadStatus int
	failStatus   map[string]int // per image name, overrides uploadStatus
	delays       map[string]time.Duration
}

func (f *fakeAPI) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeAPI) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeAPI) snapshot() (events []string, peak int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...), f.peak
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/projects/qwerty/builds":
		f.record("create")
		if f.createStatus != 0 {
			w.WriteHeader(f.createStatus)
			return
		}
		_, _ = io.WriteString(w, `{"id":"build-1"}`)

	case r.Method == http.MethodPost && r.URL.Path == "/builds/build-1/images":
		name := ""
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			name = r.FormValue("name")
		}
		f.mu.Lock()
		f.inFlight++
		f.peak = max(f.peak, f.inFlight)
		f.events = append(f.events, "upload "+name)
		f.mu.Unlock()

		time.Sleep(f.delays[name])

		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()

		status := f.uploadStatus
		if code, ok := f.failStatus[name]; ok {
			status = code
		}
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		f.record("done " + name)
		fmt.Fprintf(w, `{"name":%q}`, name)

	case r.Method == http.MethodPost && r.URL.Path == "/builds/build-1/finish":
		f.record("finish")

	default:
		http.NotFound(w, r)
	}
}

var folderParams = BuildParams{
	ProjectID: "qwerty",
	Branch:    "master",
	Name:      "Foo Bar",
	Revision:  "abcdef1234567890",
}

func TestBuildFolder_UploadsWithBoundedConcurrency(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png")
	writeImage(t, dir, "b.png")
	writeImage(t, dir, "c.png")

	api := &fakeAPI{delays: map[string]time.Duration{
		"a": 80 * time.Millisecond,
		"b": 80 * time.Millisecond,
	}}
	c := newTestClient(t, api)

	type tick struct{ done, total int }
	var ticks []tick
	buildID, err := c.BuildFolder(context.Background(), folderParams, dir, UploadOptions{
		Concurrency: 2,
		Progress:    func(done, total int) { ticks = append(ticks, tick{done, total}) },
	})
	if err != nil {
		t.Fatalf("BuildFolder returned error: %v", err)
	}
	if buildID != "build-1" {
		t.Fatalf("buildID = %q, want build-1", buildID)
	}

	if diff := cmp.Diff([]tick{{1, 3}, {2, 3}, {3, 3}}, ticks, cmp.AllowUnexported(tick{})); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}
	events, peak := api.snapshot()
	if peak > 2 {
		t.Fatalf("peak concurrent uploads = %d, want <= 2", peak)
	}
	if api.count("create") != 1 || api.count("upload") != 3 || api.count("finish") != 1 {
		t.Fatalf("events = %v", events)
	}
	if events[0] != "create" || events[len(events)-1] != "finish" {
		t.Fatalf("events out of order: %v", events)
	}
}

func TestBuildFolder_AliasAndDefaultConcurrency(t *testing.T) {
	dir := t.TempDir()
	for i := range 6 {
		writeImage(t, dir, fmt.Sprintf("img-%d.png", i))
	}

	api := &fakeAPI{delays: map[string]time.Duration{}}
	for i := range 6 {
		api.delays[fmt.Sprintf("img-%d", i)] = 30 * time.Millisecond
	}
	c := newTestClient(t, api)

	var last atomic.Int32
	_, err := c.BuildWithImages(context.Background(), folderParams, dir, UploadOptions{
		Progress: func(done, total int) { last.Store(int32(done)) },
	})
	if err != nil {
		t.Fatalf("BuildWithImages returned error: %v", err)
	}
	if last.Load() != 6 {
		t.Fatalf("last progress = %d, want 6", last.Load())
	}
	if _, peak := api.snapshot(); peak > DefaultConcurrency {
		t.Fatalf("peak concurrent uploads = %d, want <= %d", peak, DefaultConcurrency)
	}
}

func TestBuildImages_UploadsGivenListWithoutRescanning(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png")
	writeImage(t, dir, "b.png")

	images, err := FindImages(dir)
	if err != nil {
		t.Fatalf("FindImages returned error: %v", err)
	}
	writeImage(t, dir, "late.png")

	api := &fakeAPI{}
	c := newTestClient(t, api)

	var totals []int
	_, err = c.BuildImages(context.Background(), folderParams, images, UploadOptions{
		Concurrency: 1,
		Progress:    func(done, total int) { totals = append(totals, total) },
	})
	if err != nil {
		t.Fatalf("BuildImages returned error: %v", err)
	}
	if diff := cmp.Diff([]int{2, 2}, totals); diff != "" {
		t.Fatalf("progress totals mismatch (-want +got):\n%s", diff)
	}
	if api.count("upload late") != 0 || api.count("upload") != 2 {
		events, _ := api.snapshot()
		t.Fatalf("events = %v, want only the listed images uploaded", events)
	}
}

func TestBuildImages_EmptyListSendsNothing(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	_, err := c.BuildImages(context.Background(), folderParams, nil, UploadOptions{})
	if !errors.Is(err, ErrNoImages) {
		t.Fatalf("BuildImages error = %v, want ErrNoImages", err)
	}
	if events, _ := api.snapshot(); len(events) != 0 {
		t.Fatalf("events = %v, want none", events)
	}
}

func TestBuildFolder_NoImagesSendsNothing(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	_, err := c.BuildFolder(context.Background(), folderParams, t.TempDir(), UploadOptions{})
	if !errors.Is(err, ErrNoImages) {
		t.Fatalf("BuildFolder error = %v, want ErrNoImages", err)
	}
	if events, _ := api.snapshot(); len(events) != 0 {
		t.Fatalf("events = %v, want none", events)
	}
}

func TestBuildFolder_CreateFailureSkipsUploads(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png")

	api := &fakeAPI{createStatus: http.StatusBadRequest}
	c := newTestClient(t, api)

	_, err := c.BuildFolder(context.Background(), folderParams, dir, UploadOptions{})
	if StatusCode(err) != http.StatusBadRequest || !strings.Contains(err.Error(), "400") {
		t.Fatalf("BuildFolder error = %v, want status 400", err)
	}
	if api.count("upload") != 0 || api.count("finish") != 0 {
		t.Fatalf("upload or finish called after create failed")
	}
}

func TestBuildFolder_UploadFailureLeavesBuildUnfinished(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png")
	writeImage(t, dir, "b.png")

	api := &fakeAPI{uploadStatus: http.StatusBadGateway}
	c := newTestClient(t, api)

	var progressCalls atomic.Int32
	_, err := c.BuildFolder(context.Background(), folderParams, dir, UploadOptions{
		Concurrency: 1,
		Progress:    func(int, int) { progressCalls.Add(1) },
	})
	if StatusCode(err) != http.StatusBadGateway {
		t.Fatalf("BuildFolder error = %v, want 502", err)
	}
	if !strings.Contains(err.Error(), "upload image a") {
		t.Fatalf("error = %q, want it to name image a", err.Error())
	}
	// One image, three attempts; the second image is never dispatched.
	if got := api.count("upload"); got != 3 {
		t.Fatalf("upload attempts = %d, want 3", got)
	}
	if api.count("finish") != 0 {
		t.Fatalf("finish called after failed upload")
	}
	if progressCalls.Load() != 0 {
		t.Fatalf("progress calls = %d, want 0", progressCalls.Load())
	}
}

func TestBuildFolder_FailureLetsInFlightUploadsFinish(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png")
	writeImage(t, dir, "b.png")
	writeImage(t, dir, "c.png")

	api := &fakeAPI{
		failStatus: map[string]int{"a": http.StatusBadRequest},
		delays:     map[string]time.Duration{"b": 100 * time.Millisecond},
	}
	c := newTestClient(t, api)

	var (
		mu       sync.Mutex
		progress []int
	)
	_, err := c.BuildFolder(context.Background(), folderParams, dir, UploadOptions{
		Concurrency: 2,
		Progress: func(done, _ int) {
			mu.Lock()
			defer mu.Unlock()
			progress = append(progress, done)
		},
	})
	if StatusCode(err) != http.StatusBadRequest || !strings.Contains(err.Error(), "upload image a") {
		t.Fatalf("BuildFolder error = %v, want 400 for image a", err)
	}

	events, _ := api.snapshot()
	if api.count("done b") != 1 {
		t.Fatalf("events = %v, want b to complete after a failed", events)
	}
	if api.count("upload c") != 0 {
		t.Fatalf("events = %v, want c never sent", events)
	}
	if api.count("finish") != 0 {
		t.Fatalf("events = %v, want no finish", events)
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]int{1}, progress); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFolder_MissingProjectID(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png")

	api := &fakeAPI{}
	c := newTestClient(t, api)

	_, err := c.BuildFolder(context.Background(), BuildParams{Branch: "main"}, dir, UploadOptions{})
	var missing *MissingParamError
	if !errors.As(err, &missing) || missing.Name != "projectID" {
		t.Fatalf("BuildFolder error = %v, want missing projectID", err)
	}
	if events, _ := api.snapshot(); len(events) != 0 {
		t.Fatalf("events = %v, want none", events)
	}
}
