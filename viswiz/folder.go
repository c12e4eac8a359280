package viswiz

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of simultaneous uploads used by
// BuildFolder when UploadOptions.Concurrency is not set.
const DefaultConcurrency = 4

// ProgressFunc is called after each successful upload with the number of
// completed uploads and the total. Calls are serialized and completed grows
// by exactly one per call.
type ProgressFunc func(completed, total int)

// UploadOptions tunes BuildFolder.
type UploadOptions struct {
	Progress    ProgressFunc
	Concurrency int
}

// ImageFile is a discovered image and the logical name it is uploaded under.
type ImageFile struct {
	Name string
	Path string
}

// BuildFolder creates a build, uploads every PNG found under folder
// (recursively) and finishes the build. It returns the new build id.
//
// Uploads run with at most opts.Concurrency requests in flight. The first
// upload that fails after its retries stops further dispatch; uploads already
// in flight complete, the build is left unfinished and that error is
// returned.
func (c *Client) BuildFolder(ctx context.Context, params BuildParams, folder string, opts UploadOptions) (string, error) {
	images, err := FindImages(folder)
	if err != nil {
		return "", err
	}
	return c.BuildImages(ctx, params, images, opts)
}

// BuildImages is BuildFolder for an image list already returned by
// FindImages, so callers that need the total up front scan only once.
func (c *Client) BuildImages(ctx context.Context, params BuildParams, images []ImageFile, opts UploadOptions) (string, error) {
	if len(images) == 0 {
		return "", ErrNoImages
	}

	build, err := c.CreateBuild(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create build: %w", err)
	}
	c.logger.Debug("build created", "build", build.ID, "images", len(images))

	if err := c.uploadImages(ctx, build.ID, images, opts); err != nil {
		return "", err
	}

	if err := c.FinishBuild(ctx, build.ID); err != nil {
		return "", fmt.Errorf("finish build: %w", err)
	}
	c.logger.Debug("build finished", "build", build.ID)

	return build.ID, nil
}

// BuildWithImages is an alias for BuildFolder.
func (c *Client) BuildWithImages(ctx context.Context, params BuildParams, folder string, opts UploadOptions) (string, error) {
	return c.BuildFolder(ctx, params, folder, opts)
}

func (c *Client) uploadImages(ctx context.Context, buildID string, images []ImageFile, opts UploadOptions) error {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	total := len(images)
	var (
		mu        sync.Mutex
		completed int
	)
	done := func() {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if opts.Progress != nil {
			opts.Progress(completed, total)
		}
	}

	// Uploads use ctx rather than the group context so a failure elsewhere
	// does not cancel requests already in flight.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, img := range images {
		// Go blocks while limit uploads are running; gctx is cancelled as
		// soon as one of them fails.
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if _, err := c.CreateImage(ctx, buildID, img.Name, img.Path); err != nil {
				return fmt.Errorf("upload image %s: %w", img.Name, err)
			}
			done()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// Dispatch may have stopped early because the caller cancelled ctx.
	return ctx.Err()
}

// FindImages resolves folder to an absolute path and returns every *.png
// file beneath it (extension matched case-insensitively) in lexical walk
// order. Hidden files and directories are skipped. ErrNoImages is returned
// when nothing matches.
func FindImages(folder string) ([]ImageFile, error) {
	root, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("resolve image directory: %w", err)
	}

	var images []ImageFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isPNG(path) {
			return nil
		}
		name, err := ImageName(root, path)
		if err != nil {
			return err
		}
		images = append(images, ImageFile{Name: name, Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan image directory: %w", err)
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return images, nil
}

// ImageName derives the logical image name for path relative to root:
// forward slashes on every platform and no extension, so
// root/subfolder/icon.png becomes "subfolder/icon".
func ImageName(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("image name for %s: %w", path, err)
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel)), nil
}

func isPNG(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".png")
}
