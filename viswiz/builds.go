package viswiz

import (
	"context"
	"net/http"
)

// GetBuilds lists the builds of a project.
func (c *Client) GetBuilds(ctx context.Context, projectID string) ([]Build, error) {
	if err := requireString("projectID", projectID); err != nil {
		return nil, err
	}
	var payload buildList
	req := request{method: http.MethodGet, path: resourcePath("projects", projectID, "builds")}
	if err := c.do(ctx, req, &payload); err != nil {
		return nil, err
	}
	return payload.Builds, nil
}

// CreateBuild opens a new build for params.ProjectID. The build accepts
// images until FinishBuild is called.
func (c *Client) CreateBuild(ctx context.Context, params BuildParams) (*Build, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	var payload Build
	req := request{
		method: http.MethodPost,
		path:   resourcePath("projects", params.ProjectID, "builds"),
		body:   params.body(),
	}
	if err := c.do(ctx, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FinishBuild marks a build complete, which starts the comparison against
// the project baseline.
func (c *Client) FinishBuild(ctx context.Context, buildID string) error {
	if err := requireString("buildID", buildID); err != nil {
		return err
	}
	req := request{method: http.MethodPost, path: resourcePath("builds", buildID, "finish")}
	return c.do(ctx, req, nil)
}

// GetBuildResults retrieves the comparison results of a finished build.
func (c *Client) GetBuildResults(ctx context.Context, buildID string) (*BuildResults, error) {
	if err := requireString("buildID", buildID); err != nil {
		return nil, err
	}
	var payload BuildResults
	req := request{method: http.MethodGet, path: resourcePath("builds", buildID, "results")}
	if err := c.do(ctx, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
