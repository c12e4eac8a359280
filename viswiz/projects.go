package viswiz

import (
	"context"
	"fmt"
	"net/http"
)

// GetProjects lists all projects for the account.
func (c *Client) GetProjects(ctx context.Context) ([]Project, error) {
	var payload projectList
	if err := c.do(ctx, request{method: http.MethodGet, path: "/projects"}, &payload); err != nil {
		return nil, err
	}
	return payload.Projects, nil
}

// GetProject looks a project up by id. The API has no single-project
// endpoint, so the full list is fetched and searched.
func (c *Client) GetProject(ctx context.Context, projectID string) (*Project, error) {
	if err := requireString("projectID", projectID); err != nil {
		return nil, err
	}
	projects, err := c.GetProjects(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].ID == projectID {
			return &projects[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
}

// CreateProject creates a new project for the account.
func (c *Client) CreateProject(ctx context.Context, params *ProjectParams) (*Project, error) {
	if params == nil {
		return nil, missingParam("params")
	}
	var payload Project
	req := request{method: http.MethodPost, path: "/projects", body: params}
	if err := c.do(ctx, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetProjectNotifications retrieves the notification settings of a project.
func (c *Client) GetProjectNotifications(ctx context.Context, projectID string) (*Notifications, error) {
	if err := requireString("projectID", projectID); err != nil {
		return nil, err
	}
	var payload Notifications
	req := request{method: http.MethodGet, path: resourcePath("projects", projectID, "notifications")}
	if err := c.do(ctx, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// UpdateProjectNotifications replaces the notification settings of a project
// and returns the stored result.
func (c *Client) UpdateProjectNotifications(ctx context.Context, projectID string, params *Notifications) (*Notifications, error) {
	if err := requireString("projectID", projectID); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, missingParam("params")
	}
	var payload Notifications
	req := request{
		method: http.MethodPut,
		path:   resourcePath("projects", projectID, "notifications"),
		body:   params,
	}
	if err := c.do(ctx, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
