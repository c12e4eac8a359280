package apitest

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

func (s *Server) getAccount(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.account)
}

func (s *Server) getWebhooks(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string][]Webhook{"webhooks": nonNil(s.webhooks)})
}

func (s *Server) createWebhook(c echo.Context) error {
	var hook Webhook
	if err := c.Bind(&hook); err != nil {
		return err
	}
	if err := c.Validate(&hook); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	hook.ID = s.newID("webhook")
	hook.CreatedAt = s.timestamp()
	s.webhooks = append(s.webhooks, hook)
	return c.JSON(http.StatusOK, hook)
}

func (s *Server) getProjects(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string][]Project{"projects": nonNil(s.projects)})
}

func (s *Server) createProject(c echo.Context) error {
	var project Project
	if err := c.Bind(&project); err != nil {
		return err
	}
	if err := c.Validate(&project); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	project.ID = s.newID("project")
	s.projects = append(s.projects, project)
	return c.JSON(http.StatusOK, project)
}

func (s *Server) hasProject(id string) bool {
	for _, p := range s.projects {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s *Server) getNotifications(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if !s.hasProject(id) {
		return errorJSON(c, http.StatusNotFound, "project not found")
	}
	return c.JSON(http.StatusOK, s.notifications[id])
}

func (s *Server) updateNotifications(c echo.Context) error {
	var settings Notifications
	if err := c.Bind(&settings); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if !s.hasProject(id) {
		return errorJSON(c, http.StatusNotFound, "project not found")
	}
	s.notifications[id] = settings
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) getBuilds(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if !s.hasProject(id) {
		return errorJSON(c, http.StatusNotFound, "project not found")
	}
	builds := []Build{}
	for _, buildID := range s.buildOrder {
		if b := s.builds[buildID]; b.ProjectID == id {
			builds = append(builds, *b)
		}
	}
	return c.JSON(http.StatusOK, map[string][]Build{"builds": builds})
}

func (s *Server) createBuild(c echo.Context) error {
	var body struct {
		ProjectID string `json:"projectID"`
		Branch    string `json:"branch"`
		Name      string `json:"name"`
		Revision  string `json:"revision"`
	}
	if err := c.Bind(&body); err != nil {
		return err
	}
	if body.ProjectID != "" {
		return errorJSON(c, http.StatusBadRequest, "projectID is not accepted in the body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	projectID := c.Param("id")
	if !s.hasProject(projectID) {
		return errorJSON(c, http.StatusNotFound, "project not found")
	}
	build := &Build{
		ID:        s.newID("build"),
		ProjectID: projectID,
		Branch:    body.Branch,
		Name:      body.Name,
		Revision:  body.Revision,
		CreatedAt: s.timestamp(),
	}
	s.builds[build.ID] = build
	s.buildOrder = append(s.buildOrder, build.ID)
	return c.JSON(http.StatusOK, build)
}

// openBuild returns the build for id when it still accepts images. The
// caller holds s.mu.
func (s *Server) openBuild(c echo.Context) (*Build, error) {
	build, ok := s.builds[c.Param("id")]
	if !ok {
		return nil, errorJSON(c, http.StatusNotFound, "build not found")
	}
	if build.Finished {
		return nil, errorJSON(c, http.StatusConflict, "build already finished")
	}
	return build, nil
}

func (s *Server) getImages(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	build, ok := s.builds[c.Param("id")]
	if !ok {
		return errorJSON(c, http.StatusNotFound, "build not found")
	}
	return c.JSON(http.StatusOK, map[string][]Image{"images": nonNil(build.Images)})
}

func (s *Server) createImage(c echo.Context) error {
	s.mu.Lock()
	s.uploading++
	s.peakUploads = max(s.peakUploads, s.uploading)
	delay := s.uploadDelay
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.uploading--
		s.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
	}

	name := c.FormValue("name")
	if name == "" {
		return errorJSON(c, http.StatusBadRequest, "missing image name")
	}
	file, err := c.FormFile("image")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "missing image file")
	}
	src, err := file.Open()
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "failed to open uploaded file")
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "failed to read uploaded file")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	build, herr := s.openBuild(c)
	if build == nil {
		return herr
	}
	image := Image{
		Name:        name,
		OriginalURL: s.URL + "/files/" + build.ID + "/" + name + ".png",
		ThumbURL:    s.URL + "/files/" + build.ID + "/" + name + "-thumb.png",
		Size:        len(data),
		Filename:    file.Filename,
	}
	build.Images = append(build.Images, image)
	return c.JSON(http.StatusOK, image)
}

func (s *Server) finishBuild(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	build, herr := s.openBuild(c)
	if build == nil {
		return herr
	}
	build.Finished = true
	return c.NoContent(http.StatusOK)
}

func (s *Server) getResults(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	build, ok := s.builds[c.Param("id")]
	if !ok {
		return errorJSON(c, http.StatusNotFound, "build not found")
	}

	type imageResult struct {
		Name           string  `json:"name"`
		Status         string  `json:"status"`
		DiffPercentage float64 `json:"diffPercentage"`
	}
	status := "pending"
	if build.Finished {
		status = "completed"
	}
	images := make([]imageResult, 0, len(build.Images))
	for _, img := range build.Images {
		images = append(images, imageResult{Name: img.Name, Status: "unchanged"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":        build.ID,
		"status":    status,
		"diffCount": 0,
		"images":    images,
	})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
