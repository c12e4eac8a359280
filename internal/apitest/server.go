package apitest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Account mirrors GET /account.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Webhook mirrors a webhook resource.
type Webhook struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	URL       string `json:"url" validate:"required,url"`
	CreatedAt string `json:"createdAt"`
}

// Project mirrors a project resource.
type Project struct {
	ID             string `json:"id"`
	Name           string `json:"name" validate:"required"`
	URL            string `json:"url,omitempty"`
	BaselineBranch string `json:"baselineBranch,omitempty"`
}

// Notifications mirrors the per-project notification settings.
type Notifications struct {
	EmailEnabled bool   `json:"emailEnabled"`
	SlackEnabled bool   `json:"slackEnabled"`
	SlackURL     string `json:"slackURL"`
}

// Build is the server-side view of a build.
type Build struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"projectID"`
	Branch    string  `json:"branch"`
	Name      string  `json:"name"`
	Revision  string  `json:"revision"`
	CreatedAt string  `json:"createdAt"`
	Images    []Image `json:"-"`
	Finished  bool    `json:"-"`
}

// Image is an uploaded screenshot.
type Image struct {
	Name        string `json:"name"`
	OriginalURL string `json:"originalURL"`
	ThumbURL    string `json:"thumbURL"`
	Size        int    `json:"-"`
	Filename    string `json:"-"`
}

// Request is one request observed by the server.
type Request struct {
	Method string
	Path   string
	Status int
}

// Server is an in-memory implementation of the VisWiz REST API backed by
// echo. The zero value is not usable; call New.
type Server struct {
	URL    string
	APIKey string

	httpServer *httptest.Server

	mu            sync.Mutex
	account       Account
	webhooks      []Webhook
	projects      []Project
	notifications map[string]Notifications
	builds        map[string]*Build
	buildOrder    []string
	requests      []Request
	failures      map[string][]int
	uploadDelay   time.Duration
	uploading     int
	peakUploads   int
	nextID        int
	now           func() time.Time
}

// New starts a fake API that accepts apiKey as its only bearer token. The
// server is closed when the test ends.
func New(t interface {
	Helper()
	Cleanup(func())
}, apiKey string) *Server {
	t.Helper()

	s := &Server{
		APIKey:        apiKey,
		account:       Account{ID: "account-1", Email: "test@viswiz.io"},
		notifications: make(map[string]Notifications),
		builds:        make(map[string]*Build),
		failures:      make(map[string][]int),
		now:           time.Now,
	}
	s.httpServer = httptest.NewServer(s.handler())
	s.URL = s.httpServer.URL
	t.Cleanup(s.httpServer.Close)
	return s
}

type echoValidator struct {
	validator *validator.Validate
}

func (v *echoValidator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request body: %v", err))
	}
	return nil
}

func (s *Server) handler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetOutput(io.Discard)
	e.Validator = &echoValidator{validator: validator.New()}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.requests = append(s.requests, Request{Method: v.Method, Path: v.URIPath, Status: v.Status})
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(key string, c echo.Context) (bool, error) {
			return key == s.APIKey, nil
		},
	}))
	e.Use(s.injectFailures)

	s.setRoutes(e)
	return e
}

func (s *Server) setRoutes(e *echo.Echo) {
	e.GET("/account", s.getAccount)
	e.GET("/webhooks", s.getWebhooks)
	e.POST("/webhooks", s.createWebhook)
	e.GET("/projects", s.getProjects)
	e.POST("/projects", s.createProject)
	e.GET("/projects/:id/notifications", s.getNotifications)
	e.PUT("/projects/:id/notifications", s.updateNotifications)
	e.GET("/projects/:id/builds", s.getBuilds)
	e.POST("/projects/:id/builds", s.createBuild)
	e.GET("/builds/:id/images", s.getImages)
	e.POST("/builds/:id/images", s.createImage)
	e.POST("/builds/:id/finish", s.finishBuild)
	e.GET("/builds/:id/results", s.getResults)
}

// FailNext makes the next len(statuses) requests matching method and route
// (for example "POST", "/builds/:id/images") answer with those statuses.
func (s *Server) FailNext(method, route string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + route
	s.failures[key] = append(s.failures[key], statuses...)
}

func (s *Server) injectFailures(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Method + " " + c.Path()

		s.mu.Lock()
		queued := s.failures[key]
		status := 0
		if len(queued) > 0 {
			status = queued[0]
			s.failures[key] = queued[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			return c.JSON(status, map[string]string{"error": http.StatusText(status)})
		}
		return next(c)
	}
}

// SetUploadDelay makes every image upload take at least d.
func (s *Server) SetUploadDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadDelay = d
}

// AddProject seeds a project.
func (s *Server) AddProject(p Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, p)
}

// AddBuild seeds a finished build for a project.
func (s *Server) AddBuild(b Build) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup := b
	s.builds[b.ID] = &dup
	s.buildOrder = append(s.buildOrder, b.ID)
}

// Build returns a copy of the stored build.
func (s *Server) Build(id string) (Build, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.builds[id]
	if !ok {
		return Build{}, false
	}
	dup := *b
	dup.Images = append([]Image(nil), b.Images...)
	return dup, true
}

// Requests returns the requests handled so far, in completion order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests returns how many requests used method and path.
func (s *Server) CountRequests(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// PeakUploads returns the highest number of simultaneous image uploads.
func (s *Server) PeakUploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peakUploads
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
