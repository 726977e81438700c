// Package gitlabtest runs an in-process fake of the two GitLab REST v4
// endpoints gitlab-util talks to. It records every call in arrival order
// and can answer a chosen call with a canned status and body.
package gitlabtest

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/redhat-data-and-ai/gitlab-util/internal/gitlab"
)

// Call is one request received by the fake
type Call struct {
	Method string
	// RawPath is the request URI exactly as sent, escapes included
	RawPath       string
	Authorization string
	Body          []byte
}

type cannedResponse struct {
	status int
	body   string
}

// Server is a fake GitLab instance
type Server struct {
	URL string

	app *fiber.App

	mu        sync.Mutex
	token     string
	calls     []Call
	projects  map[string]gitlab.Project
	byID      map[int]gitlab.Project
	canned    map[int]cannedResponse
	nextMR    int
	mrsByProj map[int]int
}

// NewServer starts a fake on a random local port and stops it when the test ends
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		projects:  make(map[string]gitlab.Project),
		byID:      make(map[int]gitlab.Project),
		canned:    make(map[int]cannedResponse),
		nextMR:    1000,
		mrsByProj: make(map[int]int),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "fake-gitlab",
		DisableStartupMessage: true,
		// recorded calls outlive the request, so strings must not alias fasthttp buffers
		Immutable: true,
	})
	s.app.Use(s.record)
	s.app.Get("/api/v4/projects/:project", s.handleGetProject)
	s.app.Post("/api/v4/projects/:id/merge_requests", s.handleCreateMergeRequest)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("fake gitlab: listen: %v", err)
	}
	s.URL = "http://" + ln.Addr().String()

	go func() { _ = s.app.Listener(ln) }()
	t.Cleanup(func() { _ = s.app.Shutdown() })

	return s
}

// RequireToken makes the fake reject requests without "Bearer <token>"
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// AddProject registers a project reachable by its namespaced path
func (s *Server) AddProject(id int, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := path[strings.LastIndex(path, "/")+1:]
	project := gitlab.Project{
		ID:                   id,
		Name:                 name,
		Path:                 name,
		PathWithNamespace:    path,
		DefaultBranch:        "main",
		WebURL:               s.URL + "/" + path,
		Visibility:           "private",
		MergeRequestsEnabled: true,
	}
	s.projects[path] = project
	s.byID[id] = project
}

// RespondOnCall answers the n-th call (1-based, counting every request) with
// status and body instead of the normal behavior
func (s *Server) RespondOnCall(n, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canned[n] = cannedResponse{status: status, body: body}
}

// Calls returns a copy of the calls received so far
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]Call, len(s.calls))
	copy(calls, s.calls)
	return calls
}

func (s *Server) record(c *fiber.Ctx) error {
	s.mu.Lock()
	// Immutable does not cover the body
	body := append([]byte(nil), c.Body()...)
	s.calls = append(s.calls, Call{
		Method:        c.Method(),
		RawPath:       c.OriginalURL(),
		Authorization: c.Get(fiber.HeaderAuthorization),
		Body:          body,
	})
	n := len(s.calls)
	canned, hasCanned := s.canned[n]
	token := s.token
	s.mu.Unlock()

	if hasCanned {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(canned.status).SendString(canned.body)
	}

	if token != "" && c.Get(fiber.HeaderAuthorization) != "Bearer "+token {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "401 Unauthorized"})
	}

	return c.Next()
}

func (s *Server) handleGetProject(c *fiber.Ctx) error {
	path, err := url.PathUnescape(c.Params("project"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.mu.Lock()
	project, ok := s.projects[path]
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "404 Project Not Found"})
	}
	return c.JSON(project)
}

func (s *Server) handleCreateMergeRequest(c *fiber.Ctx) error {
	projectID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "404 Project Not Found"})
	}

	var req gitlab.CreateMergeRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.byID[projectID]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "404 Project Not Found"})
	}
	if req.SourceBranch == "" || req.TargetBranch == "" || req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "source_branch, target_branch, title are required"})
	}

	s.nextMR++
	s.mrsByProj[projectID]++
	iid := s.mrsByProj[projectID]

	return c.Status(fiber.StatusCreated).JSON(gitlab.MergeRequest{
		ID:           s.nextMR,
		IID:          iid,
		ProjectID:    projectID,
		Title:        req.Title,
		Description:  req.Description,
		State:        "opened",
		SourceBranch: req.SourceBranch,
		TargetBranch: req.TargetBranch,
		WebURL:       fmt.Sprintf("%s/-/merge_requests/%d", project.WebURL, iid),
	})
}
