package mergerequest

import (
	"context"

	"github.com/redhat-data-and-ai/gitlab-util/internal/gitlab"
)

// ProjectRef identifies a resolved GitLab project
type ProjectRef struct {
	ID   int
	Path string
}

// Result is one created merge request
type Result struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

// Manager adapts GitLab API shapes to ProjectRef and Result
type Manager struct {
	client gitlab.GitLabClient
}

// NewManager creates a manager over any GitLabClient
func NewManager(client gitlab.GitLabClient) *Manager {
	return &Manager{client: client}
}

// ResolveProject maps a namespaced repository path to its project id.
// Errors are the client's *errors.APIError with Op == OpLookup.
func (m *Manager) ResolveProject(ctx context.Context, repositoryPath string) (ProjectRef, error) {
	project, err := m.client.GetProjectByPath(ctx, repositoryPath)
	if err != nil {
		return ProjectRef{}, err
	}

	path := project.PathWithNamespace
	if path == "" {
		path = repositoryPath
	}
	return ProjectRef{ID: project.ID, Path: path}, nil
}

// SubmitMergeRequest creates one merge request.
// Errors are the client's *errors.APIError with Op == OpSubmit.
func (m *Manager) SubmitMergeRequest(ctx context.Context, projectID int, sourceBranch, targetBranch, title, description string) (Result, error) {
	mr, err := m.client.CreateMergeRequest(ctx, gitlab.CreateMergeRequestRequest{
		ID:           projectID,
		SourceBranch: sourceBranch,
		TargetBranch: targetBranch,
		Title:        title,
		Description:  description,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{ID: mr.ID, Link: mr.WebURL}, nil
}
