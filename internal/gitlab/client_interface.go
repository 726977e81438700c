package gitlab

import "context"

// GitLabClient is an interface for GitLab API operations
// This interface allows for easy mocking in tests
type GitLabClient interface {
	// GetProjectByPath looks a project up by its namespaced path, e.g. group/subgroup/repo
	GetProjectByPath(ctx context.Context, path string) (*Project, error)

	// CreateMergeRequest opens a merge request in the project named by req.ID
	CreateMergeRequest(ctx context.Context, req CreateMergeRequestRequest) (*MergeRequest, error)
}

// Verify that Client implements GitLabClient interface
var _ GitLabClient = (*Client)(nil)
