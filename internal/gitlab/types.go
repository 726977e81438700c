package gitlab

// Project represents the parts of the GitLab project descriptor this tool reads
type Project struct {
	ID                   int    `json:"id"`
	Name                 string `json:"name"`
	NameWithNamespace    string `json:"name_with_namespace"`
	Path                 string `json:"path"`
	PathWithNamespace    string `json:"path_with_namespace"`
	DefaultBranch        string `json:"default_branch"`
	WebURL               string `json:"web_url"`
	Visibility           string `json:"visibility"`
	Archived             bool   `json:"archived"`
	MergeRequestsEnabled bool   `json:"merge_requests_enabled"`
}

// MergeRequest represents the GitLab merge request returned on creation
type MergeRequest struct {
	ID           int    `json:"id"`
	IID          int    `json:"iid"`
	ProjectID    int    `json:"project_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	State        string `json:"state"`
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
	WebURL       string `json:"web_url"`
}

// CreateMergeRequestRequest is the JSON body of POST /projects/:id/merge_requests
type CreateMergeRequestRequest struct {
	ID           int    `json:"id"`
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
	Title        string `json:"title"`
	Description  string `json:"description"`
}
