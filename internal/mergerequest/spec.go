package mergerequest

import (
	"strings"

	apperrors "github.com/redhat-data-and-ai/gitlab-util/internal/errors"
)

// MaxTitleLength is GitLab's limit on merge request titles
const MaxTitleLength = 255

// Spec is one validated request: a repository, a source branch, the target
// branches to open merge requests against (in processing order), the title
// and description, and ticket ids for the title prefix.
// Build it with NewSpec; nothing in this package modifies a Spec afterwards.
type Spec struct {
	Repository     string
	SourceBranch   string
	TargetBranches []string
	Title          string
	Description    string
	TicketIDs      []string
}

// NewSpec trims and validates its input. Target branches must all be
// non-blank; blank ticket ids are dropped. The slices are copied.
func NewSpec(repository, sourceBranch string, targetBranches []string, title, description string, ticketIDs []string) (Spec, error) {
	spec := Spec{
		Repository:     strings.TrimSpace(repository),
		SourceBranch:   strings.TrimSpace(sourceBranch),
		TargetBranches: trimAll(targetBranches),
		Title:          strings.TrimSpace(title),
		Description:    description,
		TicketIDs:      dropBlank(trimAll(ticketIDs)),
	}

	v := apperrors.NewValidator().
		RequiredField("repository", spec.Repository).
		ValidateProjectPath("repository", spec.Repository).
		RequiredField("source_branch", spec.SourceBranch).
		ValidateGitBranchName("source_branch", spec.SourceBranch).
		RequiredList("target_branches", spec.TargetBranches).
		NoBlankItems("target_branches", spec.TargetBranches).
		RequiredField("title", spec.Title).
		MaxLength("title", spec.Title, MaxTitleLength)

	for _, branch := range spec.TargetBranches {
		v.ValidateGitBranchName("target_branches", branch)
	}

	if appErr := v.ToAppError(); appErr != nil {
		return Spec{}, appErr
	}
	return spec, nil
}

func trimAll(values []string) []string {
	result := make([]string, len(values))
	for i, value := range values {
		result[i] = strings.TrimSpace(value)
	}
	return result
}

func dropBlank(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value != "" {
			result = append(result, value)
		}
	}
	return result
}
