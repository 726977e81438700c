package gitlab_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redhat-data-and-ai/gitlab-util/internal/config"
	apperrors "github.com/redhat-data-and-ai/gitlab-util/internal/errors"
	"github.com/redhat-data-and-ai/gitlab-util/internal/gitlab"
	"github.com/redhat-data-and-ai/gitlab-util/internal/gitlab/gitlabtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_AgainstFakeGitLab(t *testing.T) {
	fake := gitlabtest.NewServer(t)
	fake.RequireToken("glpat-test")
	fake.AddProject(77, "platform/payments/api")

	client, err := gitlab.NewClient(config.GitLabConfig{
		BaseURL: fake.URL,
		Token:   "glpat-test",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	ctx := context.Background()

	project, err := client.GetProjectByPath(ctx, "platform/payments/api")
	require.NoError(t, err)
	assert.Equal(t, 77, project.ID)

	mr, err := client.CreateMergeRequest(ctx, gitlab.CreateMergeRequestRequest{
		ID:           project.ID,
		SourceBranch: "feature/refunds",
		TargetBranch: "uat",
		Title:        "[PAY-9][uat] refunds",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, mr.IID)
	assert.Equal(t, fake.URL+"/platform/payments/api/-/merge_requests/1", mr.WebURL)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "GET", calls[0].Method)
	assert.Equal(t, "/api/v4/projects/platform%2Fpayments%2Fapi", calls[0].RawPath)
	assert.Equal(t, "Bearer glpat-test", calls[0].Authorization)
	assert.Equal(t, "POST", calls[1].Method)
	assert.Equal(t, "/api/v4/projects/77/merge_requests", calls[1].RawPath)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(calls[1].Body, &sent))
	assert.Equal(t, "[PAY-9][uat] refunds", sent["title"])
	assert.Equal(t, float64(77), sent["id"])
}

func TestClient_FakeGitLabRejectsWrongToken(t *testing.T) {
	fake := gitlabtest.NewServer(t)
	fake.RequireToken("right")
	fake.AddProject(1, "group/repo")

	client, err := gitlab.NewClient(config.GitLabConfig{BaseURL: fake.URL, Token: "wrong"})
	require.NoError(t, err)

	_, err = client.GetProjectByPath(context.Background(), "group/repo")

	apiErr, ok := apperrors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, apperrors.ErrGitLabAuth, apiErr.Code())
}
