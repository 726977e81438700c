package mergerequest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/redhat-data-and-ai/gitlab-util/internal/errors"
	"github.com/redhat-data-and-ai/gitlab-util/internal/gitlab"
	"github.com/redhat-data-and-ai/gitlab-util/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Verify that fakeClient implements GitLabClient interface
var _ gitlab.GitLabClient = (*fakeClient)(nil)

// fakeClient records calls in order and fails the n-th one (1-based) when asked
type fakeClient struct {
	projectID int
	failOn    map[int]error
	calls     []string
	created   []gitlab.CreateMergeRequestRequest
}

func newFakeClient(projectID int) *fakeClient {
	return &fakeClient{projectID: projectID, failOn: map[int]error{}}
}

func (f *fakeClient) next(call string) error {
	f.calls = append(f.calls, call)
	return f.failOn[len(f.calls)]
}

func (f *fakeClient) GetProjectByPath(ctx context.Context, path string) (*gitlab.Project, error) {
	if err := f.next("lookup " + path); err != nil {
		return nil, err
	}
	return &gitlab.Project{ID: f.projectID, PathWithNamespace: path}, nil
}

func (f *fakeClient) CreateMergeRequest(ctx context.Context, req gitlab.CreateMergeRequestRequest) (*gitlab.MergeRequest, error) {
	if err := f.next("submit " + req.TargetBranch); err != nil {
		return nil, err
	}
	f.created = append(f.created, req)
	id := 500 + len(f.created)
	return &gitlab.MergeRequest{
		ID:           id,
		IID:          len(f.created),
		TargetBranch: req.TargetBranch,
		WebURL:       fmt.Sprintf("https://gitlab.example.com/group/repo/-/merge_requests/%d", len(f.created)),
	}, nil
}

func testSpec(t *testing.T, targets ...string) Spec {
	t.Helper()
	spec, err := NewSpec("group/repo", "feature/login", targets, "test MR", "adds login", []string{"ES-123", "ES-234"})
	require.NoError(t, err)
	return spec
}

type recordingReporter struct {
	outcomes []BranchOutcome
	err      error
}

func (r *recordingReporter) Report(outcome BranchOutcome) error {
	r.outcomes = append(r.outcomes, outcome)
	return r.err
}

func TestCreateAll_Success(t *testing.T) {
	client := newFakeClient(42)
	reporter := &recordingReporter{}
	orchestrator := NewOrchestrator(NewManager(client), reporter, Options{})

	batch, err := orchestrator.CreateAll(context.Background(), testSpec(t, "uat", "prod", "dev"))

	require.NoError(t, err)
	// one lookup and one submit per branch, in branch order
	assert.Equal(t, []string{
		"lookup group/repo", "submit uat",
		"lookup group/repo", "submit prod",
		"lookup group/repo", "submit dev",
	}, client.calls)

	require.Len(t, client.created, 3)
	assert.Equal(t, gitlab.CreateMergeRequestRequest{
		ID:           42,
		SourceBranch: "feature/login",
		TargetBranch: "uat",
		Title:        "[ES-123][ES-234][uat] test MR",
		Description:  "adds login",
	}, client.created[0])
	assert.Equal(t, "[ES-123][ES-234][prod] test MR", client.created[1].Title)

	assert.Equal(t, []Result{
		{ID: 501, Link: "https://gitlab.example.com/group/repo/-/merge_requests/1"},
		{ID: 502, Link: "https://gitlab.example.com/group/repo/-/merge_requests/2"},
		{ID: 503, Link: "https://gitlab.example.com/group/repo/-/merge_requests/3"},
	}, batch.Results())
	assert.Len(t, reporter.outcomes, 3)
	assert.Empty(t, batch.Failed())
	assert.NoError(t, batch.Err())
}

func TestCreateAll_FailFast(t *testing.T) {
	statusErr := apperrors.NewStatusError(apperrors.OpSubmit, "POST",
		"https://gitlab.example.com/api/v4/projects/42/merge_requests", 409, "conflict")

	tests := []struct {
		name          string
		failingCall   int
		expectedCalls []string
		skipped       []string
	}{
		{
			name:          "lookup fails on first branch",
			failingCall:   1,
			expectedCalls: []string{"lookup group/repo"},
			skipped:       []string{"prod", "dev"},
		},
		{
			name:          "submit fails on second branch",
			failingCall:   4,
			expectedCalls: []string{"lookup group/repo", "submit uat", "lookup group/repo", "submit prod"},
			skipped:       []string{"dev"},
		},
		{
			name:          "last branch fails",
			failingCall:   6,
			expectedCalls: []string{"lookup group/repo", "submit uat", "lookup group/repo", "submit prod", "lookup group/repo", "submit dev"},
			skipped:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient(42)
			client.failOn[tt.failingCall] = statusErr
			reporter := &recordingReporter{}
			orchestrator := NewOrchestrator(NewManager(client), reporter, Options{Policy: FailFast})

			batch, err := orchestrator.CreateAll(context.Background(), testSpec(t, "uat", "prod", "dev"))

			require.Error(t, err)
			assert.ErrorIs(t, err, statusErr)
			// nothing is called after the failing call
			assert.Equal(t, tt.expectedCalls, client.calls)

			var skipped []string
			for _, outcome := range batch.Skipped() {
				skipped = append(skipped, outcome.TargetBranch)
			}
			assert.Equal(t, tt.skipped, skipped)
			assert.Len(t, batch.Outcomes, 3)
			assert.Len(t, reporter.outcomes, 3)
			assert.Len(t, batch.Failed(), 1)

			var branchErr *BranchError
			require.True(t, errors.As(err, &branchErr))
			assert.Equal(t, batch.Failed()[0].TargetBranch, branchErr.TargetBranch)
		})
	}
}

func TestCreateAll_ContinueOnError(t *testing.T) {
	lookupErr := apperrors.NewTransportError(apperrors.OpLookup, "GET",
		"https://gitlab.example.com/api/v4/projects/group%2Frepo", errors.New("connection reset"))

	client := newFakeClient(42)
	client.failOn[1] = lookupErr
	orchestrator := NewOrchestrator(NewManager(client), nil, Options{Policy: ContinueOnError})

	batch, err := orchestrator.CreateAll(context.Background(), testSpec(t, "uat", "prod"))

	require.Error(t, err)
	assert.ErrorIs(t, err, lookupErr)
	assert.Equal(t, []string{"lookup group/repo", "lookup group/repo", "submit prod"}, client.calls)

	require.Len(t, batch.Outcomes, 2)
	assert.False(t, batch.Outcomes[0].Succeeded())
	assert.True(t, batch.Outcomes[1].Succeeded())
	assert.Empty(t, batch.Skipped())
	assert.Equal(t, []Result{{ID: 501, Link: "https://gitlab.example.com/group/repo/-/merge_requests/1"}}, batch.Results())

	apiErr, ok := apperrors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindTransport, apiErr.Kind)
}

func TestCreateAll_DryRun(t *testing.T) {
	client := newFakeClient(42)
	reporter := &recordingReporter{}
	orchestrator := NewOrchestrator(NewManager(client), reporter, Options{DryRun: true})

	batch, err := orchestrator.CreateAll(context.Background(), testSpec(t, "uat", "prod"))

	require.NoError(t, err)
	assert.Empty(t, client.calls)
	require.Len(t, batch.Outcomes, 2)
	assert.True(t, batch.Outcomes[0].DryRun)
	assert.Equal(t, "[ES-123][ES-234][uat] test MR", batch.Outcomes[0].Title)
	assert.Equal(t, "[ES-123][ES-234][prod] test MR", batch.Outcomes[1].Title)
	assert.Empty(t, batch.Results())
}

func TestCreateAll_ReporterErrorStopsRun(t *testing.T) {
	client := newFakeClient(42)
	reporter := &recordingReporter{err: errors.New("broken pipe")}
	orchestrator := NewOrchestrator(NewManager(client), reporter, Options{Policy: ContinueOnError})

	_, err := orchestrator.CreateAll(context.Background(), testSpec(t, "uat", "prod"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to report outcome")
	assert.Equal(t, []string{"lookup group/repo", "submit uat"}, client.calls)
}

func TestCreateAll_CancelledContext(t *testing.T) {
	client := newFakeClient(42)
	reporter := &recordingReporter{}
	orchestrator := NewOrchestrator(NewManager(client), reporter, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := orchestrator.CreateAll(ctx, testSpec(t, "uat", "prod"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.calls)
	require.Len(t, batch.Outcomes, 2)
	assert.Len(t, batch.Skipped(), 2)
	assert.Len(t, reporter.outcomes, 2)
	assert.Equal(t, "[ES-123][ES-234][prod] test MR", batch.Outcomes[1].Title)
}

func TestCreateAll_CancelledMidRun(t *testing.T) {
	for _, policy := range []FailurePolicy{FailFast, ContinueOnError} {
		t.Run(policy.String(), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			client := newFakeClient(42)
			// cancel as soon as the first branch is reported
			reporter := ReporterFunc(func(outcome BranchOutcome) error {
				if outcome.TargetBranch == "uat" {
					cancel()
				}
				return nil
			})
			orchestrator := NewOrchestrator(NewManager(client), reporter, Options{Policy: policy})

			batch, err := orchestrator.CreateAll(ctx, testSpec(t, "uat", "prod", "dev"))

			assert.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, []string{"lookup group/repo", "submit uat"}, client.calls)
			require.Len(t, batch.Outcomes, 3)
			assert.True(t, batch.Outcomes[0].Succeeded())

			var skipped []string
			for _, outcome := range batch.Skipped() {
				skipped = append(skipped, outcome.TargetBranch)
			}
			assert.Equal(t, []string{"prod", "dev"}, skipped)
			assert.Empty(t, batch.Failed())
		})
	}
}

func TestCreateAll_CancelledKeepsEarlierFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	submitErr := apperrors.NewStatusError(apperrors.OpSubmit, "POST",
		"https://gitlab.example.com/api/v4/projects/42/merge_requests", 422, "invalid")
	client := newFakeClient(42)
	client.failOn[2] = submitErr
	reporter := ReporterFunc(func(BranchOutcome) error {
		cancel()
		return nil
	})
	orchestrator := NewOrchestrator(NewManager(client), reporter, Options{Policy: ContinueOnError})

	batch, err := orchestrator.CreateAll(ctx, testSpec(t, "uat", "prod"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, submitErr)
	assert.Len(t, batch.Failed(), 1)
	assert.Len(t, batch.Skipped(), 1)
}

func TestCreateAll_LogsPerBranch(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	client := newFakeClient(42)
	orchestrator := NewOrchestrator(NewManager(client), nil, Options{}).
		WithLogger(logging.FromZap(zap.New(core)))

	_, err := orchestrator.CreateAll(context.Background(), testSpec(t, "uat"))
	require.NoError(t, err)

	created := logs.FilterMessage("Merge request created").All()
	require.Len(t, created, 1)
	fields := created[0].ContextMap()
	assert.Equal(t, "uat", fields["target_branch"])
	assert.Equal(t, "group/repo", fields["repository"])
	assert.Equal(t, "fail-fast", fields["policy"])
	assert.Equal(t, int64(501), fields["merge_request_id"])
}

func TestFailurePolicy_String(t *testing.T) {
	assert.Equal(t, "fail-fast", FailFast.String())
	assert.Equal(t, "continue-on-error", ContinueOnError.String())
	assert.Equal(t, "FailurePolicy(7)", FailurePolicy(7).String())
}

func TestManager_ResolveProject(t *testing.T) {
	client := newFakeClient(9)
	manager := NewManager(client)

	ref, err := manager.ResolveProject(context.Background(), "group/repo")

	require.NoError(t, err)
	assert.Equal(t, ProjectRef{ID: 9, Path: "group/repo"}, ref)
}
