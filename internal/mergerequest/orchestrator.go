package mergerequest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/redhat-data-and-ai/gitlab-util/internal/logging"
)

// FailurePolicy decides what happens to the remaining target branches after one fails
type FailurePolicy int

const (
	// FailFast stops at the first failing branch. Later branches are not attempted.
	FailFast FailurePolicy = iota
	// ContinueOnError attempts every branch and reports all failures together.
	ContinueOnError
)

func (p FailurePolicy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case ContinueOnError:
		return "continue-on-error"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// Options tune a run
type Options struct {
	Policy FailurePolicy
	// DryRun formats titles and reports them without calling GitLab
	DryRun bool
}

// Reporter receives each branch outcome as soon as it is known
type Reporter interface {
	Report(outcome BranchOutcome) error
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(outcome BranchOutcome) error

func (f ReporterFunc) Report(outcome BranchOutcome) error {
	return f(outcome)
}

// BranchOutcome is what happened to one target branch
type BranchOutcome struct {
	TargetBranch string
	Title        string
	Result       *Result
	Err          error
	// Skipped is set for branches never attempted because an earlier one failed
	Skipped bool
	DryRun  bool
}

// Succeeded reports whether a merge request was created
func (o BranchOutcome) Succeeded() bool {
	return o.Result != nil && o.Err == nil
}

// Batch collects the outcome of every target branch, in input order
type Batch struct {
	Outcomes []BranchOutcome
}

// Results returns the created merge requests in branch order
func (b *Batch) Results() []Result {
	results := make([]Result, 0, len(b.Outcomes))
	for _, outcome := range b.Outcomes {
		if outcome.Succeeded() {
			results = append(results, *outcome.Result)
		}
	}
	return results
}

// Failed returns the outcomes that ended in an error
func (b *Batch) Failed() []BranchOutcome {
	var failed []BranchOutcome
	for _, outcome := range b.Outcomes {
		if outcome.Err != nil {
			failed = append(failed, outcome)
		}
	}
	return failed
}

// Skipped returns the outcomes never attempted
func (b *Batch) Skipped() []BranchOutcome {
	var skipped []BranchOutcome
	for _, outcome := range b.Outcomes {
		if outcome.Skipped {
			skipped = append(skipped, outcome)
		}
	}
	return skipped
}

// Err joins the errors of every failed branch, or returns nil
func (b *Batch) Err() error {
	var errs []error
	for _, outcome := range b.Failed() {
		errs = append(errs, outcome.Err)
	}
	return errors.Join(errs...)
}

// BranchError ties an error to the target branch it happened on
type BranchError struct {
	TargetBranch string
	Err          error
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("target branch %s: %v", e.TargetBranch, e.Err)
}

func (e *BranchError) Unwrap() error {
	return e.Err
}

// Orchestrator creates one merge request per target branch, sequentially
type Orchestrator struct {
	manager  *Manager
	reporter Reporter
	logger   *logging.Logger
	opts     Options
}

// NewOrchestrator wires a manager and a reporter. reporter may be nil.
func NewOrchestrator(manager *Manager, reporter Reporter, opts Options) *Orchestrator {
	if reporter == nil {
		reporter = ReporterFunc(func(BranchOutcome) error { return nil })
	}
	logger := logging.GetLogger()
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Orchestrator{
		manager:  manager,
		reporter: reporter,
		logger:   logger,
		opts:     opts,
	}
}

// WithLogger replaces the logger
func (o *Orchestrator) WithLogger(logger *logging.Logger) *Orchestrator {
	o.logger = logger
	return o
}

// CreateAll processes spec.TargetBranches in order. For each branch it
// formats the title, resolves the project, submits the merge request and
// reports the outcome. The project is resolved again for every branch.
//
// Under FailFast the returned error is the first failure and the remaining
// branches appear in the batch as skipped. Under ContinueOnError every branch
// is attempted and the error joins all failures. A cancelled context stops
// the run under either policy: branches not yet attempted are recorded as
// skipped and the error wraps ctx.Err(). A reporter error aborts at once.
func (o *Orchestrator) CreateAll(ctx context.Context, spec Spec) (*Batch, error) {
	batch := &Batch{Outcomes: make([]BranchOutcome, 0, len(spec.TargetBranches))}
	log := o.logger.With(
		zap.String("repository", spec.Repository),
		zap.String("source_branch", spec.SourceBranch),
		zap.String("policy", o.opts.Policy.String()),
	)

	var stop, cancelled error
	for _, targetBranch := range spec.TargetBranches {
		title := FormatTitle(spec.Title, targetBranch, spec.TicketIDs)

		if stop == nil && cancelled == nil {
			cancelled = ctx.Err()
		}

		if stop != nil || cancelled != nil {
			outcome := BranchOutcome{TargetBranch: targetBranch, Title: title, Skipped: true}
			batch.Outcomes = append(batch.Outcomes, outcome)
			if cancelled != nil {
				log.BranchWarn(targetBranch, "Skipping target branch, run cancelled", zap.Error(cancelled))
			} else {
				log.BranchWarn(targetBranch, "Skipping target branch after earlier failure")
			}
			if err := o.reporter.Report(outcome); err != nil {
				return batch, fmt.Errorf("failed to report outcome: %w", err)
			}
			continue
		}

		outcome := o.createOne(ctx, log, spec, targetBranch, title)
		batch.Outcomes = append(batch.Outcomes, outcome)

		if err := o.reporter.Report(outcome); err != nil {
			return batch, fmt.Errorf("failed to report outcome: %w", err)
		}

		if outcome.Err != nil && o.opts.Policy == FailFast {
			stop = outcome.Err
		}
	}

	if stop != nil {
		return batch, stop
	}
	if cancelled != nil {
		return batch, errors.Join(cancelled, batch.Err())
	}
	return batch, batch.Err()
}

func (o *Orchestrator) createOne(ctx context.Context, log *logging.Logger, spec Spec, targetBranch, title string) BranchOutcome {
	outcome := BranchOutcome{TargetBranch: targetBranch, Title: title}

	if o.opts.DryRun {
		outcome.DryRun = true
		log.BranchInfo(targetBranch, "Dry run, not calling GitLab", zap.String("title", title))
		return outcome
	}

	log.BranchInfo(targetBranch, "Creating merge request", zap.String("title", title))

	project, err := o.manager.ResolveProject(ctx, spec.Repository)
	if err != nil {
		log.BranchError(targetBranch, "Failed to resolve project", err)
		outcome.Err = &BranchError{TargetBranch: targetBranch, Err: err}
		return outcome
	}

	result, err := o.manager.SubmitMergeRequest(ctx, project.ID, spec.SourceBranch, targetBranch, title, spec.Description)
	if err != nil {
		log.BranchError(targetBranch, "Failed to create merge request", err, zap.Int("project_id", project.ID))
		outcome.Err = &BranchError{TargetBranch: targetBranch, Err: err}
		return outcome
	}

	log.BranchInfo(targetBranch, "Merge request created",
		zap.Int("project_id", project.ID),
		zap.Int("merge_request_id", result.ID),
		zap.String("link", result.Link),
	)
	outcome.Result = &result
	return outcome
}
