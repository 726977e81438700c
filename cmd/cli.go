package main

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/redhat-data-and-ai/gitlab-util/internal/config"
	apperrors "github.com/redhat-data-and-ai/gitlab-util/internal/errors"
	"github.com/redhat-data-and-ai/gitlab-util/internal/gitlab"
	"github.com/redhat-data-and-ai/gitlab-util/internal/logging"
	"github.com/redhat-data-and-ai/gitlab-util/internal/mergerequest"
	"github.com/redhat-data-and-ai/gitlab-util/internal/report"
)

// CLI represents the command-line interface structure
type CLI struct {
	Globals

	Version      kong.VersionFlag `help:"Show version information"`
	MergeRequest MergeRequestCmd  `cmd:"" name:"merge-request" help:"Work with GitLab merge requests"`
}

// Globals are flags shared by every command
type Globals struct {
	Config   string `help:"Path to YAML config file" default:"~/.gitlab-util/config.yaml" env:"GITLAB_UTIL_CONFIG"`
	EnvFile  string `help:"Path to a .env file loaded before reading the environment" default:".env" name:"env-file"`
	BaseURL  string `help:"GitLab base URL (overrides GITLAB_BASE_URL)" name:"base-url"`
	Token    string `help:"GitLab access token (overrides GITLAB_TOKEN)"`
	LogLevel string `help:"Log level: debug, info, warn, error (overrides LOG_LEVEL)" name:"log-level"`
	Verbose  bool   `help:"Print error context on failure" short:"v"`
}

// Runtime carries process-level dependencies into command Run methods
type Runtime struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
}

// loadConfig applies precedence: flags > env (.env included) > YAML file > defaults
func (g *Globals) loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(g.EnvFile); err != nil {
		return nil, apperrors.NewErrorWithCause(apperrors.ErrConfigurationError, "failed to load env file", err)
	}

	// a missing file only matters when the user pointed at one
	cfg, err := config.LoadFile(g.Config, g.Config != config.DefaultConfigPath)
	if err != nil {
		return nil, apperrors.NewErrorWithCause(apperrors.ErrConfigurationError, "failed to load configuration", err)
	}

	if g.BaseURL != "" {
		cfg.GitLab.BaseURL = g.BaseURL
	}
	if g.Token != "" {
		cfg.GitLab.Token = g.Token
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	return cfg, nil
}

// MergeRequestCmd groups merge request subcommands
type MergeRequestCmd struct {
	Create MergeRequestCreateCmd `cmd:"" help:"Create one merge request per target branch"`
}

// MergeRequestCreateCmd creates merge requests from one source branch into several targets
type MergeRequestCreateCmd struct {
	Repository      string   `help:"Namespaced project path, e.g. group/subgroup/repo" short:"r" required:""`
	SourceBranch    string   `help:"Branch the changes come from" short:"s" name:"source-branch" required:""`
	TargetBranches  []string `help:"Comma-separated target branches, processed in order" short:"t" name:"target-branches" required:""`
	Title           string   `help:"Plain merge request title" required:""`
	Description     string   `help:"Merge request description" short:"d"`
	Jira            []string `help:"Comma-separated ticket ids prefixed to the title" short:"j"`
	ContinueOnError bool     `help:"Attempt every target branch even after a failure" name:"continue-on-error"`
	DryRun          bool     `help:"Print the titles that would be used without calling GitLab" name:"dry-run"`
	Output          string   `help:"Output format: text or json (case-insensitive)" short:"o" default:"text"`
}

// Run executes the create command
func (c *MergeRequestCreateCmd) Run(cli *CLI, rt *Runtime) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	logging.InitLogger(cfg.Logging.Level, "cli")
	logger := logging.GetLogger()
	defer logger.Sync()

	spec, err := mergerequest.NewSpec(c.Repository, c.SourceBranch, c.TargetBranches, c.Title, c.Description, c.Jira)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(c.Output)
	if err != nil {
		return apperrors.NewValidationError("output", err.Error())
	}

	if !c.DryRun {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	client, err := gitlab.NewClient(cfg.GitLab)
	if err != nil {
		return apperrors.NewErrorWithCause(apperrors.ErrConfigurationError, "failed to create GitLab client", err)
	}

	opts := mergerequest.Options{Policy: mergerequest.FailFast, DryRun: c.DryRun}
	if c.ContinueOnError {
		opts.Policy = mergerequest.ContinueOnError
	}

	printer := report.NewPrinter(rt.Stdout, format)
	orchestrator := mergerequest.NewOrchestrator(mergerequest.NewManager(client), printer, opts)

	logger.With(
		zap.String("repository", spec.Repository),
		zap.String("source_branch", spec.SourceBranch),
		zap.Int("targets", len(spec.TargetBranches)),
		zap.Bool("dry_run", c.DryRun),
	).Info("Creating merge requests")

	batch, runErr := orchestrator.CreateAll(rt.Ctx, spec)
	if err := printer.Summary(batch); err != nil && runErr == nil {
		return apperrors.NewErrorWithCause(apperrors.ErrOutputFailed, "failed to write summary", err)
	}
	if runErr != nil {
		return fmt.Errorf("merge request creation failed: %w", runErr)
	}
	return nil
}
