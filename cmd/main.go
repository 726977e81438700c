package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	apperrors "github.com/redhat-data-and-ai/gitlab-util/internal/errors"
	"github.com/redhat-data-and-ai/gitlab-util/internal/logging"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

const description = "Command line helpers for GitLab. Creates one merge request per target branch from a single source branch."

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// kongExit is raised through panic when kong wants to end the process (help, version)
type kongExit int

// run parses args, executes the selected command and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			exit, ok := r.(kongExit)
			if !ok {
				panic(r)
			}
			code = int(exit)
		}
	}()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("gitlab-util"),
		kong.Description(description),
		kong.Vars{"version": version},
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { panic(kongExit(code)) }),
		kong.UsageOnError(),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return apperrors.ExitFailure
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		var parseErr *kong.ParseError
		if errors.As(err, &parseErr) && parseErr.Context != nil {
			_ = parseErr.Context.PrintUsage(true)
		}
		return apperrors.ExitFailure
	}

	runErr := kctx.Run(&Runtime{Ctx: ctx, Stdout: stdout, Stderr: stderr})

	handler := apperrors.NewHandler(stderr, logging.GetLogger())
	handler.Verbose = cli.Verbose
	return handler.HandleError(runErr)
}
