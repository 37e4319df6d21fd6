package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/presentation/tui"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	Path    string
	Initial string
	Debug   bool
	Strict  bool
	JSON    bool
}

// Execute loads the machine described at opts.Path and drives it from stdin.
func Execute(opts RunOptions) error {
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	return Run(sigCtx, opts, os.Stdin, os.Stdout)
}

// Run is Execute with explicit streams.
func Run(ctx context.Context, opts RunOptions, in io.Reader, out io.Writer) error {
	logger := NewLogger(opts.Debug)

	loader, err := OpenLoader(opts.Path, opts.Initial)
	if err != nil {
		return err
	}

	machineOpts := []rewind.Option{rewind.WithLogger(logger), rewind.WithName(opts.Path)}
	if opts.Debug {
		machineOpts = append(machineOpts, rewind.WithLifecycleHooks(DebugHooks(logger)))
	}
	if opts.Strict {
		machineOpts = append(machineOpts, rewind.WithStrict())
	}

	m, err := rewind.Load(ctx, loader, machineOpts...)
	if err != nil {
		return fmt.Errorf("error initializing machine: %w", err)
	}

	repl := &REPL{
		Machine: m,
		In:      in,
		Out:     out,
		JSON:    opts.JSON,
	}

	if f, ok := out.(*os.File); ok && tui.IsTerminal(f) && !opts.JSON {
		tui.PrintBanner(out, rewind.Version)
		repl.Render = tui.NewRenderer(f)
		repl.Prompt = tui.Prompt
	}

	err = repl.Run(ctx)
	if !opts.JSON {
		printSystemMessage(out, "Finished at '%s'.", m.State())
	}
	return handleExecutionError(err)
}
