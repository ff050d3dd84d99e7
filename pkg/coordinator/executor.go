package coordinator

import (
	"context"
	"os"
	"os/exec"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jespino/bookmap/pkg/layout"
	"github.com/jespino/bookmap/pkg/projection"
	"github.com/jespino/bookmap/pkg/worker"
)

type Mode string

const (
	ModeGoroutine Mode = "goroutine"
	ModeProcess   Mode = "process"
	ModeInline    Mode = "inline"
)

// Offloaded reports whether work runs off the caller's serial loop and can
// be cancelled.
func (m Mode) Offloaded() bool {
	return m == ModeGoroutine || m == ModeProcess
}

// Result is what an executor reports for a finished job.
type Result struct {
	RequestID RequestID
	Coords    projection.Coordinates
	Err       error
}

// Executor runs layout jobs.
//
// Dispatch must return without blocking; the coordinator calls it while
// holding its lock. done may be called from any goroutine, but never from
// within Dispatch itself. The returned cancel func is safe to call at any
// time and more than once.
type Executor interface {
	Dispatch(id RequestID, items []layout.Item, done func(Result)) (cancel func())
	Mode() Mode
	Close() error
}

// ExecutorOptions select and configure an executor.
type ExecutorOptions struct {
	UseOffloaded bool
	Isolation    Mode
	Computer     layout.Computer
	// Command builds the worker child for process isolation. Defaults to
	// SelfCommand.
	Command func(ctx context.Context) *exec.Cmd
	Logger  zerolog.Logger
}

// NewExecutor builds the executor described by opts.
func NewExecutor(opts ExecutorOptions) (Executor, error) {
	if !opts.UseOffloaded {
		if opts.Computer == nil {
			return nil, errors.New("inline execution needs a computer")
		}
		return NewInline(opts.Computer, opts.Logger), nil
	}

	switch opts.Isolation {
	case "", ModeGoroutine:
		if opts.Computer == nil {
			return nil, errors.New("goroutine execution needs a computer")
		}
		return NewOffloaded(opts.Computer, opts.Logger), nil
	case ModeProcess:
		command := opts.Command
		if command == nil {
			command = SelfCommand
		}
		return NewProcess(command, opts.Logger), nil
	default:
		return nil, errors.Errorf("unknown worker isolation %q", opts.Isolation)
	}
}

// SelfCommand re-executes the running binary as `<binary> worker`.
func SelfCommand(ctx context.Context) *exec.Cmd {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	cmd := exec.CommandContext(ctx, exe, "worker")
	cmd.Stderr = os.Stderr
	return cmd
}

// jobGroup tracks the goroutines of an offloaded executor so Close can stop
// and wait for them.
type jobGroup struct {
	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

func newJobGroup() *jobGroup {
	ctx, stop := context.WithCancel(context.Background())
	return &jobGroup{ctx: ctx, stop: stop}
}

// spawn runs fn on its own goroutine with a context derived from the group.
// done receives the outcome unless the job was cancelled first.
func (g *jobGroup) spawn(id RequestID, logger zerolog.Logger, done func(Result), fn func(ctx context.Context) (projection.Coordinates, error)) func() {
	ctx, cancel := context.WithCancel(g.ctx)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer cancel()

		var res Result
		func() {
			defer func() {
				if r := recover(); r != nil {
					res = Result{RequestID: id, Err: errors.Errorf("layout job panicked: %v", r)}
				}
			}()
			coords, err := fn(ctx)
			res = Result{RequestID: id, Coords: coords, Err: err}
		}()

		if ctx.Err() != nil {
			logger.Debug().Uint64("request", uint64(id)).Msg("job cancelled")
			return
		}
		done(res)
	}()
	return cancel
}

func (g *jobGroup) close() {
	g.stop()
	g.wg.Wait()
}

// Offloaded runs each job on its own goroutine. Cancelling a job stops the
// embedding at its next iteration and suppresses its result.
type Offloaded struct {
	computer layout.Computer
	logger   zerolog.Logger
	jobs     *jobGroup
}

func NewOffloaded(computer layout.Computer, logger zerolog.Logger) *Offloaded {
	return &Offloaded{
		computer: computer,
		logger:   logger.With().Str("component", "executor").Str("mode", string(ModeGoroutine)).Logger(),
		jobs:     newJobGroup(),
	}
}

func (o *Offloaded) Dispatch(id RequestID, items []layout.Item, done func(Result)) func() {
	return o.jobs.spawn(id, o.logger, done, func(ctx context.Context) (projection.Coordinates, error) {
		return o.computer.Compute(ctx, items)
	})
}

func (o *Offloaded) Mode() Mode {
	return ModeGoroutine
}

func (o *Offloaded) Close() error {
	o.jobs.close()
	return nil
}

// Process runs each job in a fresh worker child. Cancelling a job kills the
// child. Crashes and protocol errors are reported as failed results.
type Process struct {
	command func(ctx context.Context) *exec.Cmd
	logger  zerolog.Logger
	jobs    *jobGroup
}

func NewProcess(command func(ctx context.Context) *exec.Cmd, logger zerolog.Logger) *Process {
	return &Process{
		command: command,
		logger:  logger.With().Str("component", "executor").Str("mode", string(ModeProcess)).Logger(),
		jobs:    newJobGroup(),
	}
}

func (p *Process) Dispatch(id RequestID, items []layout.Item, done func(Result)) func() {
	return p.jobs.spawn(id, p.logger, done, func(ctx context.Context) (projection.Coordinates, error) {
		cmd := p.command(ctx)
		p.logger.Debug().Uint64("request", uint64(id)).Str("path", cmd.Path).Msg("starting worker")
		return worker.Call(ctx, cmd, items)
	})
}

func (p *Process) Mode() Mode {
	return ModeProcess
}

func (p *Process) Close() error {
	p.jobs.close()
	return nil
}
