// statusline feeds i3bar or swaybar a status line built from live system
// metrics.
//
// Usage:
//
//	statusline [flags]
//
// Flags:
//
//	-config string     YAML config file (default: $XDG_CONFIG_HOME/statusline/config.yaml)
//	-interval duration refresh interval (default 250ms)
//	-timeout duration  ceiling for external calls within a tick (default 400ms)
//	-tau duration      network rate smoothing time constant (default 2s)
//	-gpu               enable GPU sampling (default true)
//	-log-file string   write logs here instead of stderr
//	-crash-log string  where to write a diagnostic trace on fatal errors
//	-preview           render the bar in the terminal
//	-once              emit a single tick and exit
//	-verbose           enable debug logging
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/statusline/internal/bar"
	"github.com/Dicklesworthstone/statusline/internal/blocks"
	"github.com/Dicklesworthstone/statusline/internal/config"
	"github.com/Dicklesworthstone/statusline/internal/i3bar"
	"github.com/Dicklesworthstone/statusline/internal/sampler"
	"github.com/Dicklesworthstone/statusline/internal/ui"
)

func main() {
	cfg, err := config.FromFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := safeRun(ctx, cfg, logger); err != nil {
		logger.Error("fatal", slog.String("error", err.Error()))
		if werr := writeCrash(cfg.CrashLog, err); werr != nil {
			logger.Error("crash log", slog.String("error", werr.Error()))
		}
		closeLog()
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	var out io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closeFn, nil
}

// safeRun turns a panic on the main goroutine into an error that still
// carries its stack. Background goroutines are guarded by serve.
func safeRun(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	return bar.Guard("main", func() error { return run(ctx, cfg, logger) })
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	palette, err := cfg.Theme.Palette()
	if err != nil {
		return err
	}

	var (
		gpus *sampler.GPURegistry
		poll func(context.Context)
	)
	if cfg.EnableGPU {
		gpus = sampler.NewGPURegistry(ctx, sampler.RunCmd, cfg.Timeout, logger)
		poll = gpus.Run
	}

	env := blocks.Env{
		Source: sampler.NewSystem(gpus, cfg.VPN.Command, logger),
		Style:  blocks.NewStyle(palette, cfg.Units),
		Logger: logger,
	}
	bs, err := blocks.FromConfig(cfg, env, time.Now())
	if err != nil {
		return err
	}
	b := bar.New(bs, cfg.Timeout, logger)
	logger.Info("statusline starting",
		slog.Int("blocks", len(bs)),
		slog.Duration("interval", cfg.Interval),
		slog.Duration("tau", cfg.Tau))

	err = serve(ctx, poll, func(ctx context.Context) error { return emit(ctx, cfg, b, logger) })
	if err == nil {
		logger.Info("statusline stopped")
	}
	return err
}

// serve runs the GPU poller, when there is one, alongside output. Either
// goroutine panicking ends both and the panic comes back as a *bar.PanicError.
// The poller is stopped once output returns.
func serve(ctx context.Context, poll func(context.Context), output func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	if poll != nil {
		g.Go(func() error {
			return bar.Guard("gpu poller", func() error {
				poll(ctx)
				return nil
			})
		})
	}
	g.Go(func() error {
		defer cancel()
		return bar.Guard("main", func() error { return output(ctx) })
	})
	return g.Wait()
}

func emit(ctx context.Context, cfg config.Config, b *bar.Bar, logger *slog.Logger) error {
	if cfg.Preview {
		return ui.RunPreview(ctx, cfg, b)
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		logger.Info("stdout is a terminal; -preview renders colors")
	}

	w := i3bar.NewWriter(os.Stdout)
	if err := w.Start(); err != nil {
		return err
	}
	if cfg.Once {
		segs, err := b.Tick(ctx, time.Now())
		if err != nil {
			return err
		}
		return w.Write(segs)
	}
	for f := range b.Stream(ctx, cfg.Interval) {
		if f.Err != nil {
			return f.Err
		}
		if err := w.Write(f.Segments); err != nil {
			return err
		}
	}
	return nil
}

// writeCrash records err and every goroutine's stack.
func writeCrash(path string, err error) error {
	if path == "" {
		return nil
	}
	f, ferr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if ferr != nil {
		return ferr
	}
	defer f.Close()

	fmt.Fprintf(f, "=== statusline crash %s ===\n%v\n", time.Now().Format(time.RFC3339), err)
	var pe *bar.PanicError
	if errors.As(err, &pe) {
		fmt.Fprintf(f, "\n--- panic in %s ---\n%s\n", pe.Block, pe.Stack)
	}
	buf := make([]byte, 1<<20)
	buf = buf[:runtime.Stack(buf, true)]
	fmt.Fprintf(f, "\n--- goroutines ---\n%s\n", buf)
	return nil
}
