package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/oxy-amp/config"
	"github.com/Carmen-Shannon/oxy-amp/engine"
	"github.com/urfave/cli"
)

// Run opens the window and renders until it closes.
func Run(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	cfg, err = applyRunFlags(ctx, cfg)
	if err != nil {
		return err
	}

	e, err := engine.NewEngine(cfg, engine.WithReportWriter(ctx.App.Writer))
	if err != nil {
		return err
	}
	defer e.Close()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	done := make(chan struct{})
	watched := watchInterrupt(runCtx, done, e.Window().RequestClose)

	err = e.Run(runCtx)
	close(done)
	<-watched
	return err
}

// watchInterrupt calls requestClose if ctx ends before done is closed. The returned channel is
// closed once the watcher has exited, so the caller can tear the window down afterwards.
func watchInterrupt(ctx context.Context, done <-chan struct{}, requestClose func()) <-chan struct{} {
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			requestClose()
		case <-done:
		}
	}()
	return exited
}

// applyRunFlags overrides the configuration with the run command's flags that were set.
func applyRunFlags(ctx *cli.Context, cfg config.Config) (config.Config, error) {
	if ctx.IsSet("model") {
		cfg.Model.Path = ctx.String("model")
	}
	if ctx.IsSet("shaders") {
		cfg.Shaders.Dir = ctx.String("shaders")
	}
	if ctx.IsSet("width") {
		cfg.Window.Width = ctx.Int("width")
	}
	if ctx.IsSet("height") {
		cfg.Window.Height = ctx.Int("height")
	}
	if ctx.Bool("validate") {
		cfg.Render.ValidateAmplitude = true
	}
	if ctx.Bool("profile") {
		cfg.Profiling = true
	}
	return cfg, cfg.Validate()
}
