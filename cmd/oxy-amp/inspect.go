package main

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-amp/engine/scene"
	"github.com/urfave/cli"
)

// Inspect builds the spatial index of a model and prints its summary.
func Inspect(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	if ctx.NArg() != 1 {
		return errors.New("inspect takes exactly one model file")
	}

	s, err := scene.NewScene(ctx.Args().First(),
		scene.WithFlipY(cfg.FlipY()),
		scene.WithWorkers(cfg.Spatial.Workers),
		scene.WithCellSize(cfg.Amplitude.CellSize),
		scene.WithInitialAmplitude(cfg.InitialAmplitude()),
	)
	if err != nil {
		return err
	}
	s.WriteSummary(ctx.App.Writer)
	return nil
}
