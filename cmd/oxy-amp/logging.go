package main

import (
	"github.com/Carmen-Shannon/oxy-amp/config"
	"github.com/Carmen-Shannon/oxy-amp/log"
	"github.com/urfave/cli"
)

var logger = log.New("oxy-amp")

// setup loads the configuration named by --config, or the defaults, and applies its log level
// before the -v and -vv flags.
func setup(ctx *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := ctx.GlobalString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, err
	}
	log.SetLevel(level)

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}
	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
	return cfg, nil
}
