package main

import (
	"os"

	"github.com/urfave/cli"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "oxy-amp"
	app.Usage = "render a mesh with a GPU-computed sound amplitude overlay"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load settings from a TOML or YAML file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "open a window and render the model",
			Description: `
Load a wavefront obj model, bucket its triangles into an 8x8x8 grid and upload the
mesh, the grid and an amplitude volume to the GPU. Every frame a compute pass
recomputes the amplitude of each cell from the camera position and the graphics
pass draws the mesh with the amplitude as a heat overlay.

Move with WASD, rise and sink with Q and E, look around with the arrow keys and
quit with Esc.`,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "model, m",
					Usage: "wavefront obj file to render",
				},
				cli.StringFlag{
					Name:  "shaders",
					Usage: "directory holding <name>_vert.wgsl, <name>_frag.wgsl and <name>_comp.wgsl",
				},
				cli.IntFlag{
					Name:  "width",
					Usage: "window width",
				},
				cli.IntFlag{
					Name:  "height",
					Usage: "window height",
				},
				cli.BoolFlag{
					Name:  "validate",
					Usage: "read the amplitude buffer back before the first frame and compare it with the host copy",
				},
				cli.BoolFlag{
					Name:  "profile",
					Usage: "log frame rate and memory statistics every second",
				},
			},
			Action: Run,
		},
		{
			Name:   "list-devices",
			Usage:  "list available WebGPU adapters",
			Action: ListDevices,
		},
		{
			Name:  "inspect",
			Usage: "print the spatial index and amplitude grid of a model without opening a window",
			Description: `
Load a wavefront obj model, build the bucket grid and report the extent, the
amplitude grid size, the midpoints of each axis, the occupancy of every non-empty
bucket and how many buckets each triangle landed in on average.`,
			ArgsUsage: "model.obj",
			Action:    Inspect,
		},
	}
	return app
}
