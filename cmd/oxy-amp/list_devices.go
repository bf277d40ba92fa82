package main

import (
	"strconv"

	"github.com/Carmen-Shannon/oxy-amp/engine/renderer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// ListDevices prints the WebGPU adapters the system provides.
func ListDevices(ctx *cli.Context) error {
	if _, err := setup(ctx); err != nil {
		return err
	}

	adapters, err := renderer.ListAdapters()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"#", "Name", "Vendor", "Type", "Backend", "Driver"})
	for i, a := range adapters {
		table.Append([]string{strconv.Itoa(i), a.Name, a.Vendor, a.Type, a.Backend, a.Driver})
	}
	table.Render()
	return nil
}
