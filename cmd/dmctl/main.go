// SPDX-License-Identifier: Apache-2.0

// dmctl is a diagnostic CLI over the driver model core: it brings up a
// demo device tree against an in-memory HDT fixture and prints its
// stats or structure. Grounded on
// src/runtime/cmd/kata-runtime/kata-device.go's cli.Command/
// cli.StringFlag shape; it lives outside the core's own package
// boundary -- the core never imports cmd/.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/flashboot/dm/dmcore"
	"github.com/flashboot/dm/dmtypes"
)

var configPath string

func main() {
	app := cli.NewApp()
	app.Name = "dmctl"
	app.Usage = "inspect a driver model bring-up"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config",
			Usage:       "optional INI override file for scan behavior",
			Destination: &configPath,
		},
	}
	app.Commands = []cli.Command{statsCommand, treeCommand}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "dmctl:", err)
		os.Exit(1)
	}
}

var statsCommand = cli.Command{
	Name:  "stats",
	Usage: "bring up the demo tree and print device/uclass/memory counts",
	Action: func(c *cli.Context) error {
		core, err := demoBringUp()
		if err != nil {
			return err
		}
		stats := core.GetStats()
		mem := core.GetMemoryStats()
		fmt.Printf("devices=%d uclasses=%d\n", stats.DeviceCount, stats.UclassCount)
		fmt.Printf("plat=%dB priv=%dB uclass-priv=%dB parent-priv=%dB records=%d\n",
			mem.PlatDataBytes, mem.PrivDataBytes, mem.UclassPrivBytes, mem.ParentPrivBytes, mem.DeviceRecords)
		return core.Uninit()
	},
}

var treeCommand = cli.Command{
	Name:  "tree",
	Usage: "bring up the demo tree and print its device hierarchy",
	Action: func(c *cli.Context) error {
		core, err := demoBringUp()
		if err != nil {
			return err
		}
		printTree(core.Root(), 0)
		return core.Uninit()
	},
}

func printTree(dev *dmtypes.Device, depth int) {
	if dev == nil {
		return
	}
	for i := 0; i < depth; i++ {
		fmt.Print("  ")
	}
	uclassName := "-"
	if dev.Uclass != nil {
		uclassName = dev.Uclass.Driver.Name
	}
	fmt.Printf("%s (uclass=%s, activated=%v)\n", dev.Name, uclassName, dev.IsActivated())
	for _, child := range dev.Children {
		printTree(child, depth+1)
	}
}

func demoBringUp() (*dmcore.Core, error) {
	reg, hdt := buildDemoRegistry()
	core := dmcore.New()
	opts := dmcore.Options{
		Registry:     reg,
		HDT:          hdt,
		ConfigPath:   configPath,
		PreRelocOnly: false,
	}
	if err := core.InitAndScan(opts); err != nil {
		return nil, err
	}
	return core, nil
}
