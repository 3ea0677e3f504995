// Command nodegl inspects and renders the bundled demo scenes.
package main

import (
	"os"

	"github.com/urfave/cli"
)

func newApp() *cli.App {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "nodegl"
	app.Usage = "build, inspect and render node graph scenes"
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
	}
	app.Commands = []cli.Command{
		{
			Name:   "list",
			Usage:  "list the available scenes",
			Action: ListScenes,
		},
		{
			Name:  "dot",
			Usage: "print a scene graph in Graphviz DOT format",
			Description: `
Build the named scene and write its node graph as a DOT digraph. Pipe the
output to "dot -Tpng" to get a picture.`,
			ArgsUsage: "scene",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "write to this file instead of stdout",
				},
			},
			Action: DotScene,
		},
		{
			Name:  "render",
			Usage: "render a scene offscreen and report statistics",
			Description: `
Draw the named scene on the in-memory device for a number of frames evenly
spread over the scene duration, then print device and frame statistics.`,
			ArgsUsage: "scene",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 640,
					Usage: "viewport width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 480,
					Usage: "viewport height",
				},
				cli.IntFlag{
					Name:  "frames, n",
					Value: 60,
					Usage: "number of frames to draw",
				},
				cli.Float64Flag{
					Name:  "duration, d",
					Usage: "override the scene duration in seconds",
				},
			},
			Action: RenderScene,
		},
		{
			Name:      "play",
			Usage:     "open a window and play a scene in a loop",
			ArgsUsage: "scene",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 640,
					Usage: "window width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 480,
					Usage: "window height",
				},
				cli.BoolFlag{
					Name:  "fps",
					Usage: "show FPS and TPS",
				},
				cli.StringFlag{
					Name:  "screenshots",
					Usage: "directory for F12 screenshots",
				},
			},
			Action: PlayScene,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
