package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/phanxgames/nodegl"
	"github.com/phanxgames/nodegl/internal/demo"
)

// loadScene builds the scene named by the first argument.
func loadScene(ctx *cli.Context) (demo.Scene, *nodegl.Node, error) {
	if ctx.NArg() != 1 {
		return demo.Scene{}, nil, errors.New("missing scene argument")
	}
	s, ok := demo.Lookup(ctx.Args().First())
	if !ok {
		return demo.Scene{}, nil, fmt.Errorf("unknown scene %q, see the list command", ctx.Args().First())
	}
	root, err := s.Build()
	if err != nil {
		return s, nil, fmt.Errorf("build %s: %w", s.Name, err)
	}
	logger.Infof("built scene %s", s.Name)
	return s, root, nil
}

// ListScenes prints the available scenes.
func ListScenes(ctx *cli.Context) error {
	setupLogging(ctx)

	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Scene", "Duration", "Compute", "Description"})
	for _, s := range demo.All() {
		table.Append([]string{
			s.Name,
			fmt.Sprintf("%gs", s.Duration),
			fmt.Sprintf("%t", s.NeedsCompute),
			s.Description,
		})
	}
	table.Render()
	return nil
}

// DotScene writes the graph of a scene in DOT format.
func DotScene(ctx *cli.Context) error {
	setupLogging(ctx)

	_, root, err := loadScene(ctx)
	if err != nil {
		return err
	}
	defer root.Unref()

	var w io.Writer = ctx.App.Writer
	if path := ctx.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := nodegl.WriteDot(w, root); err != nil {
		return err
	}
	if path := ctx.String("out"); path != "" {
		logger.Noticef("graph written to %s", path)
	}
	return nil
}
