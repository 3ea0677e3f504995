package main

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/phanxgames/nodegl"
	"github.com/phanxgames/nodegl/gpu/ebitengpu"
	"github.com/phanxgames/nodegl/gpu/headless"
)

// RenderScene draws a scene on the headless device and reports statistics.
func RenderScene(ctx *cli.Context) error {
	level := setupLogging(ctx)

	s, root, err := loadScene(ctx)
	if err != nil {
		return err
	}
	frames := ctx.Int("frames")
	if frames <= 0 {
		root.Unref()
		return fmt.Errorf("invalid frame count %d", frames)
	}
	duration := s.Duration
	if d := ctx.Float64("duration"); d > 0 {
		duration = d
	}

	c := newContext(level, true)
	defer c.Release()
	dev := headless.New()
	if err := c.SetDevice(dev); err != nil {
		root.Unref()
		return err
	}
	if err := c.SetViewport(0, 0, ctx.Int("width"), ctx.Int("height")); err != nil {
		root.Unref()
		return err
	}
	err = c.SetScene(root)
	root.Unref()
	if err != nil {
		return err
	}

	var total nodegl.FrameStats
	for i := 0; i < frames; i++ {
		t := 0.0
		if frames > 1 {
			t = duration * float64(i) / float64(frames-1)
		}
		if err := c.Draw(t); err != nil {
			return fmt.Errorf("frame %d (t=%g): %w", i, t, err)
		}
		st := c.Stats()
		total.CheckTime += st.CheckTime
		total.UpdateTime += st.UpdateTime
		total.DrawTime += st.DrawTime
		total.Nodes = st.Nodes
	}

	fmt.Fprint(ctx.App.Writer, renderStats(s.Name, frames, dev.Stats(), dev.Live(), total))
	return nil
}

func renderStats(name string, frames int, ds headless.Stats, live int, fs nodegl.FrameStats) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Scene", "Frames", "Nodes", "Draws", "Dispatches", "Uploads", "Live resources"})
	table.Append([]string{
		name,
		fmt.Sprintf("%d", frames),
		fmt.Sprintf("%d", fs.Nodes),
		fmt.Sprintf("%d", ds.Draws),
		fmt.Sprintf("%d", ds.Dispatches),
		fmt.Sprintf("%d", ds.Uploads),
		fmt.Sprintf("%d", live),
	})
	table.Render()

	timing := tablewriter.NewWriter(&buf)
	timing.SetAutoFormatHeaders(false)
	timing.SetHeader([]string{"Check", "Update", "Draw"})
	timing.Append([]string{fs.CheckTime.String(), fs.UpdateTime.String(), fs.DrawTime.String()})
	timing.SetFooter([]string{"", "TOTAL", (fs.CheckTime + fs.UpdateTime + fs.DrawTime).String()})
	timing.Render()
	return buf.String()
}

// PlayScene opens a window looping over a scene.
func PlayScene(ctx *cli.Context) error {
	level := setupLogging(ctx)

	s, root, err := loadScene(ctx)
	if err != nil {
		return err
	}
	if s.NeedsCompute {
		root.Unref()
		return fmt.Errorf("scene %s needs compute shaders, which the window backend lacks", s.Name)
	}

	c := newContext(level, false)
	defer c.Release()
	err = c.SetScene(root)
	root.Unref()
	if err != nil {
		return err
	}
	return ebitengpu.Run(c, ebitengpu.RunConfig{
		Title:         "nodegl: " + s.Name,
		Width:         ctx.Int("width"),
		Height:        ctx.Int("height"),
		ShowFPS:       ctx.Bool("fps"),
		Duration:      s.Duration,
		ScreenshotDir: ctx.String("screenshots"),
	})
}
