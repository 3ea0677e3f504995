package ebitengpu

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/nodegl"
)

// RunConfig configures Run.
type RunConfig struct {
	Title  string
	Width  int
	Height int
	// ShowFPS overlays the current FPS and TPS in the top-left corner.
	ShowFPS bool
	// Duration wraps scene time back to zero once reached. Zero never wraps.
	Duration float64
	// ScreenshotDir, when set, enables saving a PNG of the frame with F12.
	ScreenshotDir string
}

// game adapts a nodegl.Context to ebiten.Game. Scene time advances by one
// tick per Update.
type game struct {
	ctx   *nodegl.Context
	dev   *Device
	cfg   RunConfig
	t     float64
	err   error
	shots []string
}

func (g *game) Update() error {
	if g.err != nil {
		return g.err
	}
	if g.cfg.ScreenshotDir != "" && inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		g.shots = append(g.shots, fmt.Sprintf("t%.3f", g.t))
	}
	g.t += 1 / float64(ebiten.TPS())
	if g.cfg.Duration > 0 && g.t >= g.cfg.Duration {
		g.t = math.Mod(g.t, g.cfg.Duration)
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.dev.SetScreen(screen)
	if err := g.ctx.Draw(g.t); err != nil {
		g.err = err
		return
	}
	if g.cfg.ShowFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
	if len(g.shots) > 0 {
		writeScreenshots(screen, g.cfg.ScreenshotDir, g.shots)
		g.shots = g.shots[:0]
	}
}

func (g *game) Layout(int, int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

// Run binds a new Device to ctx and opens a window drawing its scene until
// the window is closed or a frame fails. The scene must be set on ctx
// beforehand; ctx keeps the device afterwards and still owns the scene.
func Run(ctx *nodegl.Context, cfg RunConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("ebitengpu: invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	dev := New()
	if err := ctx.SetDevice(dev); err != nil {
		return err
	}
	if err := ctx.SetViewport(0, 0, cfg.Width, cfg.Height); err != nil {
		return err
	}
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	return ebiten.RunGame(&game{ctx: ctx, dev: dev, cfg: cfg})
}
