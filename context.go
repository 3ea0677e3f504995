package nodegl

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/nodegl/gpu"
)

// logModule is the go-logging module used for context-level messages.
const logModule = "nodegl"

// clearColorSetter is implemented by devices that accept a clear color.
type clearColorSetter interface {
	SetClearColor(color mgl32.Vec4)
}

// Context is the top-level object. It owns the scene root, the device
// binding and the log sink. It is not safe for concurrent use.
type Context struct {
	scene  *Node
	device gpu.Device
	logs   *logSink
	events EventStore
	debug  bool

	clearColor mgl32.Vec4
	viewport   [4]int
	frame      uint64

	// nodes holds every node attached to this context.
	nodes map[*Node]struct{}

	stats FrameStats
}

// NewContext creates a context. A nil cfg uses DefaultConfig.
func NewContext(cfg *Config) *Context {
	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}
	c := &Context{
		logs:       newLogSink(cfg.LogWriter, cfg.LogFunc, cfg.LogLevel),
		events:     cfg.Events,
		debug:      cfg.Debug,
		clearColor: cfg.ClearColor,
		nodes:      make(map[*Node]struct{}),
	}
	c.logf(LogInfo, "context created")
	return c
}

func (c *Context) logf(level LogLevel, format string, args ...any) {
	c.logs.log(logModule, level, format, args...)
}

// SetDevice binds the rendering device. It cannot change while the scene
// holds resources on the previous device.
func (c *Context) SetDevice(d gpu.Device) error {
	if d == c.device {
		return nil
	}
	if c.device != nil && c.scene != nil && c.scene.initialized {
		return errorf(ErrInvalidArgument, "device in use by scene %s", c.scene.name)
	}
	c.device = d
	if d == nil {
		return nil
	}
	if s, ok := d.(clearColorSetter); ok {
		s.SetClearColor(c.clearColor)
	}
	if c.viewport[2] > 0 && c.viewport[3] > 0 {
		d.SetViewport(c.viewport[0], c.viewport[1], c.viewport[2], c.viewport[3])
	}
	caps := d.Caps()
	c.logf(LogVerbose, "device bound: compute=%t texture units=%d", caps.HasCompute, caps.MaxTextureUnits)
	return nil
}

// Device returns the bound device, or nil.
func (c *Context) Device() gpu.Device { return c.device }

// SetLogFunc routes log messages to fn. A nil fn restores stderr output.
func (c *Context) SetLogFunc(fn LogFunc) {
	c.logs.install(nil, fn)
}

// SetLogLevel sets the minimum severity that is logged.
func (c *Context) SetLogLevel(level LogLevel) {
	c.logs.setLevel(level)
}

// SetDebugMode enables cycle detection on attach, graph size warnings and
// per-frame timing logs.
func (c *Context) SetDebugMode(enabled bool) {
	c.debug = enabled
}

// SetViewport sets the rendering area and forwards it to the device.
func (c *Context) SetViewport(x, y, w, h int) error {
	if w <= 0 || h <= 0 {
		return errorf(ErrInvalidArgument, "viewport %dx%d", w, h)
	}
	c.logf(LogDebug, "update viewport to %d,%d %dx%d", x, y, w, h)
	c.viewport = [4]int{x, y, w, h}
	if c.device != nil {
		c.device.SetViewport(x, y, w, h)
	}
	return nil
}

// Viewport returns the last viewport set.
func (c *Context) Viewport() [4]int { return c.viewport }

// SetScene replaces the scene root. The previous root is detached and its
// reference released first. A nil root clears the scene. On error no scene
// is set.
func (c *Context) SetScene(root *Node) error {
	if root == c.scene {
		return nil
	}
	if root != nil && root.destroyed {
		return errorf(ErrInvalidArgument, "scene root is released")
	}
	c.clearScene()
	if root == nil {
		return nil
	}
	if err := root.attach(c); err != nil {
		return err
	}
	c.scene = root.Ref()
	c.logf(LogVerbose, "scene set to %s (%d nodes)", root.name, len(c.nodes))
	return nil
}

func (c *Context) clearScene() {
	old := c.scene
	if old == nil {
		return
	}
	c.scene = nil
	old.detach()
	old.Unref()
}

// Scene returns the current scene root, or nil.
func (c *Context) Scene() *Node { return c.scene }

// Frame returns the number of frames drawn.
func (c *Context) Frame() uint64 { return c.frame }

// Draw advances the scene to time t and renders it: resources are checked,
// then the whole graph is updated, then drawn.
func (c *Context) Draw(t float64) error {
	scene := c.scene
	if scene == nil {
		c.logf(LogError, "scene is not set, can not draw")
		return errorf(ErrNotAttached, "no scene set")
	}
	if c.device == nil {
		c.logf(LogError, "device is not set, can not draw")
		return errorf(ErrNotAttached, "no device set")
	}
	c.frame++
	c.logf(LogDebug, "draw scene %s @ t=%f", scene.name, t)

	var stats FrameStats
	var t0 time.Time
	if c.debug {
		t0 = time.Now()
	}

	c.device.Clear()
	if err := scene.checkResources(t); err != nil {
		return err
	}

	if c.debug {
		stats.CheckTime = time.Since(t0)
		t0 = time.Now()
	}

	scene.update(t)

	if c.debug {
		stats.UpdateTime = time.Since(t0)
		t0 = time.Now()
	}

	scene.ModelView = mgl32.Ident4()
	scene.Projection = mgl32.Ident4()
	scene.draw()

	if c.debug {
		stats.DrawTime = time.Since(t0)
		stats.Nodes = len(c.nodes)
		c.stats = stats
		c.debugLog(stats)
	}
	return nil
}

// Release detaches and releases the scene. The context may be reused.
func (c *Context) Release() {
	c.clearScene()
	c.logf(LogVerbose, "context released")
}

// prune detaches attached nodes that are no longer reachable from the
// scene, after a node slot was relinked.
func (c *Context) prune() {
	live := make(map[*Node]bool, len(c.nodes))
	if c.scene != nil {
		c.scene.walk(func(n *Node) { live[n] = true })
	}
	for n := range c.nodes {
		if !live[n] {
			n.unlink()
		}
	}
}
