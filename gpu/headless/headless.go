// Package headless provides an in-memory gpu.Device. It allocates no real
// GPU objects: it tracks live resources, records draw and dispatch calls and
// can be told to fail, which makes it the device of choice for tests and
// offline runs of the command-line tool.
package headless

import (
	"errors"
	"fmt"

	"github.com/phanxgames/nodegl/gpu"
)

// ErrOutOfMemory is returned when an allocation limit configured through
// Options is reached.
var ErrOutOfMemory = errors.New("headless: out of memory")

// Options configures a Device.
type Options struct {
	Caps gpu.Caps
	// MaxResources limits the number of live resources of all kinds.
	// Zero means unlimited.
	MaxResources int
}

// DefaultCaps mirrors a typical desktop GL 4.3 driver.
var DefaultCaps = gpu.Caps{
	HasCompute:                true,
	MaxComputeWorkGroupCounts: [3]int{65535, 65535, 65535},
	MaxTextureUnits:           16,
	MaxTextureSize:            16384,
}

type program struct {
	src       gpu.ProgramSource
	uniforms  map[string]int32
	blocks    map[string]int32
	nextBlock int32
}

// Stats counts calls made on the device since creation.
type Stats struct {
	Clears     int
	Draws      int
	Dispatches int
	Barriers   int
	Uploads    int
	Mipmaps    int
	Created    int
	Deleted    int
}

// Device is an in-memory gpu.Device.
type Device struct {
	opts Options

	nextID       uint32
	buffers      map[gpu.Buffer][]byte
	textures     map[gpu.Texture]gpu.TextureDesc
	programs     map[gpu.Program]*program
	framebuffers map[gpu.Framebuffer][2]gpu.Texture

	bound    gpu.Framebuffer
	viewport [4]int

	failProgram string
	stats       Stats

	// DrawCalls and DispatchCalls record every call in submission order.
	DrawCalls     []gpu.DrawCall
	DispatchCalls []gpu.DispatchCall
	// Targets records the framebuffer bound at each draw.
	Targets []gpu.Framebuffer
}

// New creates a device with DefaultCaps.
func New() *Device {
	return NewWithOptions(Options{Caps: DefaultCaps})
}

// NewWithOptions creates a device with the given options.
func NewWithOptions(opts Options) *Device {
	return &Device{
		opts:         opts,
		buffers:      make(map[gpu.Buffer][]byte),
		textures:     make(map[gpu.Texture]gpu.TextureDesc),
		programs:     make(map[gpu.Program]*program),
		framebuffers: make(map[gpu.Framebuffer][2]gpu.Texture),
	}
}

// FailNextProgram makes the next NewProgram call fail with diag.
func (d *Device) FailNextProgram(diag string) {
	d.failProgram = diag
}

// Stats returns the call counters.
func (d *Device) Stats() Stats {
	return d.stats
}

// Live returns the number of live resources of all kinds.
func (d *Device) Live() int {
	return len(d.buffers) + len(d.textures) + len(d.programs) + len(d.framebuffers)
}

// BufferData returns the current contents of b.
func (d *Device) BufferData(b gpu.Buffer) ([]byte, bool) {
	data, ok := d.buffers[b]
	return data, ok
}

// TextureDesc returns the description t was created with.
func (d *Device) TextureDesc(t gpu.Texture) (gpu.TextureDesc, bool) {
	desc, ok := d.textures[t]
	return desc, ok
}

// ResetCalls drops the recorded draw and dispatch calls.
func (d *Device) ResetCalls() {
	d.DrawCalls = d.DrawCalls[:0]
	d.DispatchCalls = d.DispatchCalls[:0]
	d.Targets = d.Targets[:0]
}

func (d *Device) alloc() (uint32, error) {
	if d.opts.MaxResources > 0 && d.Live() >= d.opts.MaxResources {
		return 0, ErrOutOfMemory
	}
	d.nextID++
	d.stats.Created++
	return d.nextID, nil
}

// Caps implements gpu.Device.
func (d *Device) Caps() gpu.Caps { return d.opts.Caps }

// NewBuffer implements gpu.Device.
func (d *Device) NewBuffer(data []byte, _ gpu.BufferUsage) (gpu.Buffer, error) {
	id, err := d.alloc()
	if err != nil {
		return 0, err
	}
	b := gpu.Buffer(id)
	d.buffers[b] = append([]byte(nil), data...)
	d.stats.Uploads++
	return b, nil
}

// UpdateBuffer implements gpu.Device.
func (d *Device) UpdateBuffer(b gpu.Buffer, data []byte) error {
	if _, ok := d.buffers[b]; !ok {
		return fmt.Errorf("headless: unknown buffer %d", b)
	}
	d.buffers[b] = append(d.buffers[b][:0], data...)
	d.stats.Uploads++
	return nil
}

// DeleteBuffer implements gpu.Device.
func (d *Device) DeleteBuffer(b gpu.Buffer) {
	if _, ok := d.buffers[b]; ok {
		delete(d.buffers, b)
		d.stats.Deleted++
	}
}

// NewTexture implements gpu.Device.
func (d *Device) NewTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if limit := d.opts.Caps.MaxTextureSize; limit > 0 && (desc.Width > limit || desc.Height > limit) {
		return 0, fmt.Errorf("headless: texture %dx%d exceeds %d", desc.Width, desc.Height, limit)
	}
	id, err := d.alloc()
	if err != nil {
		return 0, err
	}
	t := gpu.Texture(id)
	desc.Data = append([]byte(nil), desc.Data...)
	d.textures[t] = desc
	return t, nil
}

// DeleteTexture implements gpu.Device.
func (d *Device) DeleteTexture(t gpu.Texture) {
	if _, ok := d.textures[t]; ok {
		delete(d.textures, t)
		d.stats.Deleted++
	}
}

// GenerateMipmap implements gpu.Device.
func (d *Device) GenerateMipmap(gpu.Texture) { d.stats.Mipmaps++ }

// NewProgram implements gpu.Device.
func (d *Device) NewProgram(src gpu.ProgramSource) (gpu.Program, error) {
	if d.failProgram != "" {
		diag := d.failProgram
		d.failProgram = ""
		stage := "vertex/fragment"
		if src.IsCompute() {
			stage = "compute"
		}
		return 0, &gpu.CompileError{Stage: stage, Diagnostic: diag}
	}
	if src.IsCompute() && !d.opts.Caps.HasCompute {
		return 0, &gpu.CompileError{Stage: "compute", Diagnostic: "compute shaders unsupported"}
	}
	id, err := d.alloc()
	if err != nil {
		return 0, err
	}
	p := gpu.Program(id)
	d.programs[p] = &program{
		src:      src,
		uniforms: make(map[string]int32),
		blocks:   make(map[string]int32),
	}
	return p, nil
}

// DeleteProgram implements gpu.Device.
func (d *Device) DeleteProgram(p gpu.Program) {
	if _, ok := d.programs[p]; ok {
		delete(d.programs, p)
		d.stats.Deleted++
	}
}

// UniformLocation implements gpu.Device. Every name resolves; locations are
// handed out in lookup order.
func (d *Device) UniformLocation(p gpu.Program, name string) int32 {
	prog, ok := d.programs[p]
	if !ok {
		return -1
	}
	if loc, ok := prog.uniforms[name]; ok {
		return loc
	}
	loc := int32(len(prog.uniforms))
	prog.uniforms[name] = loc
	return loc
}

// BlockBinding implements gpu.Device.
func (d *Device) BlockBinding(p gpu.Program, name string) int32 {
	prog, ok := d.programs[p]
	if !ok {
		return -1
	}
	if b, ok := prog.blocks[name]; ok {
		return b
	}
	b := prog.nextBlock
	prog.nextBlock++
	prog.blocks[name] = b
	return b
}

// NewFramebuffer implements gpu.Device.
func (d *Device) NewFramebuffer(color, depth gpu.Texture) (gpu.Framebuffer, error) {
	if _, ok := d.textures[color]; !ok {
		return 0, fmt.Errorf("headless: unknown color texture %d", color)
	}
	id, err := d.alloc()
	if err != nil {
		return 0, err
	}
	fb := gpu.Framebuffer(id)
	d.framebuffers[fb] = [2]gpu.Texture{color, depth}
	return fb, nil
}

// DeleteFramebuffer implements gpu.Device.
func (d *Device) DeleteFramebuffer(fb gpu.Framebuffer) {
	if _, ok := d.framebuffers[fb]; ok {
		delete(d.framebuffers, fb)
		d.stats.Deleted++
	}
}

// BindFramebuffer implements gpu.Device.
func (d *Device) BindFramebuffer(fb gpu.Framebuffer) gpu.Framebuffer {
	prev := d.bound
	d.bound = fb
	return prev
}

// Bound returns the currently bound framebuffer.
func (d *Device) Bound() gpu.Framebuffer { return d.bound }

// Viewport implements gpu.Device.
func (d *Device) Viewport() [4]int { return d.viewport }

// SetViewport implements gpu.Device.
func (d *Device) SetViewport(x, y, w, h int) { d.viewport = [4]int{x, y, w, h} }

// Clear implements gpu.Device.
func (d *Device) Clear() { d.stats.Clears++ }

// Draw implements gpu.Device.
func (d *Device) Draw(call *gpu.DrawCall) {
	d.stats.Draws++
	c := *call
	c.Uniforms = append([]gpu.UniformValue(nil), call.Uniforms...)
	c.Textures = append([]gpu.TextureBinding(nil), call.Textures...)
	c.Buffers = append([]gpu.BufferBinding(nil), call.Buffers...)
	d.DrawCalls = append(d.DrawCalls, c)
	d.Targets = append(d.Targets, d.bound)
}

// Dispatch implements gpu.Device.
func (d *Device) Dispatch(call *gpu.DispatchCall) {
	d.stats.Dispatches++
	c := *call
	c.Uniforms = append([]gpu.UniformValue(nil), call.Uniforms...)
	c.Textures = append([]gpu.TextureBinding(nil), call.Textures...)
	c.Buffers = append([]gpu.BufferBinding(nil), call.Buffers...)
	d.DispatchCalls = append(d.DispatchCalls, c)
}

// MemoryBarrier implements gpu.Device.
func (d *Device) MemoryBarrier() { d.stats.Barriers++ }

var _ gpu.Device = (*Device)(nil)
