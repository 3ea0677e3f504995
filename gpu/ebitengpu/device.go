package ebitengpu

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/nodegl/gpu"
)

// DefaultCaps are the limits of the ebiten backend. Kage shaders take at
// most four source images and there is no compute stage.
var DefaultCaps = gpu.Caps{
	HasCompute:      false,
	MaxTextureUnits: 4,
	MaxTextureSize:  4096,
}

// defaultShader draws flat white geometry, tinted by the vertex color.
const defaultShader = `//kage:unit pixels

package main

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	return color
}
`

type texture struct {
	img  *ebiten.Image
	desc gpu.TextureDesc
}

type program struct {
	shader   *ebiten.Shader
	uniforms map[string]int32
}

// Device is a gpu.Device drawing onto ebiten images. Storage buffers live in
// memory; textures and framebuffer targets are ebiten images.
type Device struct {
	caps       gpu.Caps
	screen     *ebiten.Image
	clearColor color.RGBA

	nextID       uint32
	buffers      map[gpu.Buffer][]byte
	textures     map[gpu.Texture]*texture
	programs     map[gpu.Program]*program
	framebuffers map[gpu.Framebuffer]gpu.Texture

	bound    gpu.Framebuffer
	viewport [4]int
}

// New creates a device with DefaultCaps. The on-screen target is supplied
// each frame with SetScreen.
func New() *Device {
	return &Device{
		caps:         DefaultCaps,
		clearColor:   color.RGBA{A: 0xff},
		buffers:      make(map[gpu.Buffer][]byte),
		textures:     make(map[gpu.Texture]*texture),
		programs:     make(map[gpu.Program]*program),
		framebuffers: make(map[gpu.Framebuffer]gpu.Texture),
	}
}

// SetScreen sets the image bound to gpu.DefaultFramebuffer.
func (d *Device) SetScreen(screen *ebiten.Image) {
	d.screen = screen
}

// SetClearColor sets the color used by Clear. Components are straight alpha
// in [0, 1]; premultiplication happens here.
func (d *Device) SetClearColor(c mgl32.Vec4) {
	a := clamp01(c[3])
	d.clearColor = color.RGBA{
		R: unorm8(c[0] * a),
		G: unorm8(c[1] * a),
		B: unorm8(c[2] * a),
		A: unorm8(a),
	}
}

func (d *Device) alloc() uint32 {
	d.nextID++
	return d.nextID
}

// Caps implements gpu.Device.
func (d *Device) Caps() gpu.Caps { return d.caps }

// NewBuffer implements gpu.Device.
func (d *Device) NewBuffer(data []byte, _ gpu.BufferUsage) (gpu.Buffer, error) {
	b := gpu.Buffer(d.alloc())
	d.buffers[b] = append([]byte(nil), data...)
	return b, nil
}

// UpdateBuffer implements gpu.Device.
func (d *Device) UpdateBuffer(b gpu.Buffer, data []byte) error {
	if _, ok := d.buffers[b]; !ok {
		return fmt.Errorf("ebitengpu: unknown buffer %d", b)
	}
	d.buffers[b] = append(d.buffers[b][:0], data...)
	return nil
}

// DeleteBuffer implements gpu.Device.
func (d *Device) DeleteBuffer(b gpu.Buffer) {
	delete(d.buffers, b)
}

// NewTexture implements gpu.Device. Float formats are converted to 8-bit
// pixels on upload.
func (d *Device) NewTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("ebitengpu: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	if limit := d.caps.MaxTextureSize; desc.Width > limit || desc.Height > limit {
		return 0, fmt.Errorf("ebitengpu: texture %dx%d exceeds %d", desc.Width, desc.Height, limit)
	}
	img := ebiten.NewImageWithOptions(
		image.Rect(0, 0, desc.Width, desc.Height),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
	if pixels := toRGBA8(desc); pixels != nil {
		img.WritePixels(pixels)
	}
	t := gpu.Texture(d.alloc())
	desc.Data = nil
	d.textures[t] = &texture{img: img, desc: desc}
	return t, nil
}

// DeleteTexture implements gpu.Device.
func (d *Device) DeleteTexture(t gpu.Texture) {
	if tex, ok := d.textures[t]; ok {
		tex.img.Deallocate()
		delete(d.textures, t)
	}
}

// GenerateMipmap implements gpu.Device. Ebiten builds mipmaps on demand.
func (d *Device) GenerateMipmap(gpu.Texture) {}

// NewProgram implements gpu.Device. The fragment source is a complete Kage
// program; the vertex stage runs on the CPU in Draw.
func (d *Device) NewProgram(src gpu.ProgramSource) (gpu.Program, error) {
	if src.IsCompute() {
		return 0, &gpu.CompileError{Stage: "compute", Diagnostic: "compute shaders are not supported by ebiten"}
	}
	code := src.Fragment
	if code == "" {
		code = defaultShader
	}
	shader, err := ebiten.NewShader([]byte(code))
	if err != nil {
		return 0, &gpu.CompileError{Stage: "fragment", Diagnostic: err.Error()}
	}
	p := gpu.Program(d.alloc())
	d.programs[p] = &program{shader: shader, uniforms: make(map[string]int32)}
	return p, nil
}

// DeleteProgram implements gpu.Device.
func (d *Device) DeleteProgram(p gpu.Program) {
	if prog, ok := d.programs[p]; ok {
		prog.shader.Deallocate()
		delete(d.programs, p)
	}
}

// UniformLocation implements gpu.Device. Kage offers no reflection, so every
// name resolves; uniforms the shader does not declare are ignored at draw.
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

// BlockBinding implements gpu.Device. Kage has no storage blocks.
func (d *Device) BlockBinding(gpu.Program, string) int32 { return -1 }

// NewFramebuffer implements gpu.Device. Depth attachments are accepted but
// ebiten has no depth test.
func (d *Device) NewFramebuffer(colorTex, _ gpu.Texture) (gpu.Framebuffer, error) {
	if _, ok := d.textures[colorTex]; !ok {
		return 0, fmt.Errorf("ebitengpu: unknown color texture %d", colorTex)
	}
	fb := gpu.Framebuffer(d.alloc())
	d.framebuffers[fb] = colorTex
	return fb, nil
}

// DeleteFramebuffer implements gpu.Device.
func (d *Device) DeleteFramebuffer(fb gpu.Framebuffer) {
	delete(d.framebuffers, fb)
}

// BindFramebuffer implements gpu.Device.
func (d *Device) BindFramebuffer(fb gpu.Framebuffer) gpu.Framebuffer {
	prev := d.bound
	d.bound = fb
	return prev
}

// Viewport implements gpu.Device.
func (d *Device) Viewport() [4]int { return d.viewport }

// SetViewport implements gpu.Device. The origin is the bottom-left corner of
// the target.
func (d *Device) SetViewport(x, y, w, h int) { d.viewport = [4]int{x, y, w, h} }

// target returns the image behind the bound framebuffer, or nil.
func (d *Device) target() *ebiten.Image {
	if d.bound == gpu.DefaultFramebuffer {
		return d.screen
	}
	if tex, ok := d.textures[d.framebuffers[d.bound]]; ok {
		return tex.img
	}
	return nil
}

// viewportImage returns the viewport region of the target. An unset
// viewport covers the whole target.
func (d *Device) viewportImage() *ebiten.Image {
	target := d.target()
	if target == nil {
		return nil
	}
	x, y, w, h := d.viewport[0], d.viewport[1], d.viewport[2], d.viewport[3]
	if w <= 0 || h <= 0 {
		return target
	}
	b := target.Bounds()
	top := b.Max.Y - y - h
	return target.SubImage(image.Rect(b.Min.X+x, top, b.Min.X+x+w, top+h)).(*ebiten.Image)
}

// Clear implements gpu.Device.
func (d *Device) Clear() {
	if img := d.viewportImage(); img != nil {
		img.Fill(d.clearColor)
	}
}

// Draw implements gpu.Device. Vertices are projected on the CPU and
// submitted with DrawTrianglesShader. Calls without a target, with lines or
// points, or with indices past 16 bits are dropped.
func (d *Device) Draw(call *gpu.DrawCall) {
	dst := d.viewportImage()
	prog := d.programs[call.Program]
	if dst == nil || prog == nil {
		return
	}
	idx := triangleList(decodeIndices(d.buffers[call.Indices], call.IndexType, call.IndexCount), call.Mode)
	indices, ok := narrowIndices(idx)
	if !ok || len(indices) == 0 {
		return
	}

	var opts ebiten.DrawTrianglesShaderOptions
	var srcW, srcH float32
	for i, b := range call.Textures {
		if i >= len(opts.Images) {
			break
		}
		tex, ok := d.textures[b.Texture]
		if !ok {
			continue
		}
		opts.Images[i] = tex.img
		if i == 0 {
			srcW, srcH = float32(tex.desc.Width), float32(tex.desc.Height)
		}
	}
	opts.Uniforms = kageUniforms(call.Uniforms)

	b := dst.Bounds()
	mvp := call.Projection.Mul4(call.ModelView)
	verts := projectVertices(decodeFloats(d.buffers[call.Positions]), decodeFloats(d.buffers[call.TexCoords]),
		mvp, b.Dx(), b.Dy(), srcW, srcH)
	for i := range verts {
		verts[i].DstX += float32(b.Min.X)
		verts[i].DstY += float32(b.Min.Y)
	}
	dst.DrawTrianglesShader(verts, indices, prog.shader, &opts)
}

// Dispatch implements gpu.Device. Never reached: HasCompute is false.
func (d *Device) Dispatch(*gpu.DispatchCall) {}

// MemoryBarrier implements gpu.Device.
func (d *Device) MemoryBarrier() {}

// kageUniforms maps uniform uploads to Kage names. Kage uniforms must be
// exported, so the first letter is upper-cased.
func kageUniforms(values []gpu.UniformValue) map[string]any {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]any, len(values))
	for _, u := range values {
		var v any
		switch u.Kind {
		case gpu.UniformFloat:
			v = u.Float
		case gpu.UniformInt:
			v = u.Int
		case gpu.UniformVec2:
			v = []float32{u.Vec[0], u.Vec[1]}
		case gpu.UniformVec3:
			v = []float32{u.Vec[0], u.Vec[1], u.Vec[2]}
		case gpu.UniformVec4:
			v = u.Vec[:]
		case gpu.UniformMat4:
			v = u.Mat[:]
		default:
			continue
		}
		out[kageName(u.Name)] = v
	}
	return out
}

func kageName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

var _ gpu.Device = (*Device)(nil)
