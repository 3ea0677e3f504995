// Package gpu defines the boundary between the nodegl core and a rendering
// backend. The core never creates a Device; the host supplies one to the
// Context and every node reaches it through the Context it is attached to.
//
// Resource handles are opaque ids. Zero is never a valid handle.
package gpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Buffer, Texture, Program and Framebuffer are opaque resource handles.
type (
	Buffer      uint32
	Texture     uint32
	Program     uint32
	Framebuffer uint32
)

// DefaultFramebuffer is the backend's on-screen target.
const DefaultFramebuffer Framebuffer = 0

// Caps describes the device limits the core checks before allocating.
type Caps struct {
	HasCompute                bool
	MaxComputeWorkGroupCounts [3]int
	MaxTextureUnits           int
	MaxTextureSize            int
}

// BufferUsage hints how often a buffer is rewritten.
type BufferUsage uint8

const (
	UsageStatic  BufferUsage = iota // written once at init
	UsageDynamic                    // rewritten by update passes
)

// TextureFormat is the pixel layout of a texture.
type TextureFormat uint8

const (
	FormatRGBA8 TextureFormat = iota // 8-bit normalized RGBA
	FormatR32F                       // single float channel
	FormatRGBA32F                    // four float channels
	FormatDepth16                    // 16-bit depth
)

// Filter selects texture sampling.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
	FilterNearestMipmapNearest
	FilterNearestMipmapLinear
	FilterLinearMipmapNearest
	FilterLinearMipmapLinear
)

// IsMipmap reports whether f samples mipmap levels.
func (f Filter) IsMipmap() bool {
	return f >= FilterNearestMipmapNearest
}

// Wrap selects texture coordinate wrapping.
type Wrap uint8

const (
	WrapClampToEdge Wrap = iota
	WrapRepeat
	WrapMirroredRepeat
)

// Access selects how a compute program may use a texture image.
type Access uint8

const (
	AccessReadWrite Access = iota
	AccessReadOnly
	AccessWriteOnly
)

// TextureDesc describes a texture to allocate.
type TextureDesc struct {
	Width, Height int
	Format        TextureFormat
	MinFilter     Filter
	MagFilter     Filter
	WrapS, WrapT  Wrap
	Data          []byte // optional initial pixels
}

// ProgramSource holds shader sources. An empty stage selects the backend's
// built-in default for that stage.
type ProgramSource struct {
	Vertex   string
	Fragment string
	Compute  string
}

// IsCompute reports whether the source describes a compute program.
func (s ProgramSource) IsCompute() bool {
	return s.Compute != ""
}

// CompileError is returned by NewProgram when the backend rejects a program.
type CompileError struct {
	Stage      string
	Diagnostic string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("could not compile or link %s shader: %s", e.Stage, e.Diagnostic)
}

// DrawMode is the primitive topology of a draw call.
type DrawMode uint8

const (
	Triangles DrawMode = iota
	TriangleStrip
	TriangleFan
	Lines
	Points
)

// IndexType is the integer width of an index buffer.
type IndexType uint8

const (
	IndexUint8 IndexType = iota
	IndexUint16
	IndexUint32
)

// Size returns the byte width of one index.
func (t IndexType) Size() int {
	switch t {
	case IndexUint8:
		return 1
	case IndexUint16:
		return 2
	default:
		return 4
	}
}

// UniformValue is one uniform upload. Exactly one of the value fields is
// meaningful, selected by Kind.
type UniformValue struct {
	Location int32
	Name     string
	Kind     UniformKind
	Float    float32
	Int      int32
	Vec      [4]float32
	Mat      mgl32.Mat4
}

// UniformKind selects the populated field of a UniformValue.
type UniformKind uint8

const (
	UniformFloat UniformKind = iota
	UniformVec2
	UniformVec3
	UniformVec4
	UniformInt
	UniformMat4
)

// TextureBinding binds a texture to a sampler or image unit.
type TextureBinding struct {
	Unit          int
	Texture       Texture
	SamplerLoc    int32
	DimensionsLoc int32
	Width, Height int
	Access        Access
	Format        TextureFormat
}

// BufferBinding binds a storage buffer to a block index.
type BufferBinding struct {
	Binding int32
	Buffer  Buffer
}

// DrawCall is a single indexed draw.
type DrawCall struct {
	Program    Program
	ModelView  mgl32.Mat4
	Projection mgl32.Mat4
	Positions  Buffer
	TexCoords  Buffer
	Normals    Buffer
	Indices    Buffer
	IndexCount int
	IndexType  IndexType
	Mode       DrawMode
	Uniforms   []UniformValue
	Textures   []TextureBinding
	Buffers    []BufferBinding
}

// DispatchCall is a single compute dispatch.
type DispatchCall struct {
	Program  Program
	Groups   [3]int
	Uniforms []UniformValue
	Textures []TextureBinding
	Buffers  []BufferBinding
}

// Device is the capability object a backend exposes to the core.
// All methods are called from the traversal thread only.
type Device interface {
	Caps() Caps

	NewBuffer(data []byte, usage BufferUsage) (Buffer, error)
	UpdateBuffer(b Buffer, data []byte) error
	DeleteBuffer(b Buffer)

	NewTexture(desc TextureDesc) (Texture, error)
	DeleteTexture(t Texture)
	GenerateMipmap(t Texture)

	NewProgram(src ProgramSource) (Program, error)
	DeleteProgram(p Program)
	// UniformLocation returns -1 when the program has no such uniform.
	UniformLocation(p Program, name string) int32
	// BlockBinding returns -1 when the program has no such storage block.
	BlockBinding(p Program, name string) int32

	NewFramebuffer(color, depth Texture) (Framebuffer, error)
	DeleteFramebuffer(fb Framebuffer)
	// BindFramebuffer makes fb current and returns the previous binding.
	BindFramebuffer(fb Framebuffer) Framebuffer

	Viewport() [4]int
	SetViewport(x, y, w, h int)
	Clear()

	Draw(call *DrawCall)
	Dispatch(call *DispatchCall)
	MemoryBarrier()
}
