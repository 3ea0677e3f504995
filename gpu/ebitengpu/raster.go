package ebitengpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/nodegl/gpu"
)

// decodeFloats reads little-endian float32 values.
func decodeFloats(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out
}

// decodeIndices reads count indices of width t.
func decodeIndices(data []byte, t gpu.IndexType, count int) []uint32 {
	size := t.Size()
	if n := len(data) / size; count > n {
		count = n
	}
	out := make([]uint32, count)
	for i := range out {
		switch t {
		case gpu.IndexUint8:
			out[i] = uint32(data[i])
		case gpu.IndexUint16:
			out[i] = uint32(binary.LittleEndian.Uint16(data[2*i:]))
		default:
			out[i] = binary.LittleEndian.Uint32(data[4*i:])
		}
	}
	return out
}

// triangleList expands an indexed topology into a plain triangle list.
// Lines and points have no ebiten equivalent and yield nothing.
func triangleList(idx []uint32, mode gpu.DrawMode) []uint32 {
	switch mode {
	case gpu.Triangles:
		return idx[:len(idx)/3*3]
	case gpu.TriangleStrip:
		var out []uint32
		for i := 2; i < len(idx); i++ {
			if i%2 == 0 {
				out = append(out, idx[i-2], idx[i-1], idx[i])
			} else {
				out = append(out, idx[i-1], idx[i-2], idx[i])
			}
		}
		return out
	case gpu.TriangleFan:
		var out []uint32
		for i := 2; i < len(idx); i++ {
			out = append(out, idx[0], idx[i-1], idx[i])
		}
		return out
	}
	return nil
}

// projectVertices transforms positions (vec3) through projection*modelView
// into pixel coordinates of a w x h target, Y pointing down. Texture
// coordinates (vec2) are scaled to the source size.
//
// Matrix layout follows mgl32: column-major, clip = P * MV * pos.
func projectVertices(pos, uv []float32, mvp mgl32.Mat4, w, h int, srcW, srcH float32) []ebiten.Vertex {
	n := len(pos) / 3
	verts := make([]ebiten.Vertex, n)
	for i := range verts {
		clip := mvp.Mul4x1(mgl32.Vec4{pos[3*i], pos[3*i+1], pos[3*i+2], 1})
		if clip[3] != 0 {
			clip = clip.Mul(1 / clip[3])
		}
		v := ebiten.Vertex{
			DstX:   (clip[0] + 1) * 0.5 * float32(w),
			DstY:   (1 - clip[1]) * 0.5 * float32(h),
			ColorR: 1,
			ColorG: 1,
			ColorB: 1,
			ColorA: 1,
		}
		if 2*i+1 < len(uv) {
			v.SrcX = uv[2*i] * srcW
			v.SrcY = (1 - uv[2*i+1]) * srcH
		}
		verts[i] = v
	}
	return verts
}

// narrowIndices converts to ebiten's 16-bit indices. ok is false when an
// index does not fit.
func narrowIndices(idx []uint32) ([]uint16, bool) {
	out := make([]uint16, len(idx))
	for i, v := range idx {
		if v > math.MaxUint16 {
			return nil, false
		}
		out[i] = uint16(v)
	}
	return out, true
}

// toRGBA8 converts texture data to premultiplied RGBA8 pixels as expected by
// ebiten.Image.WritePixels. Depth textures have no pixels.
func toRGBA8(desc gpu.TextureDesc) []byte {
	n := desc.Width * desc.Height
	switch desc.Format {
	case gpu.FormatRGBA8:
		if len(desc.Data) != 4*n {
			return nil
		}
		return desc.Data
	case gpu.FormatR32F:
		f := decodeFloats(desc.Data)
		if len(f) != n {
			return nil
		}
		out := make([]byte, 4*n)
		for i, v := range f {
			c := unorm8(v)
			out[4*i], out[4*i+1], out[4*i+2], out[4*i+3] = c, c, c, 0xff
		}
		return out
	case gpu.FormatRGBA32F:
		f := decodeFloats(desc.Data)
		if len(f) != 4*n {
			return nil
		}
		out := make([]byte, 4*n)
		for i := 0; i < n; i++ {
			a := clamp01(f[4*i+3])
			out[4*i] = unorm8(f[4*i] * a)
			out[4*i+1] = unorm8(f[4*i+1] * a)
			out[4*i+2] = unorm8(f[4*i+2] * a)
			out[4*i+3] = unorm8(a)
		}
		return out
	}
	return nil
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

func unorm8(v float32) byte {
	return byte(clamp01(v)*255 + 0.5)
}
