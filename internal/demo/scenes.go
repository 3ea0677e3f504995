package demo

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/nodegl"
	"github.com/phanxgames/nodegl/gpu"
)

// Fragment programs are Kage, the shading language of the ebiten backend.
const (
	gradientFragment = `//kage:unit pixels

package main

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	c := srcPos
	return vec4(c.y-c.x, c.x, 1-c.y, 1)
}
`

	colorFragment = `//kage:unit pixels

package main

var Color vec4

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	return vec4(Color.rgb*Color.a, Color.a)
}
`

	textureFragment = `//kage:unit pixels

package main

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	return imageSrc0At(srcPos)
}
`
)

const fillCompute = `#version 430

layout(local_size_x = 1, local_size_y = 1) in;
layout(rgba32f, binding = 0) uniform image2D img0;
uniform float time;

void main(void)
{
    ivec2 pixel_coords = ivec2(gl_GlobalInvocationID.xy);
    vec2 uv = vec2(pixel_coords) / vec2(img0_dimensions);
    imageStore(img0, pixel_coords, vec4(uv.x, uv.y, 0.5 + 0.5 * sin(time), 1.0));
}
`

func init() {
	register(Scene{
		Name:        "triangle",
		Description: "spinning triangle with a texture-coordinate gradient",
		Duration:    3,
		Build:       func() (*nodegl.Node, error) { return Triangle(0.5, 3) },
	})
	register(Scene{
		Name:        "fibo",
		Description: "nested rotating quads sized after the Fibonacci sequence",
		Duration:    5,
		Build:       func() (*nodegl.Node, error) { return Fibo(8, 5) },
	})
	register(Scene{
		Name:         "compute",
		Description:  "compute shader filling a texture shown on a full-screen quad",
		Duration:     4,
		NeedsCompute: true,
		Build:        func() (*nodegl.Node, error) { return ComputeFill(512, 4) },
	})
	register(Scene{
		Name:        "rtt",
		Description: "triangle rendered to a texture, mapped on a rotating quad",
		Duration:    4,
		Build:       func() (*nodegl.Node, error) { return RenderToTexture(256, 4) },
	})
}

// Triangle builds an equilateral triangle of the given size turning twice
// clockwise over duration seconds.
func Triangle(size, duration float64) (*nodegl.Node, error) {
	var b builder
	bx := float32(size * math.Sqrt(3) / 2)
	c := float32(size / 2)

	tri := b.node(nodegl.ClassTriangle,
		mgl32.Vec3{-bx, -c, 0}, mgl32.Vec3{bx, -c, 0}, mgl32.Vec3{0, float32(size), 0})
	sh := b.node(nodegl.ClassShader)
	b.set(sh, "fragment_data", gradientFragment)
	ts := b.node(nodegl.ClassTexturedShape, tri, sh)
	b.add(ts, "textures", b.node(nodegl.ClassTexture))

	rot := b.node(nodegl.ClassRotate, ts)
	b.add(rot, "animkf", b.keyFrame(0, 0.0, ""), b.keyFrame(duration, -360*2.0, ""))
	return b.done(rot)
}

// Fibo builds n-1 quads, each nested in a rotation anchored at its corner,
// so that the rotations compound down the chain.
func Fibo(n int, duration float64) (*nodegl.Node, error) {
	var b builder

	fib := []int{0, 1, 1}
	for i := 2; i < n; i++ {
		fib = append(fib, fib[i]+fib[i-1])
	}
	sum := 0
	for _, x := range fib {
		sum += x
	}
	for i, j := 0, len(fib)-1; i < j; i, j = i+1, j-1 {
		fib[i], fib[j] = fib[j], fib[i]
	}

	const shift = 1.0 / 3
	scale := 1 / ((2 - shift) * float64(sum))

	sh := b.node(nodegl.ClassShader)
	b.set(sh, "fragment_data", colorFragment)

	orig := mgl32.Vec3{-shift, -shift, 0}
	var root, g *nodegl.Node
	for i, x := range fib[:len(fib)-1] {
		w := float32(float64(x) * scale)
		gray := float32(1 - float64(i)/float64(n))

		q := b.node(nodegl.ClassQuad, orig, mgl32.Vec3{w, 0, 0}, mgl32.Vec3{0, w, 0})
		ts := b.node(nodegl.ClassTexturedShape, q, sh)
		color := b.node(nodegl.ClassUniformVec4, "color")
		b.set(color, "value", gray, gray, gray, 1)
		b.add(ts, "uniforms", color)

		next := b.node(nodegl.ClassGroup)
		rot := b.node(nodegl.ClassRotate, next)
		b.set(rot, "anchor", orig)
		b.add(rot, "animkf",
			b.keyFrame(0, 90.0, "exp_in_out"),
			b.keyFrame(duration/2, -90.0, "exp_in_out"),
			b.keyFrame(duration, 90.0, ""))
		if g != nil {
			b.add(g, "children", rot)
		} else {
			root = rot
		}
		g = next
		b.add(next, "children", ts)
		orig = orig.Add(mgl32.Vec3{w, w, 0})
	}

	cam := b.node(nodegl.ClassCamera, root)
	b.set(cam, "eye", 0, 0, 2)
	b.set(cam, "center", 0, 0, 0)
	b.set(cam, "up", 0, 1, 0)
	b.set(cam, "perspective", 45, 0, 1, 10)
	return b.done(cam)
}

// ComputeFill builds a compute pass writing a size x size float texture,
// followed by a full-screen quad sampling it. The pass runs once per frame.
func ComputeFill(size int, duration float64) (*nodegl.Node, error) {
	var b builder

	tex := b.node(nodegl.ClassTexture)
	b.set(tex, "width", size)
	b.set(tex, "height", size)
	b.set(tex, "format", int(gpu.FormatRGBA32F))
	b.set(tex, "access", int(gpu.AccessWriteOnly))

	cs := b.node(nodegl.ClassComputeShader, fillCompute)
	comp := b.node(nodegl.ClassCompute, size, size, 1, cs)
	b.add(comp, "textures", tex)
	time := b.node(nodegl.ClassUniformScalar, "time")
	b.add(time, "animkf", b.keyFrame(0, 0.0, ""), b.keyFrame(duration, 2*math.Pi, ""))
	b.add(comp, "uniforms", time)

	q := b.node(nodegl.ClassQuad, mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{2, 0, 0}, mgl32.Vec3{0, 2, 0})
	sh := b.node(nodegl.ClassShader)
	b.set(sh, "fragment_data", textureFragment)
	ts := b.node(nodegl.ClassTexturedShape, q, sh)
	b.add(ts, "textures", tex)

	g := b.node(nodegl.ClassGroup)
	b.add(g, "children", comp, ts)
	return b.done(g)
}

// RenderToTexture draws the triangle scene into a size x size texture and
// maps it on a quad turning around the Y axis.
func RenderToTexture(size int, duration float64) (*nodegl.Node, error) {
	var b builder

	inner, err := Triangle(0.8, duration)
	if err != nil {
		return nil, err
	}
	defer inner.Unref()

	tex := b.node(nodegl.ClassTexture)
	b.set(tex, "width", size)
	b.set(tex, "height", size)
	b.set(tex, "min_filter", int(gpu.FilterLinearMipmapLinear))
	rtt := b.node(nodegl.ClassRTT, inner, tex)

	q := b.node(nodegl.ClassQuad, mgl32.Vec3{-0.5, -0.5, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
	sh := b.node(nodegl.ClassShader)
	b.set(sh, "fragment_data", textureFragment)
	ts := b.node(nodegl.ClassTexturedShape, q, sh)
	b.add(ts, "textures", tex)

	rot := b.node(nodegl.ClassRotate, ts)
	b.set(rot, "axis", 0, 1, 0)
	b.add(rot, "animkf", b.keyFrame(0, 0.0, "sine_in_out"), b.keyFrame(duration, 360.0, ""))

	g := b.node(nodegl.ClassGroup)
	b.add(g, "children", rtt, rot)
	return b.done(g)
}
