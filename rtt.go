package nodegl

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/nodegl/gpu"
)

// rtt renders its child into a texture. The subtree starts from identity
// model-view and projection matrices.
type rtt struct {
	child        *Node
	colorTexture *Node
	depthTexture *Node

	width, height int
	framebuffer   gpu.Framebuffer
}

var rttClass = &nodeClass{
	id:      ClassRTT,
	name:    "RTT",
	newPriv: func() any { return new(rtt) },
	params: []Param{
		{Key: "child", Type: ParamNode, Flags: FlagConstructor,
			field: field(func(s *rtt) **Node { return &s.child })},
		{Key: "color_texture", Type: ParamNode, Flags: FlagConstructor | FlagDotDisplayFieldName,
			NodeTypes: []ClassID{ClassTexture},
			field:     field(func(s *rtt) **Node { return &s.colorTexture })},
		{Key: "depth_texture", Type: ParamNode, Flags: FlagDotDisplayFieldName,
			NodeTypes: []ClassID{ClassTexture},
			field:     field(func(s *rtt) **Node { return &s.depthTexture })},
	},
	init:   rttInit,
	update: rttUpdate,
	draw:   rttDraw,
	uninit: rttUninit,
}

func rttInit(n *Node) error {
	s := n.priv.(*rtt)
	if err := initChildren(s.colorTexture, s.depthTexture); err != nil {
		return err
	}
	color := textureOf(s.colorTexture)
	s.width, s.height = color.width, color.height

	var depth gpu.Texture
	if s.depthTexture != nil {
		d := textureOf(s.depthTexture)
		if d.width != s.width || d.height != s.height {
			return &ResourceInitError{
				Node:       n.name,
				Diagnostic: fmt.Sprintf("depth texture %dx%d does not match color texture %dx%d", d.width, d.height, s.width, s.height),
			}
		}
		depth = d.handle
	}

	fb, err := n.device().NewFramebuffer(color.handle, depth)
	if err != nil {
		return &ResourceInitError{Node: n.name, Diagnostic: err.Error()}
	}
	s.framebuffer = fb
	n.logf(LogVerbose, "render target %dx%d on texture %d", s.width, s.height, color.handle)
	return s.child.init()
}

func rttUpdate(n *Node, t float64) {
	s := n.priv.(*rtt)
	s.child.update(t)
	s.colorTexture.update(t)
}

func rttDraw(n *Node) {
	s := n.priv.(*rtt)
	d := n.device()

	prev := d.BindFramebuffer(s.framebuffer)
	vp := d.Viewport()
	d.SetViewport(0, 0, s.width, s.height)
	d.Clear()

	s.child.ModelView = mgl32.Ident4()
	s.child.Projection = mgl32.Ident4()
	s.child.draw()

	d.BindFramebuffer(prev)
	d.SetViewport(vp[0], vp[1], vp[2], vp[3])

	if color := textureOf(s.colorTexture); gpu.Filter(color.minFilter).IsMipmap() {
		d.GenerateMipmap(color.handle)
	}
}

func rttUninit(n *Node) {
	s := n.priv.(*rtt)
	if s.framebuffer != 0 {
		n.device().DeleteFramebuffer(s.framebuffer)
		s.framebuffer = 0
	}
}
