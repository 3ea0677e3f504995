package nodegl

import (
	"github.com/phanxgames/nodegl/gpu"
)

// texturedShape draws a shape with a program, sampling its textures and
// feeding it uniforms and per-vertex attribute buffers.
type texturedShape struct {
	shape    *Node
	shader   *Node
	textures []*Node
	uniforms []*Node
	buffers  []*Node

	bindings programBindings
	call     gpu.DrawCall
}

var texturedShapeClass = &nodeClass{
	id:      ClassTexturedShape,
	name:    "TexturedShape",
	newPriv: func() any { return new(texturedShape) },
	params: []Param{
		{Key: "shape", Type: ParamNode, Flags: FlagConstructor, NodeTypes: shapeTypes,
			field: field(func(s *texturedShape) **Node { return &s.shape })},
		{Key: "shader", Type: ParamNode, Flags: FlagConstructor, NodeTypes: []ClassID{ClassShader},
			field: field(func(s *texturedShape) **Node { return &s.shader })},
		{Key: "textures", Type: ParamNodeList, Flags: FlagDotDisplayFieldName,
			NodeTypes: []ClassID{ClassTexture},
			field:     field(func(s *texturedShape) *[]*Node { return &s.textures })},
		{Key: "uniforms", Type: ParamNodeList, Flags: FlagDotDisplayFieldName,
			NodeTypes: uniformTypes,
			field:     field(func(s *texturedShape) *[]*Node { return &s.uniforms })},
		{Key: "buffers", Type: ParamNodeList, Flags: FlagDotDisplayFieldName,
			NodeTypes: bufferTypes,
			field:     field(func(s *texturedShape) *[]*Node { return &s.buffers })},
	},
	init:   texturedShapeInit,
	update: texturedShapeUpdate,
	draw:   texturedShapeDraw,
}

func texturedShapeInit(n *Node) error {
	s := n.priv.(*texturedShape)
	if err := checkTextureUnits(n, len(s.textures)); err != nil {
		return err
	}
	if err := initChildren(s.shape, s.shader); err != nil {
		return err
	}
	if err := initChildren(s.textures...); err != nil {
		return err
	}
	if err := initChildren(s.uniforms...); err != nil {
		return err
	}
	if err := initChildren(s.buffers...); err != nil {
		return err
	}

	g := geometryOf(s.shape)
	for _, bn := range s.buffers {
		if b := bn.priv.(*buffer); b.n != g.vertexCount() {
			return errorf(ErrInvalidArgument, "%s: buffer %q has %d elements for %d vertices",
				n.name, b.id, b.n, g.vertexCount())
		}
	}

	prog := programOf(s.shader)
	s.bindings.resolve(n.device(), prog, s.uniforms, s.textures, s.buffers, samplerFmt, samplerDimsFmt)
	s.call = gpu.DrawCall{
		Program:    prog,
		Positions:  g.posBuf,
		TexCoords:  g.uvBuf,
		Normals:    g.normalBuf,
		Indices:    g.indexBuf,
		IndexCount: len(g.indices),
		IndexType:  g.indexType,
		Mode:       g.mode,
	}
	return nil
}

func texturedShapeUpdate(n *Node, t float64) {
	s := n.priv.(*texturedShape)
	s.shape.update(t)
	updateAll(s.textures, t)
	updateAll(s.uniforms, t)
}

func texturedShapeDraw(n *Node) {
	s := n.priv.(*texturedShape)
	call := &s.call
	call.ModelView = n.ModelView
	call.Projection = n.Projection
	call.Uniforms = s.bindings.uniformValues()
	call.Textures = s.bindings.textures
	call.Buffers = s.bindings.buffers
	n.device().Draw(call)
}
