package nodegl

import (
	"github.com/phanxgames/nodegl/gpu"
)

// compute dispatches a compute program over a grid of work groups. Linked
// textures are bound as image units, buffers as storage blocks.
type compute struct {
	groups   [3]int
	shader   *Node
	textures []*Node
	uniforms []*Node
	buffers  []*Node

	bindings programBindings
	call     gpu.DispatchCall
}

var computeClass = &nodeClass{
	id:      ClassCompute,
	name:    "Compute",
	newPriv: func() any { return new(compute) },
	params: []Param{
		{Key: "nb_group_x", Type: ParamInt, Flags: FlagConstructor,
			field: field(func(s *compute) *int { return &s.groups[0] }), check: checkCount},
		{Key: "nb_group_y", Type: ParamInt, Flags: FlagConstructor,
			field: field(func(s *compute) *int { return &s.groups[1] }), check: checkCount},
		{Key: "nb_group_z", Type: ParamInt, Flags: FlagConstructor,
			field: field(func(s *compute) *int { return &s.groups[2] }), check: checkCount},
		{Key: "shader", Type: ParamNode, Flags: FlagConstructor, NodeTypes: []ClassID{ClassComputeShader},
			field: field(func(s *compute) **Node { return &s.shader })},
		{Key: "textures", Type: ParamNodeList, Flags: FlagDotDisplayFieldName,
			NodeTypes: []ClassID{ClassTexture},
			field:     field(func(s *compute) *[]*Node { return &s.textures })},
		{Key: "uniforms", Type: ParamNodeList, Flags: FlagDotDisplayFieldName,
			NodeTypes: uniformTypes,
			field:     field(func(s *compute) *[]*Node { return &s.uniforms })},
		{Key: "buffers", Type: ParamNodeList, Flags: FlagDotDisplayFieldName,
			NodeTypes: bufferTypes,
			field:     field(func(s *compute) *[]*Node { return &s.buffers })},
	},
	init:   computeInit,
	update: computeUpdate,
	draw:   computeDraw,
}

func computeInit(n *Node) error {
	s := n.priv.(*compute)
	caps := n.device().Caps()
	if !caps.HasCompute {
		return errorf(ErrDeviceCapabilityExceeded, "%s: device does not support compute shaders", n.name)
	}
	limit := caps.MaxComputeWorkGroupCounts
	if s.groups[0] > limit[0] || s.groups[1] > limit[1] || s.groups[2] > limit[2] {
		return errorf(ErrDeviceCapabilityExceeded,
			"%s: compute work group size (%d, %d, %d) exceeds driver limit (%d, %d, %d)",
			n.name, s.groups[0], s.groups[1], s.groups[2], limit[0], limit[1], limit[2])
	}
	if err := checkTextureUnits(n, len(s.textures)); err != nil {
		return err
	}
	if err := initChildren(s.shader); err != nil {
		return err
	}
	if err := initChildren(s.uniforms...); err != nil {
		return err
	}
	if err := initChildren(s.buffers...); err != nil {
		return err
	}
	if err := initChildren(s.textures...); err != nil {
		return err
	}

	prog := programOf(s.shader)
	s.bindings.resolve(n.device(), prog, s.uniforms, s.textures, s.buffers, imageFmt, imageDimsFmt)
	s.call = gpu.DispatchCall{Program: prog, Groups: s.groups}
	return nil
}

func computeUpdate(n *Node, t float64) {
	s := n.priv.(*compute)
	updateAll(s.textures, t)
	updateAll(s.uniforms, t)
	s.shader.update(t)
}

func computeDraw(n *Node) {
	s := n.priv.(*compute)
	call := &s.call
	call.Uniforms = s.bindings.uniformValues()
	call.Textures = s.bindings.textures
	call.Buffers = s.bindings.buffers
	d := n.device()
	d.Dispatch(call)
	d.MemoryBarrier()
}
