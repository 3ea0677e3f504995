package nodegl

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/nodegl/gpu"
)

// uniform is the private state shared by the six uniform classes. id is
// the uniform name looked up in the program of the node using it.
type uniform struct {
	id        string
	scalar    float64
	vec2      mgl32.Vec2
	vec3      mgl32.Vec3
	vec4      mgl32.Vec4
	ival      int
	transform *Node
	matrix    mgl32.Mat4
	anim      animated
}

func newUniform() any { return new(uniform) }

var uniformIDParam = Param{Key: "id", Type: ParamString, Flags: FlagConstructor,
	field: field(func(s *uniform) *string { return &s.id })}

func uniformAnimParam(kf ClassID) Param {
	return animkfParam("animkf", kf, func(s *uniform) *animated { return &s.anim })
}

func uniformInit(n *Node) error {
	s := n.priv.(*uniform)
	s.matrix = mgl32.Ident4()
	if err := initChildren(s.anim.animkf...); err != nil {
		return err
	}
	return initChildren(s.transform)
}

var uniformScalarClass = &nodeClass{
	id:      ClassUniformScalar,
	name:    "UniformScalar",
	newPriv: newUniform,
	params: []Param{
		uniformIDParam,
		{Key: "value", Type: ParamDouble,
			field: field(func(s *uniform) *float64 { return &s.scalar })},
		uniformAnimParam(ClassAnimKeyFrameScalar),
	},
	init: uniformInit,
	update: func(n *Node, t float64) {
		s := n.priv.(*uniform)
		var v [1]float32
		if s.anim.sample(v[:], t) {
			s.scalar = float64(v[0])
		}
	},
}

var uniformVec2Class = &nodeClass{
	id:      ClassUniformVec2,
	name:    "UniformVec2",
	newPriv: newUniform,
	params: []Param{
		uniformIDParam,
		{Key: "value", Type: ParamVec2,
			field: field(func(s *uniform) *mgl32.Vec2 { return &s.vec2 })},
		uniformAnimParam(ClassAnimKeyFrameVec2),
	},
	init: uniformInit,
	update: func(n *Node, t float64) {
		s := n.priv.(*uniform)
		s.anim.sample(s.vec2[:], t)
	},
}

var uniformVec3Class = &nodeClass{
	id:      ClassUniformVec3,
	name:    "UniformVec3",
	newPriv: newUniform,
	params: []Param{
		uniformIDParam,
		{Key: "value", Type: ParamVec3,
			field: field(func(s *uniform) *mgl32.Vec3 { return &s.vec3 })},
		uniformAnimParam(ClassAnimKeyFrameVec3),
	},
	init: uniformInit,
	update: func(n *Node, t float64) {
		s := n.priv.(*uniform)
		s.anim.sample(s.vec3[:], t)
	},
}

var uniformVec4Class = &nodeClass{
	id:      ClassUniformVec4,
	name:    "UniformVec4",
	newPriv: newUniform,
	params: []Param{
		uniformIDParam,
		{Key: "value", Type: ParamVec4,
			field: field(func(s *uniform) *mgl32.Vec4 { return &s.vec4 })},
		uniformAnimParam(ClassAnimKeyFrameVec4),
	},
	init: uniformInit,
	update: func(n *Node, t float64) {
		s := n.priv.(*uniform)
		s.anim.sample(s.vec4[:], t)
	},
}

var uniformIntClass = &nodeClass{
	id:      ClassUniformInt,
	name:    "UniformInt",
	newPriv: newUniform,
	params: []Param{
		uniformIDParam,
		{Key: "value", Type: ParamInt,
			field: field(func(s *uniform) *int { return &s.ival })},
	},
	init: uniformInit,
}

var uniformMat4Class = &nodeClass{
	id:      ClassUniformMat4,
	name:    "UniformMat4",
	newPriv: newUniform,
	params: []Param{
		uniformIDParam,
		{Key: "transform", Type: ParamNode, NodeTypes: transformTypes,
			field: field(func(s *uniform) **Node { return &s.transform })},
	},
	init: uniformInit,
	update: func(n *Node, t float64) {
		s := n.priv.(*uniform)
		if s.transform == nil {
			return
		}
		s.transform.update(t)
		s.matrix = chainMatrix(s.transform)
	},
}

// uniformBinding resolves the location of every uniform in a program.
type uniformBinding struct {
	node *Node
	loc  int32
}

func bindUniforms(d gpu.Device, prog gpu.Program, nodes []*Node) []uniformBinding {
	out := make([]uniformBinding, len(nodes))
	for i, u := range nodes {
		out[i] = uniformBinding{node: u, loc: d.UniformLocation(prog, u.priv.(*uniform).id)}
	}
	return out
}

// uniformValues converts the current uniform values for upload. Uniforms
// the program does not use are skipped.
func uniformValues(dst []gpu.UniformValue, bindings []uniformBinding) []gpu.UniformValue {
	for _, b := range bindings {
		if b.loc < 0 {
			continue
		}
		s := b.node.priv.(*uniform)
		v := gpu.UniformValue{Location: b.loc, Name: s.id}
		switch b.node.class.id {
		case ClassUniformScalar:
			v.Kind, v.Float = gpu.UniformFloat, float32(s.scalar)
		case ClassUniformVec2:
			v.Kind, v.Vec = gpu.UniformVec2, [4]float32{s.vec2[0], s.vec2[1]}
		case ClassUniformVec3:
			v.Kind, v.Vec = gpu.UniformVec3, [4]float32{s.vec3[0], s.vec3[1], s.vec3[2]}
		case ClassUniformVec4:
			v.Kind, v.Vec = gpu.UniformVec4, s.vec4
		case ClassUniformInt:
			v.Kind, v.Int = gpu.UniformInt, int32(s.ival)
		case ClassUniformMat4:
			v.Kind, v.Mat = gpu.UniformMat4, s.matrix
		default:
			b.node.logf(LogError, "unsupported uniform class %s", b.node.class.name)
			continue
		}
		dst = append(dst, v)
	}
	return dst
}
