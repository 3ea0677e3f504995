package nodegl

import (
	"errors"

	"github.com/phanxgames/nodegl/gpu"
)

// shader is the private state of Shader and ComputeShader. An empty stage
// selects the backend's default program for that stage.
type shader struct {
	vertex   string
	fragment string
	compute  string

	program gpu.Program
}

var shaderClass = &nodeClass{
	id:      ClassShader,
	name:    "Shader",
	newPriv: func() any { return new(shader) },
	params: []Param{
		{Key: "vertex_data", Type: ParamString, Flags: FlagInitOnly,
			field: field(func(s *shader) *string { return &s.vertex })},
		{Key: "fragment_data", Type: ParamString, Flags: FlagInitOnly,
			field: field(func(s *shader) *string { return &s.fragment })},
	},
	init:   shaderInit,
	uninit: shaderUninit,
}

var computeShaderClass = &nodeClass{
	id:      ClassComputeShader,
	name:    "ComputeShader",
	newPriv: func() any { return new(shader) },
	params: []Param{
		{Key: "compute_data", Type: ParamString, Flags: FlagConstructor,
			field: field(func(s *shader) *string { return &s.compute }),
			check: func(_ any, v any) error {
				if v.(string) == "" {
					return errorf(ErrInvalidArgument, "compute shader source is empty")
				}
				return nil
			}},
	},
	init:   shaderInit,
	uninit: shaderUninit,
}

func shaderInit(n *Node) error {
	s := n.priv.(*shader)
	d := n.device()
	if n.class.id == ClassComputeShader && !d.Caps().HasCompute {
		return errorf(ErrDeviceCapabilityExceeded, "%s: device does not support compute shaders", n.name)
	}
	p, err := d.NewProgram(gpu.ProgramSource{
		Vertex:   s.vertex,
		Fragment: s.fragment,
		Compute:  s.compute,
	})
	if err != nil {
		var ce *gpu.CompileError
		if errors.As(err, &ce) {
			return &ResourceInitError{Node: n.name, Diagnostic: ce.Error()}
		}
		return allocErr(n, "program", err)
	}
	s.program = p
	return nil
}

func shaderUninit(n *Node) {
	s := n.priv.(*shader)
	if s.program != 0 {
		n.device().DeleteProgram(s.program)
		s.program = 0
	}
}

func programOf(n *Node) gpu.Program {
	return n.priv.(*shader).program
}
