package nodegl

import (
	"encoding/binary"
	"math"

	"github.com/phanxgames/nodegl/gpu"
)

// buffer is the private state of the BufferFloat/Vec2/Vec3/Vec4 classes.
// Contents come from the raw data blob, from the values list, or default to
// zeros.
type buffer struct {
	id     string
	n      int
	data   []byte
	values []float64

	comps  int
	handle gpu.Buffer
}

func checkCount(_ any, v any) error {
	if v.(int) <= 0 {
		return errorf(ErrInvalidArgument, "element count must be positive, got %d", v.(int))
	}
	return nil
}

var bufferParams = []Param{
	{Key: "id", Type: ParamString, Flags: FlagConstructor,
		field: field(func(s *buffer) *string { return &s.id })},
	{Key: "n", Type: ParamInt, Flags: FlagConstructor,
		field: field(func(s *buffer) *int { return &s.n }),
		check: checkCount},
	{Key: "data", Type: ParamData, Flags: FlagInitOnly,
		field: field(func(s *buffer) *[]byte { return &s.data })},
	{Key: "values", Type: ParamDoubleList, Flags: FlagInitOnly,
		field: field(func(s *buffer) *[]float64 { return &s.values })},
}

func newBufferClass(id ClassID, name string) *nodeClass {
	return &nodeClass{
		id:      id,
		name:    name,
		newPriv: func() any { return new(buffer) },
		params:  bufferParams,
		init:    bufferInit,
		uninit:  bufferUninit,
	}
}

var (
	bufferFloatClass = newBufferClass(ClassBufferFloat, "BufferFloat")
	bufferVec2Class  = newBufferClass(ClassBufferVec2, "BufferVec2")
	bufferVec3Class  = newBufferClass(ClassBufferVec3, "BufferVec3")
	bufferVec4Class  = newBufferClass(ClassBufferVec4, "BufferVec4")
)

func bufferComponents(id ClassID) int {
	switch id {
	case ClassBufferFloat:
		return 1
	case ClassBufferVec2:
		return 2
	case ClassBufferVec3:
		return 3
	case ClassBufferVec4:
		return 4
	}
	panic("nodegl: not a buffer class: " + id.String())
}

func bufferInit(n *Node) error {
	s := n.priv.(*buffer)
	s.comps = bufferComponents(n.class.id)
	size := s.n * s.comps * 4

	var blob []byte
	switch {
	case s.data != nil:
		if len(s.data) != size {
			return errorf(ErrInvalidArgument, "%s: data is %d bytes, want %d (%d x %d floats)",
				n.name, len(s.data), size, s.n, s.comps)
		}
		blob = s.data
	case s.values != nil:
		if len(s.values) != s.n*s.comps {
			return errorf(ErrInvalidArgument, "%s: %d values, want %d", n.name, len(s.values), s.n*s.comps)
		}
		blob = encodeFloats(s.values)
	default:
		blob = make([]byte, size)
	}

	h, err := n.device().NewBuffer(blob, gpu.UsageDynamic)
	if err != nil {
		return allocErr(n, "buffer", err)
	}
	s.handle = h
	n.logf(LogVerbose, "buffer %q: %d elements of %d floats", s.id, s.n, s.comps)
	return nil
}

func bufferUninit(n *Node) {
	s := n.priv.(*buffer)
	if s.handle != 0 {
		n.device().DeleteBuffer(s.handle)
		s.handle = 0
	}
}

// encodeFloats packs values as little-endian float32.
func encodeFloats(values []float64) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(float32(v)))
	}
	return out
}

// appendFloat32s packs floats as little-endian float32 onto dst.
func appendFloat32s(dst []byte, fs []float32) []byte {
	for _, f := range fs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

// encodeIndices packs indices with the width of t.
func encodeIndices(idx []uint32, t gpu.IndexType) []byte {
	out := make([]byte, 0, len(idx)*t.Size())
	for _, i := range idx {
		switch t {
		case gpu.IndexUint8:
			out = append(out, byte(i))
		case gpu.IndexUint16:
			out = binary.LittleEndian.AppendUint16(out, uint16(i))
		default:
			out = binary.LittleEndian.AppendUint32(out, i)
		}
	}
	return out
}
