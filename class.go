package nodegl

import "fmt"

// ClassID identifies a node class. The set is closed: every class is known
// at compile time and there is no dynamic registration.
type ClassID uint8

const (
	ClassGroup ClassID = iota
	ClassIdentity
	ClassCamera
	ClassRotate
	ClassTranslate
	ClassScale
	ClassAnimKeyFrameScalar
	ClassAnimKeyFrameVec2
	ClassAnimKeyFrameVec3
	ClassAnimKeyFrameVec4
	ClassUniformScalar
	ClassUniformVec2
	ClassUniformVec3
	ClassUniformVec4
	ClassUniformInt
	ClassUniformMat4
	ClassBufferFloat
	ClassBufferVec2
	ClassBufferVec3
	ClassBufferVec4
	ClassTexture
	ClassShader
	ClassComputeShader
	ClassShapePrimitive
	ClassShape
	ClassTriangle
	ClassQuad
	ClassTexturedShape
	ClassCompute
	ClassRTT

	numClasses
)

var classNames = [numClasses]string{
	ClassGroup:              "Group",
	ClassIdentity:           "Identity",
	ClassCamera:             "Camera",
	ClassRotate:             "Rotate",
	ClassTranslate:          "Translate",
	ClassScale:              "Scale",
	ClassAnimKeyFrameScalar: "AnimKeyFrameScalar",
	ClassAnimKeyFrameVec2:   "AnimKeyFrameVec2",
	ClassAnimKeyFrameVec3:   "AnimKeyFrameVec3",
	ClassAnimKeyFrameVec4:   "AnimKeyFrameVec4",
	ClassUniformScalar:      "UniformScalar",
	ClassUniformVec2:        "UniformVec2",
	ClassUniformVec3:        "UniformVec3",
	ClassUniformVec4:        "UniformVec4",
	ClassUniformInt:         "UniformInt",
	ClassUniformMat4:        "UniformMat4",
	ClassBufferFloat:        "BufferFloat",
	ClassBufferVec2:         "BufferVec2",
	ClassBufferVec3:         "BufferVec3",
	ClassBufferVec4:         "BufferVec4",
	ClassTexture:            "Texture",
	ClassShader:             "Shader",
	ClassComputeShader:      "ComputeShader",
	ClassShapePrimitive:     "ShapePrimitive",
	ClassShape:              "Shape",
	ClassTriangle:           "Triangle",
	ClassQuad:               "Quad",
	ClassTexturedShape:      "TexturedShape",
	ClassCompute:            "Compute",
	ClassRTT:                "RTT",
}

func (id ClassID) String() string {
	if id < numClasses {
		return classNames[id]
	}
	return fmt.Sprintf("ClassID(%d)", int(id))
}

// Allowed-class lists shared by several parameter tables.
var (
	transformTypes = []ClassID{ClassRotate, ClassTranslate, ClassScale, ClassIdentity}
	uniformTypes   = []ClassID{
		ClassUniformScalar, ClassUniformVec2, ClassUniformVec3,
		ClassUniformVec4, ClassUniformInt, ClassUniformMat4,
	}
	bufferTypes = []ClassID{ClassBufferFloat, ClassBufferVec2, ClassBufferVec3, ClassBufferVec4}
	shapeTypes  = []ClassID{ClassShape, ClassTriangle, ClassQuad}
)

// nodeClass is the static behaviour shared by all nodes of one kind.
// Every callback is optional. uninit must tolerate the partial state left
// by a failed init.
type nodeClass struct {
	id      ClassID
	name    string
	newPriv func() any
	params  []Param

	init   func(n *Node) error
	update func(n *Node, t float64)
	draw   func(n *Node)
	uninit func(n *Node)
}

// classes maps a ClassID to its class. Filled once by init.
var classes [numClasses]*nodeClass

func init() {
	for _, c := range []*nodeClass{
		groupClass,
		identityClass,
		cameraClass,
		rotateClass,
		translateClass,
		scaleClass,
		animKeyFrameScalarClass,
		animKeyFrameVec2Class,
		animKeyFrameVec3Class,
		animKeyFrameVec4Class,
		uniformScalarClass,
		uniformVec2Class,
		uniformVec3Class,
		uniformVec4Class,
		uniformIntClass,
		uniformMat4Class,
		bufferFloatClass,
		bufferVec2Class,
		bufferVec3Class,
		bufferVec4Class,
		textureClass,
		shaderClass,
		computeShaderClass,
		shapePrimitiveClass,
		shapeClass,
		triangleClass,
		quadClass,
		texturedShapeClass,
		computeClass,
		rttClass,
	} {
		registerClass(c)
	}
	for id, c := range classes {
		if c == nil {
			panic(fmt.Sprintf("nodegl: class %s not registered", ClassID(id)))
		}
	}
}

func registerClass(c *nodeClass) {
	if c.id >= numClasses || classes[c.id] != nil {
		panic(fmt.Sprintf("nodegl: bad class registration %s", c.id))
	}
	if c.name != classNames[c.id] {
		panic(fmt.Sprintf("nodegl: class %s registered as %q", c.id, c.name))
	}
	validateParams(c.name, c.newPriv(), c.params)
	classes[c.id] = c
}

// Params returns the parameter table of a class. The returned slice MUST
// NOT be mutated by the caller.
func Params(id ClassID) []Param {
	if id >= numClasses {
		return nil
	}
	return classes[id].params
}
