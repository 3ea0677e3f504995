package nodegl

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform classes sample their local transform during update and
// compose it with the incoming model-view during draw, so a subtree shared
// under several parents is drawn once per parent with that parent's
// matrices. The projection passes through unchanged, except under Camera.

// --- Group ---

type group struct {
	children []*Node
}

var groupClass = &nodeClass{
	id:      ClassGroup,
	name:    "Group",
	newPriv: func() any { return new(group) },
	params: []Param{
		{Key: "children", Type: ParamNodeList,
			field: field(func(s *group) *[]*Node { return &s.children })},
	},
	init: func(n *Node) error {
		return initChildren(n.priv.(*group).children...)
	},
	update: func(n *Node, t float64) {
		updateAll(n.priv.(*group).children, t)
	},
	draw: func(n *Node) {
		for _, child := range n.priv.(*group).children {
			n.drawChild(child, n.ModelView)
		}
	},
}

// --- Identity ---

// Identity ends a transform chain. Its model-view is the composed matrix
// of the chain above it.
type identity struct{}

var identityClass = &nodeClass{
	id:      ClassIdentity,
	name:    "Identity",
	newPriv: func() any { return new(identity) },
}

// chainMatrix composes the local transforms sampled by the last update
// down a transform chain.
func chainMatrix(n *Node) mgl32.Mat4 {
	m := mgl32.Ident4()
	for n != nil {
		switch s := n.priv.(type) {
		case *rotate:
			m, n = m.Mul4(s.local), s.child
		case *translate:
			m, n = m.Mul4(s.local), s.child
		case *scale:
			m, n = m.Mul4(s.local), s.child
		default:
			return m
		}
	}
	return m
}

// --- Rotate ---

type rotate struct {
	child  *Node
	angle  float64
	axis   mgl32.Vec3
	anchor mgl32.Vec3
	anim   animated
	local  mgl32.Mat4
}

var rotateClass = &nodeClass{
	id:      ClassRotate,
	name:    "Rotate",
	newPriv: func() any { return new(rotate) },
	params: []Param{
		{Key: "child", Type: ParamNode, Flags: FlagConstructor,
			field: field(func(s *rotate) **Node { return &s.child })},
		{Key: "angle", Type: ParamDouble,
			field: field(func(s *rotate) *float64 { return &s.angle })},
		{Key: "axis", Type: ParamVec3, Default: DefaultValue{Vec: [4]float32{0, 0, 1}},
			field: field(func(s *rotate) *mgl32.Vec3 { return &s.axis }),
			check: checkAxis},
		{Key: "anchor", Type: ParamVec3,
			field: field(func(s *rotate) *mgl32.Vec3 { return &s.anchor })},
		animkfParam("animkf", ClassAnimKeyFrameScalar, func(s *rotate) *animated { return &s.anim }),
	},
	init: func(n *Node) error {
		s := n.priv.(*rotate)
		if err := initChildren(s.anim.animkf...); err != nil {
			return err
		}
		return s.child.init()
	},
	update: func(n *Node, t float64) {
		s := n.priv.(*rotate)
		angle := [1]float32{float32(s.angle)}
		s.anim.sample(angle[:], t)
		s.local = rotation(angle[0], s.axis, s.anchor)
		s.child.update(t)
	},
	draw: func(n *Node) {
		s := n.priv.(*rotate)
		n.drawChild(s.child, n.ModelView.Mul4(s.local))
	},
}

func checkAxis(_ any, v any) error {
	if v.(mgl32.Vec3).Len() == 0 {
		return errorf(ErrInvalidArgument, "rotation axis must not be zero")
	}
	return nil
}

// rotation returns T(anchor)·R(degrees, axis)·T(-anchor), or R alone when
// the anchor is the origin.
func rotation(degrees float32, axis, anchor mgl32.Vec3) mgl32.Mat4 {
	r := mgl32.HomogRotate3D(mgl32.DegToRad(degrees), axis.Normalize())
	if anchor == (mgl32.Vec3{}) {
		return r
	}
	return mgl32.Translate3D(anchor[0], anchor[1], anchor[2]).
		Mul4(r).
		Mul4(mgl32.Translate3D(-anchor[0], -anchor[1], -anchor[2]))
}

// --- Translate ---

type translate struct {
	child  *Node
	vector mgl32.Vec3
	anim   animated
	local  mgl32.Mat4
}

var translateClass = &nodeClass{
	id:      ClassTranslate,
	name:    "Translate",
	newPriv: func() any { return new(translate) },
	params: []Param{
		{Key: "child", Type: ParamNode, Flags: FlagConstructor,
			field: field(func(s *translate) **Node { return &s.child })},
		{Key: "vector", Type: ParamVec3,
			field: field(func(s *translate) *mgl32.Vec3 { return &s.vector })},
		animkfParam("animkf", ClassAnimKeyFrameVec3, func(s *translate) *animated { return &s.anim }),
	},
	init: func(n *Node) error {
		s := n.priv.(*translate)
		if err := initChildren(s.anim.animkf...); err != nil {
			return err
		}
		return s.child.init()
	},
	update: func(n *Node, t float64) {
		s := n.priv.(*translate)
		v := s.vector
		s.anim.sample(v[:], t)
		s.local = mgl32.Translate3D(v[0], v[1], v[2])
		s.child.update(t)
	},
	draw: func(n *Node) {
		s := n.priv.(*translate)
		n.drawChild(s.child, n.ModelView.Mul4(s.local))
	},
}

// --- Scale ---

type scale struct {
	child   *Node
	factors mgl32.Vec3
	anchor  mgl32.Vec3
	anim    animated
	local   mgl32.Mat4
}

var scaleClass = &nodeClass{
	id:      ClassScale,
	name:    "Scale",
	newPriv: func() any { return new(scale) },
	params: []Param{
		{Key: "child", Type: ParamNode, Flags: FlagConstructor,
			field: field(func(s *scale) **Node { return &s.child })},
		{Key: "factors", Type: ParamVec3, Default: DefaultValue{Vec: [4]float32{1, 1, 1}},
			field: field(func(s *scale) *mgl32.Vec3 { return &s.factors })},
		{Key: "anchor", Type: ParamVec3,
			field: field(func(s *scale) *mgl32.Vec3 { return &s.anchor })},
		animkfParam("animkf", ClassAnimKeyFrameVec3, func(s *scale) *animated { return &s.anim }),
	},
	init: func(n *Node) error {
		s := n.priv.(*scale)
		if err := initChildren(s.anim.animkf...); err != nil {
			return err
		}
		return s.child.init()
	},
	update: func(n *Node, t float64) {
		s := n.priv.(*scale)
		f := s.factors
		s.anim.sample(f[:], t)
		m := mgl32.Scale3D(f[0], f[1], f[2])
		if a := s.anchor; a != (mgl32.Vec3{}) {
			m = mgl32.Translate3D(a[0], a[1], a[2]).Mul4(m).Mul4(mgl32.Translate3D(-a[0], -a[1], -a[2]))
		}
		s.local = m
		s.child.update(t)
	},
	draw: func(n *Node) {
		s := n.priv.(*scale)
		n.drawChild(s.child, n.ModelView.Mul4(s.local))
	},
}

// --- Camera ---

type camera struct {
	child       *Node
	eye         mgl32.Vec3
	center      mgl32.Vec3
	up          mgl32.Vec3
	perspective mgl32.Vec4 // fov (degrees), aspect, near, far
	eyeAnim     animated
	view        mgl32.Mat4
}

var cameraClass = &nodeClass{
	id:      ClassCamera,
	name:    "Camera",
	newPriv: func() any { return new(camera) },
	params: []Param{
		{Key: "child", Type: ParamNode, Flags: FlagConstructor,
			field: field(func(s *camera) **Node { return &s.child })},
		{Key: "eye", Type: ParamVec3,
			field: field(func(s *camera) *mgl32.Vec3 { return &s.eye })},
		{Key: "center", Type: ParamVec3, Default: DefaultValue{Vec: [4]float32{0, 0, -1}},
			field: field(func(s *camera) *mgl32.Vec3 { return &s.center })},
		{Key: "up", Type: ParamVec3, Default: DefaultValue{Vec: [4]float32{0, 1, 0}},
			field: field(func(s *camera) *mgl32.Vec3 { return &s.up })},
		{Key: "perspective", Type: ParamVec4,
			field: field(func(s *camera) *mgl32.Vec4 { return &s.perspective })},
		animkfParam("eye_animkf", ClassAnimKeyFrameVec3, func(s *camera) *animated { return &s.eyeAnim }),
	},
	init: func(n *Node) error {
		s := n.priv.(*camera)
		if err := initChildren(s.eyeAnim.animkf...); err != nil {
			return err
		}
		return s.child.init()
	},
	update: func(n *Node, t float64) {
		s := n.priv.(*camera)
		eye := s.eye
		s.eyeAnim.sample(eye[:], t)
		s.view = mgl32.LookAtV(eye, s.center, s.up)
		s.child.update(t)
	},
	draw: func(n *Node) {
		s := n.priv.(*camera)
		s.child.ModelView = n.ModelView.Mul4(s.view)
		s.child.Projection = s.projection(n)
		s.child.draw()
	},
}

// projection returns the perspective projection, or the incoming one when
// no perspective is set. A zero aspect ratio follows the context viewport.
func (s *camera) projection(n *Node) mgl32.Mat4 {
	p := s.perspective
	if p[0] == 0 {
		return n.Projection
	}
	aspect := p[1]
	if aspect == 0 && n.ctx != nil {
		if vp := n.ctx.viewport; vp[3] > 0 {
			aspect = float32(vp[2]) / float32(vp[3])
		}
	}
	if aspect == 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(p[0]), aspect, p[2], p[3])
}

// LocalToView transforms a point from the node's local space by the
// model-view of its last draw.
func (n *Node) LocalToView(p mgl32.Vec3) mgl32.Vec3 {
	return n.ModelView.Mul4x1(p.Vec4(1)).Vec3()
}
