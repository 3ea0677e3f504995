package nodegl

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/nodegl/gpu"
)

// geometry is the vertex data shared by the shape classes: positions (xyz),
// texture coordinates (uv) and normals (xyz) per vertex, plus indices.
type geometry struct {
	positions []float32
	texcoords []float32
	normals   []float32
	indices   []uint32
	indexType gpu.IndexType
	mode      gpu.DrawMode
	dynamic   bool

	posBuf, uvBuf, normalBuf, indexBuf gpu.Buffer
	scratch                            []byte
}

func (g *geometry) geom() *geometry { return g }

// geometric is implemented by the private state of every shape class.
type geometric interface {
	geom() *geometry
}

func geometryOf(n *Node) *geometry {
	return n.priv.(geometric).geom()
}

func (g *geometry) vertexCount() int { return len(g.positions) / 3 }

// upload creates the device buffers.
func (g *geometry) upload(n *Node) error {
	d := n.device()
	usage := gpu.UsageStatic
	if g.dynamic {
		usage = gpu.UsageDynamic
	}
	var err error
	if g.posBuf, err = d.NewBuffer(appendFloat32s(nil, g.positions), usage); err != nil {
		return allocErr(n, "positions", err)
	}
	if g.uvBuf, err = d.NewBuffer(appendFloat32s(nil, g.texcoords), gpu.UsageStatic); err != nil {
		return allocErr(n, "texture coordinates", err)
	}
	if g.normalBuf, err = d.NewBuffer(appendFloat32s(nil, g.normals), gpu.UsageStatic); err != nil {
		return allocErr(n, "normals", err)
	}
	if g.indexBuf, err = d.NewBuffer(encodeIndices(g.indices, g.indexType), gpu.UsageStatic); err != nil {
		return allocErr(n, "indices", err)
	}
	return nil
}

func (g *geometry) release(n *Node) {
	d := n.device()
	for _, b := range []*gpu.Buffer{&g.posBuf, &g.uvBuf, &g.normalBuf, &g.indexBuf} {
		if *b != 0 {
			d.DeleteBuffer(*b)
			*b = 0
		}
	}
}

// updatePositions re-uploads the position buffer.
func (g *geometry) updatePositions(n *Node) {
	g.scratch = appendFloat32s(g.scratch[:0], g.positions)
	if err := n.device().UpdateBuffer(g.posBuf, g.scratch); err != nil {
		n.logf(LogError, "could not update positions: %v", err)
	}
}

func geometryUninit(n *Node) {
	geometryOf(n).release(n)
}

// --- ShapePrimitive ---

// shapePrimitive is one vertex of a Shape. Each coordinate may be offset by
// its own scalar animation.
type shapePrimitive struct {
	coordinates mgl32.Vec3
	texcoords   mgl32.Vec2
	normals     mgl32.Vec3
	anim        [3]animated
	offset      [3]float32
}

func (s *shapePrimitive) isDynamic() bool {
	return len(s.anim[0].animkf)+len(s.anim[1].animkf)+len(s.anim[2].animkf) > 0
}

var shapePrimitiveClass = &nodeClass{
	id:      ClassShapePrimitive,
	name:    "ShapePrimitive",
	newPriv: func() any { return new(shapePrimitive) },
	params: []Param{
		{Key: "coordinates", Type: ParamVec3, Flags: FlagConstructor,
			field: field(func(s *shapePrimitive) *mgl32.Vec3 { return &s.coordinates })},
		{Key: "texture_coordinates", Type: ParamVec2, Flags: FlagConstructor,
			field: field(func(s *shapePrimitive) *mgl32.Vec2 { return &s.texcoords })},
		{Key: "normals", Type: ParamVec3, Flags: FlagInitOnly,
			field: field(func(s *shapePrimitive) *mgl32.Vec3 { return &s.normals })},
		animkfParam("animkf_x", ClassAnimKeyFrameScalar, func(s *shapePrimitive) *animated { return &s.anim[0] }),
		animkfParam("animkf_y", ClassAnimKeyFrameScalar, func(s *shapePrimitive) *animated { return &s.anim[1] }),
		animkfParam("animkf_z", ClassAnimKeyFrameScalar, func(s *shapePrimitive) *animated { return &s.anim[2] }),
	},
	init: func(n *Node) error {
		s := n.priv.(*shapePrimitive)
		for i := range s.anim {
			if err := initChildren(s.anim[i].animkf...); err != nil {
				return err
			}
		}
		return nil
	},
	update: func(n *Node, t float64) {
		s := n.priv.(*shapePrimitive)
		for i := range s.anim {
			s.anim[i].sample(s.offset[i:i+1], t)
		}
	},
}

// --- Shape ---

type shape struct {
	geometry
	primitives []*Node
	drawMode   int
	drawType   int
}

var shapeClass = &nodeClass{
	id:      ClassShape,
	name:    "Shape",
	newPriv: func() any { return new(shape) },
	params: []Param{
		{Key: "primitives", Type: ParamNodeList, Flags: FlagDotDisplayPacked,
			NodeTypes: []ClassID{ClassShapePrimitive},
			field:     field(func(s *shape) *[]*Node { return &s.primitives })},
		{Key: "draw_mode", Type: ParamInt, Default: DefaultValue{I64: int64(gpu.Triangles)}, Flags: FlagInitOnly,
			field: field(func(s *shape) *int { return &s.drawMode }),
			check: checkEnum("draw mode", int(gpu.Points))},
		{Key: "draw_type", Type: ParamInt, Default: DefaultValue{I64: int64(gpu.IndexUint16)}, Flags: FlagInitOnly,
			field: field(func(s *shape) *int { return &s.drawType }),
			check: checkEnum("index type", int(gpu.IndexUint32))},
	},
	init:   shapeInit,
	update: shapeUpdate,
	uninit: geometryUninit,
}

func shapeInit(n *Node) error {
	s := n.priv.(*shape)
	if err := initChildren(s.primitives...); err != nil {
		return err
	}
	s.mode = gpu.DrawMode(s.drawMode)
	s.indexType = gpu.IndexType(s.drawType)
	count := len(s.primitives)
	if limit := 1 << (8 * s.indexType.Size()); s.indexType != gpu.IndexUint32 && count > limit {
		return errorf(ErrInvalidArgument, "%s: %d primitives do not fit %d-byte indices", n.name, count, s.indexType.Size())
	}

	s.positions = make([]float32, 0, 3*count)
	s.texcoords = make([]float32, 0, 2*count)
	s.normals = make([]float32, 0, 3*count)
	s.indices = make([]uint32, count)
	for i, pn := range s.primitives {
		p := pn.priv.(*shapePrimitive)
		s.positions = append(s.positions, p.coordinates[:]...)
		s.texcoords = append(s.texcoords, p.texcoords[:]...)
		s.normals = append(s.normals, p.normals[:]...)
		s.indices[i] = uint32(i)
		s.dynamic = s.dynamic || p.isDynamic()
	}
	return s.upload(n)
}

func shapeUpdate(n *Node, t float64) {
	s := n.priv.(*shape)
	if !s.dynamic {
		return
	}
	for i, pn := range s.primitives {
		p := pn.priv.(*shapePrimitive)
		if !p.isDynamic() {
			continue
		}
		pn.update(t)
		for c := 0; c < 3; c++ {
			s.positions[3*i+c] = p.coordinates[c] + p.offset[c]
		}
	}
	s.updatePositions(n)
}

// --- Triangle ---

type triangle struct {
	geometry
	edges   [3]mgl32.Vec3
	uvEdges [3]mgl32.Vec2
}

var triangleClass = &nodeClass{
	id:      ClassTriangle,
	name:    "Triangle",
	newPriv: func() any { return new(triangle) },
	params: []Param{
		{Key: "edge0", Type: ParamVec3, Flags: FlagConstructor,
			field: field(func(s *triangle) *mgl32.Vec3 { return &s.edges[0] })},
		{Key: "edge1", Type: ParamVec3, Flags: FlagConstructor,
			field: field(func(s *triangle) *mgl32.Vec3 { return &s.edges[1] })},
		{Key: "edge2", Type: ParamVec3, Flags: FlagConstructor,
			field: field(func(s *triangle) *mgl32.Vec3 { return &s.edges[2] })},
		{Key: "uv_edge0", Type: ParamVec2, Flags: FlagInitOnly,
			field: field(func(s *triangle) *mgl32.Vec2 { return &s.uvEdges[0] })},
		{Key: "uv_edge1", Type: ParamVec2, Flags: FlagInitOnly, Default: DefaultValue{Vec: [4]float32{1, 0}},
			field: field(func(s *triangle) *mgl32.Vec2 { return &s.uvEdges[1] })},
		{Key: "uv_edge2", Type: ParamVec2, Flags: FlagInitOnly, Default: DefaultValue{Vec: [4]float32{0, 1}},
			field: field(func(s *triangle) *mgl32.Vec2 { return &s.uvEdges[2] })},
	},
	init: func(n *Node) error {
		s := n.priv.(*triangle)
		normal := s.edges[1].Sub(s.edges[0]).Cross(s.edges[2].Sub(s.edges[0]))
		if normal.Len() > 0 {
			normal = normal.Normalize()
		}
		s.positions, s.texcoords, s.normals = nil, nil, nil
		for i := range s.edges {
			s.positions = append(s.positions, s.edges[i][:]...)
			s.texcoords = append(s.texcoords, s.uvEdges[i][:]...)
			s.normals = append(s.normals, normal[:]...)
		}
		s.indices = []uint32{0, 1, 2}
		s.indexType = gpu.IndexUint16
		s.mode = gpu.Triangles
		return s.upload(n)
	},
	uninit: geometryUninit,
}

// --- Quad ---

type quad struct {
	geometry
	corner, width, height       mgl32.Vec3
	uvCorner, uvWidth, uvHeight mgl32.Vec2
}

var quadClass = &nodeClass{
	id:      ClassQuad,
	name:    "Quad",
	newPriv: func() any { return new(quad) },
	params: []Param{
		{Key: "corner", Type: ParamVec3, Flags: FlagConstructor,
			field: field(func(s *quad) *mgl32.Vec3 { return &s.corner })},
		{Key: "width", Type: ParamVec3, Flags: FlagConstructor,
			field: field(func(s *quad) *mgl32.Vec3 { return &s.width })},
		{Key: "height", Type: ParamVec3, Flags: FlagConstructor,
			field: field(func(s *quad) *mgl32.Vec3 { return &s.height })},
		{Key: "uv_corner", Type: ParamVec2, Flags: FlagInitOnly,
			field: field(func(s *quad) *mgl32.Vec2 { return &s.uvCorner })},
		{Key: "uv_width", Type: ParamVec2, Flags: FlagInitOnly, Default: DefaultValue{Vec: [4]float32{1, 0}},
			field: field(func(s *quad) *mgl32.Vec2 { return &s.uvWidth })},
		{Key: "uv_height", Type: ParamVec2, Flags: FlagInitOnly, Default: DefaultValue{Vec: [4]float32{0, 1}},
			field: field(func(s *quad) *mgl32.Vec2 { return &s.uvHeight })},
	},
	init: func(n *Node) error {
		s := n.priv.(*quad)
		c, w, h := s.corner, s.width, s.height
		uc, uw, uh := s.uvCorner, s.uvWidth, s.uvHeight
		normal := w.Cross(h)
		if normal.Len() > 0 {
			normal = normal.Normalize()
		}
		corners := [4]mgl32.Vec3{c, c.Add(w), c.Add(w).Add(h), c.Add(h)}
		uvs := [4]mgl32.Vec2{uc, uc.Add(uw), uc.Add(uw).Add(uh), uc.Add(uh)}
		s.positions, s.texcoords, s.normals = nil, nil, nil
		for i := range corners {
			s.positions = append(s.positions, corners[i][:]...)
			s.texcoords = append(s.texcoords, uvs[i][:]...)
			s.normals = append(s.normals, normal[:]...)
		}
		s.indices = []uint32{0, 1, 2, 0, 2, 3}
		s.indexType = gpu.IndexUint16
		s.mode = gpu.Triangles
		return s.upload(n)
	},
	uninit: geometryUninit,
}
