package nodegl

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

// easings maps keyframe easing names to gween easing functions. "none"
// holds the starting keyframe value for the whole segment.
var easings = map[string]ease.TweenFunc{
	"none":   nil,
	"linear": ease.Linear,

	"quad_in":     ease.InQuad,
	"quad_out":    ease.OutQuad,
	"quad_in_out": ease.InOutQuad,

	"cubic_in":     ease.InCubic,
	"cubic_out":    ease.OutCubic,
	"cubic_in_out": ease.InOutCubic,

	"quart_in":     ease.InQuart,
	"quart_out":    ease.OutQuart,
	"quart_in_out": ease.InOutQuart,

	"quint_in":     ease.InQuint,
	"quint_out":    ease.OutQuint,
	"quint_in_out": ease.InOutQuint,

	"sine_in":     ease.InSine,
	"sine_out":    ease.OutSine,
	"sine_in_out": ease.InOutSine,

	"exp_in":     ease.InExpo,
	"exp_out":    ease.OutExpo,
	"exp_in_out": ease.InOutExpo,

	"circ_in":     ease.InCirc,
	"circ_out":    ease.OutCirc,
	"circ_in_out": ease.InOutCirc,

	"back_in":     ease.InBack,
	"back_out":    ease.OutBack,
	"back_in_out": ease.InOutBack,

	"elastic_in":     ease.InElastic,
	"elastic_out":    ease.OutElastic,
	"elastic_in_out": ease.InOutElastic,

	"bounce_in":     ease.InBounce,
	"bounce_out":    ease.OutBounce,
	"bounce_in_out": ease.InOutBounce,
}

// animKeyFrame is the private state of the four keyframe classes. Each class
// table binds "value" to the field of its own width.
type animKeyFrame struct {
	time   float64
	scalar float64
	vec2   mgl32.Vec2
	vec3   mgl32.Vec3
	vec4   mgl32.Vec4
	easing string
}

func checkEasing(_ any, v any) error {
	name := v.(string)
	if _, ok := easings[name]; !ok {
		return errorf(ErrInvalidArgument, "unknown easing %q", name)
	}
	return nil
}

func keyFrameParams(value Param) []Param {
	return []Param{
		{Key: "time", Type: ParamDouble, Flags: FlagConstructor,
			field: field(func(s *animKeyFrame) *float64 { return &s.time })},
		value,
		{Key: "easing", Type: ParamString, Default: DefaultValue{Str: "linear"},
			field: field(func(s *animKeyFrame) *string { return &s.easing }),
			check: checkEasing},
	}
}

func newAnimKeyFrame() any { return new(animKeyFrame) }

var animKeyFrameScalarClass = &nodeClass{
	id:      ClassAnimKeyFrameScalar,
	name:    "AnimKeyFrameScalar",
	newPriv: newAnimKeyFrame,
	params: keyFrameParams(Param{Key: "value", Type: ParamDouble, Flags: FlagConstructor,
		field: field(func(s *animKeyFrame) *float64 { return &s.scalar })}),
}

var animKeyFrameVec2Class = &nodeClass{
	id:      ClassAnimKeyFrameVec2,
	name:    "AnimKeyFrameVec2",
	newPriv: newAnimKeyFrame,
	params: keyFrameParams(Param{Key: "value", Type: ParamVec2, Flags: FlagConstructor,
		field: field(func(s *animKeyFrame) *mgl32.Vec2 { return &s.vec2 })}),
}

var animKeyFrameVec3Class = &nodeClass{
	id:      ClassAnimKeyFrameVec3,
	name:    "AnimKeyFrameVec3",
	newPriv: newAnimKeyFrame,
	params: keyFrameParams(Param{Key: "value", Type: ParamVec3, Flags: FlagConstructor,
		field: field(func(s *animKeyFrame) *mgl32.Vec3 { return &s.vec3 })}),
}

var animKeyFrameVec4Class = &nodeClass{
	id:      ClassAnimKeyFrameVec4,
	name:    "AnimKeyFrameVec4",
	newPriv: newAnimKeyFrame,
	params: keyFrameParams(Param{Key: "value", Type: ParamVec4, Flags: FlagConstructor,
		field: field(func(s *animKeyFrame) *mgl32.Vec4 { return &s.vec4 })}),
}

// KeyFrame creates a keyframe of the class matching value: a number gives
// an AnimKeyFrameScalar, an mgl32.Vec2/3/4 the vector classes. An empty
// easing keeps the default "linear".
func KeyFrame(t float64, value any, easing string) (*Node, error) {
	id := ClassAnimKeyFrameScalar
	switch value.(type) {
	case mgl32.Vec2:
		id = ClassAnimKeyFrameVec2
	case mgl32.Vec3:
		id = ClassAnimKeyFrameVec3
	case mgl32.Vec4:
		id = ClassAnimKeyFrameVec4
	}
	n, err := NewNode(id, t, value)
	if err != nil {
		return nil, err
	}
	if easing != "" {
		if err := n.Set("easing", easing); err != nil {
			n.Unref()
			return nil, err
		}
	}
	return n, nil
}

func keyFrameOf(n *Node) *animKeyFrame {
	return n.priv.(*animKeyFrame)
}

// components returns the keyframe value as up to four floats.
func (kf *animKeyFrame) components(class ClassID) [4]float32 {
	switch class {
	case ClassAnimKeyFrameScalar:
		return [4]float32{float32(kf.scalar)}
	case ClassAnimKeyFrameVec2:
		return [4]float32{kf.vec2[0], kf.vec2[1]}
	case ClassAnimKeyFrameVec3:
		return [4]float32{kf.vec3[0], kf.vec3[1], kf.vec3[2]}
	}
	return kf.vec4
}

// checkKeyframes builds a check hook that rejects keyframes whose times do
// not strictly increase, against the list already stored and within the
// batch being added.
func checkKeyframes[S any](list func(*S) *[]*Node) func(any, any) error {
	return func(priv any, v any) error {
		last, have := 0.0, false
		if cur := *list(priv.(*S)); len(cur) > 0 {
			last, have = keyFrameOf(cur[len(cur)-1]).time, true
		}
		for _, n := range v.([]*Node) {
			t := keyFrameOf(n).time
			if have && t <= last {
				return errorf(ErrInvalidArgument, "keyframe time %g does not follow %g", t, last)
			}
			last, have = t, true
		}
		return nil
	}
}

// sampleKeyframes writes the value of an animation at time t into dst (one
// float per component). cursor caches the segment found by the previous
// call: monotonic queries only move it forward, a query before it falls
// back to a binary search. Before the first keyframe the first value is
// used, at or after the last the last value. dst is left untouched when kfs
// is empty.
func sampleKeyframes(dst []float32, kfs []*Node, cursor *int, t float64) {
	if len(kfs) == 0 {
		return
	}
	i := *cursor
	if i < 0 || i >= len(kfs) || keyFrameOf(kfs[i]).time > t {
		i = sort.Search(len(kfs), func(j int) bool { return keyFrameOf(kfs[j]).time > t }) - 1
		if i < 0 {
			i = 0
		}
	}
	for i+1 < len(kfs) && keyFrameOf(kfs[i+1]).time <= t {
		i++
	}
	*cursor = i

	k0 := keyFrameOf(kfs[i])
	v0 := k0.components(kfs[i].class.id)
	if t < k0.time || i == len(kfs)-1 {
		copy(dst, v0[:])
		return
	}
	fn := easings[k0.easing]
	if fn == nil {
		copy(dst, v0[:])
		return
	}
	k1 := keyFrameOf(kfs[i+1])
	v1 := k1.components(kfs[i+1].class.id)
	tnorm := float32((t - k0.time) / (k1.time - k0.time))
	ratio := fn(tnorm, 0, 1, 1)
	for c := range dst {
		dst[c] = v0[c] + (v1[c]-v0[c])*ratio
	}
}

// animated is the per-field animation state embedded in animated classes.
type animated struct {
	animkf []*Node
	cursor int
}

// sample writes the animation value at t into dst and reports whether the
// field is animated at all.
func (a *animated) sample(dst []float32, t float64) bool {
	if len(a.animkf) == 0 {
		return false
	}
	sampleKeyframes(dst, a.animkf, &a.cursor, t)
	return true
}

// animkfParam declares the keyframe list of an animated field.
func animkfParam[S any](key string, kf ClassID, get func(*S) *animated) Param {
	list := func(s *S) *[]*Node { return &get(s).animkf }
	return Param{
		Key:       key,
		Type:      ParamNodeList,
		Flags:     FlagDotDisplayPacked,
		NodeTypes: []ClassID{kf},
		field:     field(list),
		check:     checkKeyframes(list),
	}
}
