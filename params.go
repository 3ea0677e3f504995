package nodegl

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// ParamType is the semantic type of a node parameter.
type ParamType uint8

const (
	ParamInt        ParamType = iota // int
	ParamI64                         // int64
	ParamDouble                      // float64
	ParamString                      // string
	ParamVec2                        // mgl32.Vec2
	ParamVec3                        // mgl32.Vec3
	ParamVec4                        // mgl32.Vec4
	ParamNode                        // *Node, single child
	ParamNodeList                    // []*Node, ordered children
	ParamDoubleList                  // []float64
	ParamData                        // []byte, owned copy
)

var paramTypeNames = [...]string{
	"int", "i64", "double", "string", "vec2", "vec3", "vec4",
	"node", "nodelist", "doublelist", "data",
}

func (t ParamType) String() string {
	if int(t) < len(paramTypeNames) {
		return paramTypeNames[t]
	}
	return fmt.Sprintf("ParamType(%d)", int(t))
}

// ParamFlags qualify a parameter.
type ParamFlags uint8

const (
	// FlagConstructor marks a parameter that must be supplied at creation and
	// cannot be changed afterwards.
	FlagConstructor ParamFlags = 1 << iota
	// FlagDotDisplayPacked renders a node list as a single record in DOT output.
	FlagDotDisplayPacked
	// FlagDotDisplayFieldName labels DOT edges with the parameter key.
	FlagDotDisplayFieldName
	// FlagInitOnly marks a parameter read when resources are allocated. It
	// can be changed until the node is initialized.
	FlagInitOnly
)

// DefaultValue is the type-tagged default of a parameter; the field read
// depends on the parameter type.
type DefaultValue struct {
	I64 int64
	Dbl float64
	Str string
	Vec [4]float32
}

// Param describes one settable field of a node class.
type Param struct {
	Key       string
	Type      ParamType
	Default   DefaultValue
	Flags     ParamFlags
	NodeTypes []ClassID // allowed classes for node-typed params; empty allows any

	// field returns a pointer to the field inside the class private state.
	field func(priv any) any
	// check, when set, vets a converted value before it is written.
	check func(priv any, v any) error
}

// IsConstructor reports whether the parameter is a constructor argument.
func (p *Param) IsConstructor() bool {
	return p.Flags&FlagConstructor != 0
}

// frozen reports whether p can no longer change on a node in this state.
func (p *Param) frozen(initialized bool) bool {
	if !initialized {
		return false
	}
	return p.Type == ParamNode || p.Type == ParamNodeList || p.Flags&FlagInitOnly != 0
}

// field builds a typed accessor for a field of private state *S.
func field[S, F any](get func(*S) *F) func(any) any {
	return func(priv any) any {
		s, ok := priv.(*S)
		if !ok {
			panic(fmt.Sprintf("nodegl: private state is %T, want %T", priv, s))
		}
		return get(s)
	}
}

// expectedPointer returns a zero pointer of the Go type a ParamType field
// must have.
func expectedPointer(t ParamType) any {
	switch t {
	case ParamInt:
		return (*int)(nil)
	case ParamI64:
		return (*int64)(nil)
	case ParamDouble:
		return (*float64)(nil)
	case ParamString:
		return (*string)(nil)
	case ParamVec2:
		return (*mgl32.Vec2)(nil)
	case ParamVec3:
		return (*mgl32.Vec3)(nil)
	case ParamVec4:
		return (*mgl32.Vec4)(nil)
	case ParamNode:
		return (**Node)(nil)
	case ParamNodeList:
		return (*[]*Node)(nil)
	case ParamDoubleList:
		return (*[]float64)(nil)
	case ParamData:
		return (*[]byte)(nil)
	}
	return nil
}

// validateParams checks a class table against a fresh private state. A
// mismatch means the static table and the class implementation disagree.
func validateParams(class string, priv any, params []Param) {
	seen := make(map[string]bool, len(params))
	for i := range params {
		par := &params[i]
		if par.Key == "" || seen[par.Key] {
			panic(fmt.Sprintf("nodegl: class %s: bad or duplicate param key %q", class, par.Key))
		}
		seen[par.Key] = true
		if par.field == nil {
			panic(fmt.Sprintf("nodegl: class %s: param %q has no field accessor", class, par.Key))
		}
		got := reflect.TypeOf(par.field(priv))
		want := reflect.TypeOf(expectedPointer(par.Type))
		if got != want {
			panic(fmt.Sprintf("nodegl: class %s: param %q is %v, declared %s", class, par.Key, got, par.Type))
		}
		if len(par.NodeTypes) > 0 && par.Type != ParamNode && par.Type != ParamNodeList {
			panic(fmt.Sprintf("nodegl: class %s: param %q lists node types but is %s", class, par.Key, par.Type))
		}
	}
}

// findParam looks a parameter up by key. Tables are small; a linear scan
// is all it takes.
func findParam(params []Param, key string) *Param {
	for i := range params {
		if params[i].Key == key {
			return &params[i]
		}
	}
	return nil
}

// --- Value conversion ---

func toInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

// toVec accepts a single mgl32 vector, array or slice of n floats, or n
// numeric components.
func toVec(args []any, n int) ([4]float32, bool) {
	var out [4]float32
	if len(args) == 1 {
		var comps []float32
		switch x := args[0].(type) {
		case mgl32.Vec2:
			comps = x[:]
		case mgl32.Vec3:
			comps = x[:]
		case mgl32.Vec4:
			comps = x[:]
		case [2]float32:
			comps = x[:]
		case [3]float32:
			comps = x[:]
		case [4]float32:
			comps = x[:]
		case []float32:
			comps = x
		default:
			return out, false
		}
		if len(comps) != n {
			return out, false
		}
		copy(out[:], comps)
		return out, true
	}
	if len(args) != n {
		return out, false
	}
	for i, a := range args {
		f, ok := toFloat(a)
		if !ok {
			return out, false
		}
		out[i] = float32(f)
	}
	return out, true
}

// convert turns setter arguments into the canonical value of par.Type.
func convert(par *Param, args []any) (any, error) {
	mismatch := func() error {
		return errorf(ErrTypeMismatch, "param %q expects %s, got %s", par.Key, par.Type, describeArgs(args))
	}
	switch par.Type {
	case ParamVec2, ParamVec3, ParamVec4:
		n := int(par.Type-ParamVec2) + 2
		v, ok := toVec(args, n)
		if !ok {
			return nil, mismatch()
		}
		switch n {
		case 2:
			return mgl32.Vec2{v[0], v[1]}, nil
		case 3:
			return mgl32.Vec3{v[0], v[1], v[2]}, nil
		}
		return mgl32.Vec4(v), nil
	case ParamNodeList, ParamDoubleList:
		return nil, errorf(ErrTypeMismatch, "param %q is a list, use Add", par.Key)
	}
	if len(args) != 1 {
		return nil, mismatch()
	}
	a := args[0]
	switch par.Type {
	case ParamInt:
		if i, ok := toInt64(a); ok {
			return int(i), nil
		}
	case ParamI64:
		if i, ok := toInt64(a); ok {
			return i, nil
		}
	case ParamDouble:
		if f, ok := toFloat(a); ok {
			return f, nil
		}
	case ParamString:
		if s, ok := a.(string); ok {
			return s, nil
		}
	case ParamData:
		switch b := a.(type) {
		case []byte:
			return slices.Clone(b), nil
		case nil:
			return []byte(nil), nil
		}
	case ParamNode:
		switch n := a.(type) {
		case *Node:
			if err := checkNodeClass(par, n); err != nil {
				return nil, err
			}
			return n, nil
		case nil:
			return (*Node)(nil), nil
		}
	}
	return nil, mismatch()
}

func checkNodeClass(par *Param, n *Node) error {
	if n == nil || len(par.NodeTypes) == 0 || slices.Contains(par.NodeTypes, n.class.id) {
		return nil
	}
	allowed := make([]string, len(par.NodeTypes))
	for i, id := range par.NodeTypes {
		allowed[i] = id.String()
	}
	return errorf(ErrInvalidNodeType, "param %q accepts %s, got %s (%s)",
		par.Key, strings.Join(allowed, "|"), n.class.name, n.name)
}

func describeArgs(args []any) string {
	types := make([]string, len(args))
	for i, a := range args {
		types[i] = fmt.Sprintf("%T", a)
	}
	return "(" + strings.Join(types, ", ") + ")"
}

// --- Engine ---

// store writes a converted value. Node slots reference the new node before
// releasing the old one so that re-setting the same node is safe.
func store(priv any, par *Param, v any) {
	switch p := par.field(priv).(type) {
	case *int:
		*p = v.(int)
	case *int64:
		*p = v.(int64)
	case *float64:
		*p = v.(float64)
	case *string:
		*p = v.(string)
	case *mgl32.Vec2:
		*p = v.(mgl32.Vec2)
	case *mgl32.Vec3:
		*p = v.(mgl32.Vec3)
	case *mgl32.Vec4:
		*p = v.(mgl32.Vec4)
	case *[]byte:
		*p = v.([]byte)
	case **Node:
		n := v.(*Node)
		n.Ref()
		old := *p
		*p = n
		old.Unref()
	default:
		panic(fmt.Sprintf("nodegl: param %q: cannot store into %T", par.Key, p))
	}
}

// linkFunc prepares nodes about to be linked into a parameter, e.g. by
// attaching them to the owner's context. An error aborts the write.
type linkFunc func(nodes []*Node) error

// setParam converts, vets and writes a runtime value. On failure the field
// is left untouched.
func setParam(priv any, par *Param, args []any, link linkFunc) error {
	v, err := convert(par, args)
	if err != nil {
		return err
	}
	if par.check != nil {
		if err := par.check(priv, v); err != nil {
			return err
		}
	}
	if n, ok := v.(*Node); ok && n != nil && link != nil {
		if err := link([]*Node{n}); err != nil {
			return err
		}
	}
	store(priv, par, v)
	return nil
}

// setDefaults writes the default of every non-constructor parameter.
func setDefaults(priv any, params []Param) {
	for i := range params {
		par := &params[i]
		if par.IsConstructor() {
			continue
		}
		switch p := par.field(priv).(type) {
		case *int:
			*p = int(par.Default.I64)
		case *int64:
			*p = par.Default.I64
		case *float64:
			*p = par.Default.Dbl
		case *string:
			*p = strings.Clone(par.Default.Str)
		case *mgl32.Vec2:
			*p = mgl32.Vec2{par.Default.Vec[0], par.Default.Vec[1]}
		case *mgl32.Vec3:
			*p = mgl32.Vec3{par.Default.Vec[0], par.Default.Vec[1], par.Default.Vec[2]}
		case *mgl32.Vec4:
			*p = mgl32.Vec4(par.Default.Vec)
		case **Node:
			*p = nil
		case *[]*Node:
			*p = nil
		case *[]float64:
			*p = nil
		case *[]byte:
			*p = nil
		}
	}
}

// setConstructors consumes one argument per constructor parameter, in
// table order. Any arity or value mismatch is an ErrInvalidArgument, except
// a node of a disallowed class which stays an ErrInvalidNodeType.
func setConstructors(priv any, params []Param, args []any) error {
	next := 0
	for i := range params {
		par := &params[i]
		if !par.IsConstructor() {
			continue
		}
		if next >= len(args) {
			return errorf(ErrInvalidArgument, "missing constructor argument %q", par.Key)
		}
		a := args[next]
		next++
		v, err := convert(par, []any{a})
		if err != nil {
			if errors.Is(err, ErrInvalidNodeType) {
				return err
			}
			return errorf(ErrInvalidArgument, "constructor argument %q: %v", par.Key, err)
		}
		if n, isNode := v.(*Node); isNode && n == nil {
			return errorf(ErrInvalidArgument, "constructor argument %q must be a node", par.Key)
		}
		if par.check != nil {
			if err := par.check(priv, v); err != nil {
				return err
			}
		}
		store(priv, par, v)
	}
	if next != len(args) {
		return errorf(ErrInvalidArgument, "%d constructor arguments given, %d expected", len(args), next)
	}
	return nil
}

// addParam appends elements to a list parameter, referencing each node.
func addParam(priv any, par *Param, elems []any, link linkFunc) error {
	switch p := par.field(priv).(type) {
	case *[]*Node:
		nodes := make([]*Node, len(elems))
		for i, e := range elems {
			n, ok := e.(*Node)
			if !ok || n == nil {
				return errorf(ErrTypeMismatch, "param %q expects nodes, got %T", par.Key, e)
			}
			if err := checkNodeClass(par, n); err != nil {
				return err
			}
			nodes[i] = n
		}
		if par.check != nil {
			if err := par.check(priv, nodes); err != nil {
				return err
			}
		}
		if link != nil {
			if err := link(nodes); err != nil {
				return err
			}
		}
		for _, n := range nodes {
			*p = append(*p, n.Ref())
		}
	case *[]float64:
		vals := make([]float64, len(elems))
		for i, e := range elems {
			f, ok := toFloat(e)
			if !ok {
				return errorf(ErrTypeMismatch, "param %q expects numbers, got %T", par.Key, e)
			}
			vals[i] = f
		}
		if par.check != nil {
			if err := par.check(priv, vals); err != nil {
				return err
			}
		}
		*p = append(*p, vals...)
	default:
		return errorf(ErrTypeMismatch, "param %q is %s, not a list", par.Key, par.Type)
	}
	return nil
}

// freeParams releases everything the table owns: strings, blobs and one
// reference per linked child. The private state itself is left to the node.
func freeParams(priv any, params []Param) {
	for i := range params {
		switch p := params[i].field(priv).(type) {
		case *string:
			*p = ""
		case *[]byte:
			*p = nil
		case *[]float64:
			*p = nil
		case **Node:
			old := *p
			*p = nil
			old.Unref()
		case *[]*Node:
			list := *p
			*p = nil
			for _, n := range list {
				n.Unref()
			}
		}
	}
}

// getParam returns a copy of the current value.
func getParam(priv any, par *Param) any {
	switch p := par.field(priv).(type) {
	case *int:
		return *p
	case *int64:
		return *p
	case *float64:
		return *p
	case *string:
		return *p
	case *mgl32.Vec2:
		return *p
	case *mgl32.Vec3:
		return *p
	case *mgl32.Vec4:
		return *p
	case **Node:
		return *p
	case *[]*Node:
		return slices.Clone(*p)
	case *[]float64:
		return slices.Clone(*p)
	case *[]byte:
		return slices.Clone(*p)
	}
	return nil
}

// forEachChild visits every linked child in table order, list entries in
// insertion order.
func forEachChild(priv any, params []Param, fn func(par *Param, child *Node)) {
	for i := range params {
		par := &params[i]
		switch p := par.field(priv).(type) {
		case **Node:
			if *p != nil {
				fn(par, *p)
			}
		case *[]*Node:
			for _, n := range *p {
				fn(par, n)
			}
		}
	}
}

// formatParam renders a value for diagnostics and DOT output.
func formatParam(priv any, par *Param) string {
	switch p := par.field(priv).(type) {
	case *int:
		return fmt.Sprintf("%d", *p)
	case *int64:
		return fmt.Sprintf("%d", *p)
	case *float64:
		return fmt.Sprintf("%g", *p)
	case *string:
		return fmt.Sprintf("%q", *p)
	case *mgl32.Vec2:
		return fmt.Sprintf("(%g,%g)", p[0], p[1])
	case *mgl32.Vec3:
		return fmt.Sprintf("(%g,%g,%g)", p[0], p[1], p[2])
	case *mgl32.Vec4:
		return fmt.Sprintf("(%g,%g,%g,%g)", p[0], p[1], p[2], p[3])
	case **Node:
		if *p == nil {
			return "none"
		}
		return (*p).name
	case *[]*Node:
		names := make([]string, len(*p))
		for i, n := range *p {
			names[i] = n.name
		}
		return "[" + strings.Join(names, ",") + "]"
	case *[]float64:
		vals := make([]string, len(*p))
		for i, f := range *p {
			vals[i] = fmt.Sprintf("%g", f)
		}
		return "[" + strings.Join(vals, ",") + "]"
	case *[]byte:
		return fmt.Sprintf("<%d bytes>", len(*p))
	}
	return "?"
}
