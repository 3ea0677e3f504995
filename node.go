package nodegl

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/nodegl/gpu"
)

// --- ID counter ---

// nodeIDCounter is a plain counter (no atomic, nodegl is single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// --- Node ---

// Node is an instance of exactly one class. A single struct is used for all
// classes; the class-specific state lives in priv, reached through the
// class parameter table and callbacks.
//
// A node is reference counted. NewNode returns it with one reference owned
// by the caller; every parent slot and the Context scene hold one more.
type Node struct {
	class    *nodeClass
	id       uint32
	name     string
	refcount int

	// ctx is the context the node is attached to, nil when detached.
	ctx *Context
	// owner is the context that initialized the node and dev the device
	// holding its resources. Both outlive detachment so a later uninit
	// releases the resources where they were allocated.
	owner *Context
	dev   gpu.Device

	priv        any
	initialized bool
	destroyed   bool

	// ModelView and Projection are written by the parent during the draw
	// pass, once per visit.
	ModelView  mgl32.Mat4
	Projection mgl32.Mat4

	stamp updateStamp

	// UserData is free for the application.
	UserData any
}

// updateStamp records the frame and time of the last update so that a
// shared node reached through several parents is updated once per frame.
type updateStamp struct {
	valid bool
	frame uint64
	t     float64
}

// NewNode creates a node of the given class. args are the constructor
// arguments, one per constructor parameter in table order (see Params).
func NewNode(id ClassID, args ...any) (*Node, error) {
	if id >= numClasses {
		return nil, errorf(ErrInvalidArgument, "unknown class %s", id)
	}
	return newNodeOfClass(classes[id], args)
}

// MustNewNode is like NewNode but panics on error. Intended for scenes built
// from constant arguments.
func MustNewNode(id ClassID, args ...any) *Node {
	n, err := NewNode(id, args...)
	if err != nil {
		panic(fmt.Sprintf("nodegl: %v", err))
	}
	return n
}

func newNodeOfClass(cls *nodeClass, args []any) (*Node, error) {
	priv := cls.newPriv()
	n := &Node{
		class:      cls,
		id:         nextNodeID(),
		name:       cls.name,
		refcount:   1,
		priv:       priv,
		ModelView:  mgl32.Ident4(),
		Projection: mgl32.Ident4(),
	}
	setDefaults(priv, cls.params)
	if err := setConstructors(priv, cls.params, args); err != nil {
		freeParams(priv, cls.params)
		n.priv = nil
		n.refcount = 0
		n.destroyed = true
		return nil, fmt.Errorf("new %s: %w", cls.name, err)
	}
	return n, nil
}

// Ref adds a reference and returns n. Nil-safe.
func (n *Node) Ref() *Node {
	if n == nil || n.destroyed {
		return n
	}
	n.refcount++
	return n
}

// Unref drops a reference. The last one releases the node's resources,
// then its children, then the node itself. Nil-safe; a no-op on a node
// that is already released.
func (n *Node) Unref() {
	if n == nil || n.destroyed {
		return
	}
	n.refcount--
	if n.refcount > 0 {
		return
	}
	n.destroy()
}

func (n *Node) destroy() {
	if n.initialized {
		n.uninit()
	}
	if n.ctx != nil {
		n.unlink()
	}
	freeParams(n.priv, n.class.params)
	n.priv = nil
	n.destroyed = true
}

// --- Parameters ---

// Set writes a non-constructor parameter. Node slots reference the new node
// and release the previous one; the slot is left unchanged on error.
func (n *Node) Set(key string, args ...any) error {
	par, err := n.param(key)
	if err != nil {
		return err
	}
	if par.IsConstructor() {
		return errorf(ErrInvalidArgument, "%s.%s is a constructor argument", n.class.name, key)
	}
	if par.frozen(n.initialized) {
		return errorf(ErrInvalidArgument, "%s: cannot change %q after init", n.name, key)
	}
	if par.Type != ParamNode {
		return setParam(n.priv, par, args, nil)
	}
	old := getParam(n.priv, par).(*Node)
	if err := setParam(n.priv, par, args, n.link); err != nil {
		return err
	}
	if old != nil && n.ctx != nil {
		n.ctx.prune()
	}
	return nil
}

// Add appends elements to a list parameter. Node lists accept *Node
// elements, double lists any numbers.
func (n *Node) Add(key string, elems ...any) error {
	par, err := n.param(key)
	if err != nil {
		return err
	}
	if par.frozen(n.initialized) {
		return errorf(ErrInvalidArgument, "%s: cannot add to %q after init", n.name, key)
	}
	if err := addParam(n.priv, par, elems, n.link); err != nil {
		return err
	}
	if n.ctx != nil && n.ctx.debug {
		debugCheckListLen(n, par)
	}
	return nil
}

// Get returns a copy of a parameter value. Lists and blobs are cloned.
func (n *Node) Get(key string) (any, bool) {
	if n == nil || n.destroyed {
		return nil, false
	}
	par := findParam(n.class.params, key)
	if par == nil {
		return nil, false
	}
	return getParam(n.priv, par), true
}

func (n *Node) param(key string) (*Param, error) {
	if n == nil || n.destroyed {
		return nil, errorf(ErrInvalidArgument, "parameter %q on a released node", key)
	}
	par := findParam(n.class.params, key)
	if par == nil {
		return nil, errorf(ErrInvalidArgument, "%s has no parameter %q", n.class.name, key)
	}
	return par, nil
}

// link attaches nodes about to be linked under n to n's context, so that
// graphs edited after SetScene stay consistently attached.
func (n *Node) link(children []*Node) error {
	c := n.ctx
	if c == nil {
		return nil
	}
	var done []*Node
	for _, child := range children {
		if c.debug && child.reaches(n) {
			rollback(done)
			return errorf(ErrInvalidArgument, "linking %s under %s creates a cycle", child.name, n.name)
		}
		if err := child.attachTree(c, &done, nil); err != nil {
			rollback(done)
			return err
		}
	}
	return nil
}

// --- Accessors ---

// Class returns the node's class.
func (n *Node) Class() ClassID { return n.class.id }

// ID returns the node's unique id.
func (n *Node) ID() uint32 { return n.id }

// Name returns the node's label, used in logs and DOT output. Defaults to
// the class name.
func (n *Node) Name() string { return n.name }

// SetName sets the node's label.
func (n *Node) SetName(name string) { n.name = name }

// RefCount returns the number of live references.
func (n *Node) RefCount() int { return n.refcount }

// IsInitialized reports whether the node's resources are allocated.
func (n *Node) IsInitialized() bool { return n.initialized }

// IsAttached reports whether the node is attached to a context.
func (n *Node) IsAttached() bool { return n.ctx != nil }

// Context returns the context n is attached to, or nil.
func (n *Node) Context() *Context { return n.ctx }

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s#%d)", n.class.name, n.name, n.id)
}
