package nodegl

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/nodegl/gpu"
)

// State is the lifecycle state of a node.
type State uint8

const (
	StateConstructed State = iota // not attached to any context
	StateAttached                 // attached, resources not allocated
	StateInitialized              // resources allocated
	StateDestroyed                // released; the node must not be used
)

var stateNames = [...]string{"constructed", "attached", "initialized", "destroyed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// State reports where the node is in its lifecycle. A node initialized and
// then detached keeps its resources and reports StateInitialized.
func (n *Node) State() State {
	switch {
	case n.destroyed:
		return StateDestroyed
	case n.initialized:
		return StateInitialized
	case n.ctx != nil:
		return StateAttached
	}
	return StateConstructed
}

// --- Attachment ---

// attach attaches n and every node reachable through its parameters to c,
// descendants first. On failure nothing stays attached.
func (n *Node) attach(c *Context) error {
	if n.ctx != nil {
		return errorf(ErrAlreadyAttached, "%s", n.name)
	}
	var path map[*Node]bool
	if c.debug {
		path = make(map[*Node]bool)
	}
	var done []*Node
	if err := n.attachTree(c, &done, path); err != nil {
		rollback(done)
		return err
	}
	return nil
}

// attachTree is the recursive walk of attach. A node already attached to c
// is a shared descendant and is skipped with its subtree. done collects the
// nodes attached by this walk, in attach order. path, when non-nil, holds
// the nodes on the current walk path for cycle detection.
func (n *Node) attachTree(c *Context, done *[]*Node, path map[*Node]bool) error {
	if n.ctx == c {
		return nil
	}
	if n.ctx != nil {
		return errorf(ErrAlreadyAttached, "%s belongs to another context", n.name)
	}
	if path != nil {
		if path[n] {
			return errorf(ErrInvalidArgument, "cycle through %s", n.name)
		}
		path[n] = true
		defer delete(path, n)
		debugCheckGraphDepth(c, n, len(path))
	}
	var err error
	forEachChild(n.priv, n.class.params, func(_ *Param, child *Node) {
		if err == nil {
			err = child.attachTree(c, done, path)
		}
	})
	if err != nil {
		return err
	}
	n.ctx = c
	c.nodes[n] = struct{}{}
	*done = append(*done, n)
	c.emit(EventAttach, n, nil)
	return nil
}

func rollback(done []*Node) {
	for i := len(done) - 1; i >= 0; i-- {
		done[i].unlink()
	}
}

// detach walks the attach order backwards: the node first, then its
// children from last to first. Detaching a detached node is a no-op.
func (n *Node) detach() {
	if n == nil || n.ctx == nil {
		return
	}
	n.unlink()
	var children []*Node
	forEachChild(n.priv, n.class.params, func(_ *Param, child *Node) {
		children = append(children, child)
	})
	for _, child := range slices.Backward(children) {
		child.detach()
	}
}

func (n *Node) unlink() {
	c := n.ctx
	n.ctx = nil
	delete(c.nodes, n)
	c.emit(EventDetach, n, nil)
}

// reaches reports whether target is n or one of its descendants.
func (n *Node) reaches(target *Node) bool {
	found := false
	n.walk(func(m *Node) {
		if m == target {
			found = true
		}
	})
	return found
}

// walk visits every node reachable from n once, parents before children.
func (n *Node) walk(fn func(*Node)) {
	seen := make(map[*Node]bool)
	var visit func(m *Node)
	visit = func(m *Node) {
		if seen[m] {
			return
		}
		seen[m] = true
		fn(m)
		forEachChild(m.priv, m.class.params, func(_ *Param, child *Node) {
			visit(child)
		})
	}
	visit(n)
}

// --- Resources ---

// init allocates the node's resources. It is idempotent. The class init is
// responsible for initializing the children it depends on. On failure the
// class uninit releases whatever was allocated and the node stays
// uninitialized.
func (n *Node) init() error {
	if n.destroyed {
		return errorf(ErrInvalidArgument, "init of a released node")
	}
	if n.initialized {
		return nil
	}
	c := n.ctx
	if c == nil {
		return errorf(ErrNotAttached, "%s", n.name)
	}
	if c.device == nil {
		return errorf(ErrNotAttached, "%s: context has no device", n.name)
	}
	n.owner = c
	n.dev = c.device
	if n.class.init != nil {
		if err := n.class.init(n); err != nil {
			if n.class.uninit != nil {
				n.class.uninit(n)
			}
			n.dev = nil
			n.logf(LogError, "init failed: %v", err)
			c.emit(EventInitFailed, n, err)
			return err
		}
	}
	n.initialized = true
	n.stamp = updateStamp{}
	c.emit(EventInit, n, nil)
	return nil
}

// uninit releases the node's resources. Only reached from destroy, when
// the last reference goes away.
func (n *Node) uninit() {
	if n.class.uninit != nil {
		n.class.uninit(n)
	}
	n.initialized = false
	n.dev = nil
	n.owner.emit(EventUninit, n, nil)
}

// device returns the device holding the node's resources: the one it was
// initialized on, whatever device its context has bound since.
func (n *Node) device() gpu.Device {
	if n.dev != nil {
		return n.dev
	}
	return n.ctx.device
}

// initChildren initializes nodes in order, stopping at the first error.
func initChildren(nodes ...*Node) error {
	for _, c := range nodes {
		if c == nil {
			continue
		}
		if err := c.init(); err != nil {
			return err
		}
	}
	return nil
}

// --- Traversal ---

// checkResources lazily initializes the graph before the first frame that
// needs it.
func (n *Node) checkResources(t float64) error {
	if n.initialized {
		return nil
	}
	n.logf(LogDebug, "initializing for t=%g", t)
	return n.init()
}

// update recomputes the node's time-varying state for t. Private state and
// device resources change at most once per frame: a second call in the
// same frame at the same time is skipped, whichever parent makes it.
func (n *Node) update(t float64) {
	if n == nil {
		return
	}
	if !n.initialized {
		n.logf(LogError, "update on a node that is not initialized")
		return
	}
	var frame uint64
	if n.ctx != nil {
		frame = n.ctx.frame
	}
	s := &n.stamp
	if s.valid && s.frame == frame && s.t == t {
		return
	}
	*s = updateStamp{valid: true, frame: frame, t: t}
	if n.class.update != nil {
		n.class.update(n, t)
	}
}

// draw issues the node's device calls with the matrices its parent wrote
// for this visit.
func (n *Node) draw() {
	if n == nil {
		return
	}
	if !n.initialized {
		n.logf(LogError, "draw on a node that is not initialized")
		return
	}
	if n.class.draw != nil {
		n.class.draw(n)
	}
}

// drawChild hands child its model-view and n's projection, then draws it.
func (n *Node) drawChild(child *Node, modelView mgl32.Mat4) {
	child.ModelView = modelView
	child.Projection = n.Projection
	child.draw()
}
