// Package demo holds the example scenes shipped with the nodegl command.
package demo

import (
	"fmt"
	"sort"

	"github.com/phanxgames/nodegl"
)

// Scene is a named scene builder.
type Scene struct {
	Name        string
	Description string
	// Duration is the length of one animation loop in seconds.
	Duration float64
	// NeedsCompute marks scenes that only run on compute-capable devices.
	NeedsCompute bool
	Build        func() (*nodegl.Node, error)
}

var scenes = map[string]Scene{}

func register(s Scene) {
	if _, dup := scenes[s.Name]; dup {
		panic(fmt.Sprintf("demo: scene %q registered twice", s.Name))
	}
	scenes[s.Name] = s
}

// Lookup returns the scene registered under name.
func Lookup(name string) (Scene, bool) {
	s, ok := scenes[name]
	return s, ok
}

// All returns every scene sorted by name.
func All() []Scene {
	out := make([]Scene, 0, len(scenes))
	for _, s := range scenes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// builder creates nodes and remembers the first error, so scene code can
// chain calls and check once. Every node it creates is released by done;
// only the references held by the graph survive.
type builder struct {
	nodes []*nodegl.Node
	err   error
}

func (b *builder) node(id nodegl.ClassID, args ...any) *nodegl.Node {
	if b.err != nil {
		return nil
	}
	n, err := nodegl.NewNode(id, args...)
	if err != nil {
		b.err = fmt.Errorf("new %s: %w", id, err)
		return nil
	}
	b.nodes = append(b.nodes, n)
	return n
}

func (b *builder) keyFrame(t float64, value any, easing string) *nodegl.Node {
	if b.err != nil {
		return nil
	}
	n, err := nodegl.KeyFrame(t, value, easing)
	if err != nil {
		b.err = fmt.Errorf("keyframe at %g: %w", t, err)
		return nil
	}
	b.nodes = append(b.nodes, n)
	return n
}

func (b *builder) set(n *nodegl.Node, key string, args ...any) {
	if b.err != nil {
		return
	}
	if err := n.Set(key, args...); err != nil {
		b.err = fmt.Errorf("set %s.%s: %w", n.Class(), key, err)
	}
}

func (b *builder) add(n *nodegl.Node, key string, elems ...*nodegl.Node) {
	if b.err != nil {
		return
	}
	args := make([]any, len(elems))
	for i, e := range elems {
		args[i] = e
	}
	if err := n.Add(key, args...); err != nil {
		b.err = fmt.Errorf("add %s.%s: %w", n.Class(), key, err)
	}
}

// done returns root holding a single caller reference, or the first error.
func (b *builder) done(root *nodegl.Node) (*nodegl.Node, error) {
	if b.err == nil {
		root.Ref()
	}
	for _, n := range b.nodes {
		n.Unref()
	}
	b.nodes = nil
	if b.err != nil {
		return nil, b.err
	}
	return root, nil
}
