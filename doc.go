// Package nodegl is a declarative scene-graph engine.
//
// Applications build a directed acyclic graph of typed nodes (shapes,
// textures, shaders, transforms, uniforms, buffers, compute passes and
// render-to-texture targets), hand its root to a [Context] and ask the
// context to draw it at successive timestamps. All time-dependent state is
// derived from the timestamp, so any frame can be drawn in any order.
//
// # Quick start
//
//	ctx := nodegl.NewContext(nil)
//	ctx.SetDevice(headless.New())
//
//	quad := nodegl.MustNewNode(nodegl.ClassQuad,
//		mgl32.Vec3{-0.5, -0.5, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
//	prog := nodegl.MustNewNode(nodegl.ClassShader)
//	shape := nodegl.MustNewNode(nodegl.ClassTexturedShape, quad, prog)
//	quad.Unref()
//	prog.Unref()
//
//	ctx.SetScene(shape)
//	shape.Unref()
//	for i := 0; i < 60; i++ {
//		ctx.Draw(float64(i) / 60)
//	}
//	ctx.Release()
//
// # Nodes and parameters
//
// Every node is an instance of one of a closed set of classes, identified
// by [ClassID]. A class is described by a parameter table ([Params]).
// Constructor parameters are passed to [NewNode] in table order; the others
// are written with [Node.Set], appended with [Node.Add] and read with
// [Node.Get]. Values are converted and checked against the declared
// [ParamType]; a node of the wrong class in a node slot fails with
// [ErrInvalidNodeType] and leaves the slot unchanged.
//
// Nodes are reference counted. [NewNode] returns one reference owned by the
// caller; each parent slot and the context scene hold one more. [Node.Unref]
// on the last reference releases the node's device resources and its
// children.
//
// # Lifecycle
//
// [Context.SetScene] attaches the graph to the context. Device resources are
// allocated lazily by the first [Context.Draw]; each frame then updates the
// whole graph (animations, uniforms, dynamic geometry) and draws it.
// Transform nodes ([ClassRotate], [ClassTranslate], [ClassScale],
// [ClassCamera]) sample their local transform during the update and compose
// it with the incoming model-view during the draw. A node shared by several
// parents is updated once per frame and drawn once per parent, each time
// with that parent's matrices.
//
// # Animation
//
// Keyframes ([KeyFrame]) carry a time, a value and an easing name. Easing
// curves come from [gween]. Samples before the first keyframe clamp to its
// value, samples after the last to the last value.
//
// # Devices
//
// The core talks to the GPU only through [gpu.Device]. The gpu/headless
// package provides an in-memory device for tests and offline runs;
// gpu/ebitengpu renders through [Ebitengine].
//
// [gween]: https://github.com/tanema/gween
// [Ebitengine]: https://ebitengine.org
package nodegl
