// Package ebitengpu implements gpu.Device on top of [Ebitengine].
//
// Geometry is projected on the CPU and submitted with
// DrawTrianglesShader; the fragment stage of a nodegl Shader is a complete
// Kage program. A Shader with no fragment source draws flat white. Kage
// uniforms must be exported, so a uniform named "time" in the scene is
// delivered as "Time". Textures bound to a shape become imageSrc0 to
// imageSrc3 and, as Kage requires, must share one size.
//
// The backend has no compute stage and no depth test: Compute nodes fail to
// initialize with ErrDeviceCapabilityExceeded and RTT depth textures are
// ignored.
//
// Run opens a window and drives a nodegl.Context from the ebiten game loop:
//
//	ctx := nodegl.NewContext(nil)
//	ctx.SetScene(scene)
//	err := ebitengpu.Run(ctx, ebitengpu.RunConfig{Title: "demo", Width: 640, Height: 480})
//
// [Ebitengine]: https://ebitengine.org
package ebitengpu
