package nodegl

import (
	"fmt"

	"github.com/phanxgames/nodegl/gpu"
)

// programBindings holds the locations resolved for the uniforms, textures
// and buffers a node feeds into its program. Draw-time slices are reused.
type programBindings struct {
	uniforms []uniformBinding
	textures []gpu.TextureBinding
	texNodes []*Node
	buffers  []gpu.BufferBinding

	values []gpu.UniformValue
}

// Texture uniform naming. Textured shapes sample texN_sampler; compute
// programs write image unit imgN. Both may read their size from the
// _dimensions uniform.
const (
	samplerFmt     = "tex%d_sampler"
	samplerDimsFmt = "tex%d_dimensions"
	imageFmt       = "img%d"
	imageDimsFmt   = "img%d_dimensions"
)

// checkTextureUnits fails when more textures are linked than the device
// has units.
func checkTextureUnits(n *Node, count int) error {
	if limit := n.device().Caps().MaxTextureUnits; count > limit {
		return errorf(ErrDeviceCapabilityExceeded, "%s: %d textures exceed the %d texture units of the device",
			n.name, count, limit)
	}
	return nil
}

func (b *programBindings) resolve(d gpu.Device, prog gpu.Program, uniforms, textures, buffers []*Node, nameFmt, dimsFmt string) {
	b.uniforms = bindUniforms(d, prog, uniforms)

	b.texNodes = textures
	b.textures = make([]gpu.TextureBinding, len(textures))
	for i, tn := range textures {
		t := textureOf(tn)
		b.textures[i] = gpu.TextureBinding{
			Unit:          i,
			Texture:       t.handle,
			SamplerLoc:    d.UniformLocation(prog, fmt.Sprintf(nameFmt, i)),
			DimensionsLoc: d.UniformLocation(prog, fmt.Sprintf(dimsFmt, i)),
			Width:         t.width,
			Height:        t.height,
			Access:        gpu.Access(t.access),
			Format:        gpu.TextureFormat(t.format),
		}
	}

	b.buffers = b.buffers[:0]
	for _, bn := range buffers {
		s := bn.priv.(*buffer)
		binding := d.BlockBinding(prog, s.id)
		if binding < 0 {
			bn.logf(LogWarning, "buffer %q is not used by the program", s.id)
			continue
		}
		b.buffers = append(b.buffers, gpu.BufferBinding{Binding: binding, Buffer: s.handle})
	}
}

// uniformValues returns the current uniform values, valid until the next
// call.
func (b *programBindings) uniformValues() []gpu.UniformValue {
	b.values = uniformValues(b.values[:0], b.uniforms)
	return b.values
}

func updateAll(nodes []*Node, t float64) {
	for _, n := range nodes {
		n.update(t)
	}
}
