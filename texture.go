package nodegl

import (
	"github.com/phanxgames/nodegl/gpu"
)

// texture is the private state of the Texture class. Enum-valued params
// hold gpu constants (gpu.TextureFormat, gpu.Filter, gpu.Wrap, gpu.Access).
type texture struct {
	width     int
	height    int
	format    int
	minFilter int
	magFilter int
	wrapS     int
	wrapT     int
	access    int
	data      []byte

	handle gpu.Texture
}

// checkEnum builds a check hook accepting integers in [0, limit].
func checkEnum(what string, limit int) func(any, any) error {
	return func(_ any, v any) error {
		if i := v.(int); i < 0 || i > limit {
			return errorf(ErrInvalidArgument, "invalid %s %d", what, i)
		}
		return nil
	}
}

var textureClass = &nodeClass{
	id:      ClassTexture,
	name:    "Texture",
	newPriv: func() any { return new(texture) },
	params: []Param{
		{Key: "width", Type: ParamInt, Default: DefaultValue{I64: 1}, Flags: FlagInitOnly,
			field: field(func(s *texture) *int { return &s.width }), check: checkCount},
		{Key: "height", Type: ParamInt, Default: DefaultValue{I64: 1}, Flags: FlagInitOnly,
			field: field(func(s *texture) *int { return &s.height }), check: checkCount},
		{Key: "format", Type: ParamInt, Default: DefaultValue{I64: int64(gpu.FormatRGBA8)}, Flags: FlagInitOnly,
			field: field(func(s *texture) *int { return &s.format }),
			check: checkEnum("format", int(gpu.FormatDepth16))},
		{Key: "min_filter", Type: ParamInt, Default: DefaultValue{I64: int64(gpu.FilterLinear)}, Flags: FlagInitOnly,
			field: field(func(s *texture) *int { return &s.minFilter }),
			check: checkEnum("filter", int(gpu.FilterLinearMipmapLinear))},
		{Key: "mag_filter", Type: ParamInt, Default: DefaultValue{I64: int64(gpu.FilterLinear)}, Flags: FlagInitOnly,
			field: field(func(s *texture) *int { return &s.magFilter }),
			check: checkEnum("filter", int(gpu.FilterLinear))},
		{Key: "wrap_s", Type: ParamInt, Default: DefaultValue{I64: int64(gpu.WrapClampToEdge)}, Flags: FlagInitOnly,
			field: field(func(s *texture) *int { return &s.wrapS }),
			check: checkEnum("wrap", int(gpu.WrapMirroredRepeat))},
		{Key: "wrap_t", Type: ParamInt, Default: DefaultValue{I64: int64(gpu.WrapClampToEdge)}, Flags: FlagInitOnly,
			field: field(func(s *texture) *int { return &s.wrapT }),
			check: checkEnum("wrap", int(gpu.WrapMirroredRepeat))},
		{Key: "access", Type: ParamInt, Default: DefaultValue{I64: int64(gpu.AccessReadWrite)}, Flags: FlagInitOnly,
			field: field(func(s *texture) *int { return &s.access }),
			check: checkEnum("access", int(gpu.AccessWriteOnly))},
		{Key: "data", Type: ParamData, Flags: FlagInitOnly,
			field: field(func(s *texture) *[]byte { return &s.data })},
	},
	init:   textureInit,
	uninit: textureUninit,
}

func bytesPerPixel(f gpu.TextureFormat) int {
	switch f {
	case gpu.FormatR32F:
		return 4
	case gpu.FormatRGBA32F:
		return 16
	case gpu.FormatDepth16:
		return 2
	}
	return 4
}

func (s *texture) desc() gpu.TextureDesc {
	return gpu.TextureDesc{
		Width:     s.width,
		Height:    s.height,
		Format:    gpu.TextureFormat(s.format),
		MinFilter: gpu.Filter(s.minFilter),
		MagFilter: gpu.Filter(s.magFilter),
		WrapS:     gpu.Wrap(s.wrapS),
		WrapT:     gpu.Wrap(s.wrapT),
		Data:      s.data,
	}
}

func textureInit(n *Node) error {
	s := n.priv.(*texture)
	d := n.device()
	if limit := d.Caps().MaxTextureSize; limit > 0 && (s.width > limit || s.height > limit) {
		return errorf(ErrDeviceCapabilityExceeded, "%s: texture %dx%d exceeds device limit %d",
			n.name, s.width, s.height, limit)
	}
	desc := s.desc()
	if s.data != nil {
		if want := s.width * s.height * bytesPerPixel(desc.Format); len(s.data) != want {
			return errorf(ErrInvalidArgument, "%s: data is %d bytes, want %d", n.name, len(s.data), want)
		}
	}
	h, err := d.NewTexture(desc)
	if err != nil {
		return allocErr(n, "texture", err)
	}
	s.handle = h
	if desc.MinFilter.IsMipmap() {
		d.GenerateMipmap(h)
	}
	n.logf(LogVerbose, "texture %dx%d format %d", s.width, s.height, s.format)
	return nil
}

func textureUninit(n *Node) {
	s := n.priv.(*texture)
	if s.handle != 0 {
		n.device().DeleteTexture(s.handle)
		s.handle = 0
	}
}

func textureOf(n *Node) *texture {
	return n.priv.(*texture)
}
