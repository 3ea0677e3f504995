package headless

import (
	"errors"
	"testing"

	"github.com/phanxgames/nodegl/gpu"
)

func TestBufferLifecycle(t *testing.T) {
	d := New()
	b, err := d.NewBuffer([]byte{1, 2, 3}, gpu.UsageStatic)
	if err != nil {
		t.Fatal(err)
	}
	if b == 0 {
		t.Fatal("handle 0 is reserved")
	}
	if err := d.UpdateBuffer(b, []byte{4, 5}); err != nil {
		t.Fatal(err)
	}
	data, ok := d.BufferData(b)
	if !ok || len(data) != 2 || data[0] != 4 {
		t.Errorf("BufferData = %v, %t; want [4 5]", data, ok)
	}
	if d.Stats().Uploads != 2 {
		t.Errorf("Uploads = %d, want 2", d.Stats().Uploads)
	}
	d.DeleteBuffer(b)
	d.DeleteBuffer(b)
	if d.Live() != 0 || d.Stats().Deleted != 1 {
		t.Errorf("Live = %d, Deleted = %d; want 0, 1", d.Live(), d.Stats().Deleted)
	}
	if err := d.UpdateBuffer(b, nil); err == nil {
		t.Error("updating a deleted buffer should fail")
	}
}

func TestBufferDataIsCopied(t *testing.T) {
	d := New()
	src := []byte{1}
	b, _ := d.NewBuffer(src, gpu.UsageDynamic)
	src[0] = 9
	if data, _ := d.BufferData(b); data[0] != 1 {
		t.Errorf("data = %v, want a private copy", data)
	}
}

func TestMaxResources(t *testing.T) {
	d := NewWithOptions(Options{Caps: DefaultCaps, MaxResources: 2})
	if _, err := d.NewBuffer(nil, gpu.UsageStatic); err != nil {
		t.Fatal(err)
	}
	tex, err := d.NewTexture(gpu.TextureDesc{Width: 1, Height: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.NewProgram(gpu.ProgramSource{}); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("err = %v, want ErrOutOfMemory", err)
	}
	d.DeleteTexture(tex)
	if _, err := d.NewProgram(gpu.ProgramSource{}); err != nil {
		t.Errorf("allocation after a delete: %v", err)
	}
}

func TestTextureSizeLimit(t *testing.T) {
	caps := DefaultCaps
	caps.MaxTextureSize = 64
	d := NewWithOptions(Options{Caps: caps})
	if _, err := d.NewTexture(gpu.TextureDesc{Width: 65, Height: 1}); err == nil {
		t.Error("oversized texture should fail")
	}
	tex, err := d.NewTexture(gpu.TextureDesc{Width: 64, Height: 32, Format: gpu.FormatR32F})
	if err != nil {
		t.Fatal(err)
	}
	desc, ok := d.TextureDesc(tex)
	if !ok || desc.Width != 64 || desc.Format != gpu.FormatR32F {
		t.Errorf("TextureDesc = %+v, %t", desc, ok)
	}
}

// --- Programs ---

func TestFailNextProgram(t *testing.T) {
	d := New()
	d.FailNextProgram("syntax error")
	_, err := d.NewProgram(gpu.ProgramSource{Compute: "void main() {}"})
	var ce *gpu.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *gpu.CompileError", err)
	}
	if ce.Stage != "compute" || ce.Diagnostic != "syntax error" {
		t.Errorf("CompileError = %+v", ce)
	}
	if _, err := d.NewProgram(gpu.ProgramSource{}); err != nil {
		t.Errorf("failure should apply once, got %v", err)
	}
}

func TestComputeUnsupported(t *testing.T) {
	caps := DefaultCaps
	caps.HasCompute = false
	d := NewWithOptions(Options{Caps: caps})
	if _, err := d.NewProgram(gpu.ProgramSource{Compute: "x"}); err == nil {
		t.Error("compute program without compute support should fail")
	}
}

func TestUniformLocationsAreStable(t *testing.T) {
	d := New()
	p, _ := d.NewProgram(gpu.ProgramSource{})
	a := d.UniformLocation(p, "a")
	b := d.UniformLocation(p, "b")
	if a == b {
		t.Errorf("distinct uniforms share location %d", a)
	}
	if again := d.UniformLocation(p, "a"); again != a {
		t.Errorf("UniformLocation(a) = %d, then %d", a, again)
	}
	if d.UniformLocation(p+100, "a") != -1 {
		t.Error("unknown program should report -1")
	}
	if d.BlockBinding(p, "data") != d.BlockBinding(p, "data") {
		t.Error("block bindings should be stable")
	}
}

// --- Framebuffers and calls ---

func TestFramebufferBinding(t *testing.T) {
	d := New()
	color, _ := d.NewTexture(gpu.TextureDesc{Width: 8, Height: 8})
	fb, err := d.NewFramebuffer(color, 0)
	if err != nil {
		t.Fatal(err)
	}
	if prev := d.BindFramebuffer(fb); prev != gpu.DefaultFramebuffer {
		t.Errorf("previous binding = %d, want default", prev)
	}
	d.Draw(&gpu.DrawCall{})
	if prev := d.BindFramebuffer(gpu.DefaultFramebuffer); prev != fb {
		t.Errorf("previous binding = %d, want %d", prev, fb)
	}
	d.Draw(&gpu.DrawCall{})
	if len(d.Targets) != 2 || d.Targets[0] != fb || d.Targets[1] != gpu.DefaultFramebuffer {
		t.Errorf("Targets = %v, want [%d 0]", d.Targets, fb)
	}
	if _, err := d.NewFramebuffer(color+100, 0); err == nil {
		t.Error("unknown color texture should fail")
	}
}

func TestDrawRecordsCopies(t *testing.T) {
	d := New()
	uniforms := []gpu.UniformValue{{Name: "u", Float: 1}}
	d.Draw(&gpu.DrawCall{Uniforms: uniforms})
	uniforms[0].Float = 2
	if d.DrawCalls[0].Uniforms[0].Float != 1 {
		t.Error("recorded draw should not alias caller slices")
	}
	d.Dispatch(&gpu.DispatchCall{Groups: [3]int{4, 1, 1}})
	d.MemoryBarrier()
	s := d.Stats()
	if s.Draws != 1 || s.Dispatches != 1 || s.Barriers != 1 {
		t.Errorf("Stats = %+v", s)
	}
	d.ResetCalls()
	if len(d.DrawCalls) != 0 || len(d.DispatchCalls) != 0 || len(d.Targets) != 0 {
		t.Error("ResetCalls should drop recorded calls")
	}
}
