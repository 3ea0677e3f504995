package nodegl

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func assertVec3(t *testing.T, name string, got, want mgl32.Vec3) {
	t.Helper()
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// drawOnce attaches root to a fresh context and draws one frame at t.
func drawOnce(t *testing.T, root *Node, at float64) *Context {
	t.Helper()
	ctx, _, _ := newTestContext(t)
	if err := ctx.SetScene(root); err != nil {
		t.Fatalf("SetScene: %v", err)
	}
	if err := ctx.Draw(at); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	return ctx
}

// --- Rotate ---

func TestRotateZ90(t *testing.T) {
	id := mustNode(t, ClassIdentity)
	r := mustNode(t, ClassRotate, id)
	if err := r.Set("angle", 90); err != nil {
		t.Fatal(err)
	}
	drawOnce(t, r, 0)
	assertVec3(t, "x axis", id.LocalToView(mgl32.Vec3{1, 0, 0}), mgl32.Vec3{0, 1, 0})
}

func TestRotateAnchor(t *testing.T) {
	id := mustNode(t, ClassIdentity)
	r := mustNode(t, ClassRotate, id)
	r.Set("angle", 90)
	r.Set("anchor", 1, 0, 0)
	drawOnce(t, r, 0)
	assertVec3(t, "anchor", id.LocalToView(mgl32.Vec3{1, 0, 0}), mgl32.Vec3{1, 0, 0})
	assertVec3(t, "point", id.LocalToView(mgl32.Vec3{2, 0, 0}), mgl32.Vec3{1, 1, 0})
}

func TestRotateAxisNormalized(t *testing.T) {
	id := mustNode(t, ClassIdentity)
	r := mustNode(t, ClassRotate, id)
	r.Set("angle", 180)
	r.Set("axis", 0, 5, 0)
	drawOnce(t, r, 0)
	assertVec3(t, "x axis", id.LocalToView(mgl32.Vec3{1, 0, 0}), mgl32.Vec3{-1, 0, 0})
}

func TestRotateAnimated(t *testing.T) {
	id := mustNode(t, ClassIdentity)
	r := mustNode(t, ClassRotate, id)
	kfs := keyframes(t, "", 0, 0, 1, 180)
	if err := r.Add("animkf", kfs[0], kfs[1]); err != nil {
		t.Fatal(err)
	}
	drawOnce(t, r, 0.5)
	assertVec3(t, "x axis", id.LocalToView(mgl32.Vec3{1, 0, 0}), mgl32.Vec3{0, 1, 0})
}

// --- Translate / Scale ---

func TestTranslateThenScaleComposes(t *testing.T) {
	id := mustNode(t, ClassIdentity)
	s := mustNode(t, ClassScale, id)
	s.Set("factors", 2, 2, 2)
	tr := mustNode(t, ClassTranslate, s)
	tr.Set("vector", 10, 0, 0)
	drawOnce(t, tr, 0)
	assertVec3(t, "point", id.LocalToView(mgl32.Vec3{1, 1, 1}), mgl32.Vec3{12, 2, 2})
}

func TestScaleAnchor(t *testing.T) {
	id := mustNode(t, ClassIdentity)
	s := mustNode(t, ClassScale, id)
	s.Set("factors", 2, 2, 2)
	s.Set("anchor", 1, 0, 0)
	drawOnce(t, s, 0)
	assertVec3(t, "anchor", id.LocalToView(mgl32.Vec3{1, 0, 0}), mgl32.Vec3{1, 0, 0})
	assertVec3(t, "point", id.LocalToView(mgl32.Vec3{2, 0, 0}), mgl32.Vec3{3, 0, 0})
}

// --- Group ---

func TestGroupVisitsInInsertionOrder(t *testing.T) {
	ctx, dev, _ := newTestContext(t)
	g := mustNode(t, ClassGroup)
	var shapes []*Node
	for i := 0; i < 3; i++ {
		tr := mustNode(t, ClassTriangle, mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
		ts := mustNode(t, ClassTexturedShape, tr, mustNode(t, ClassShader))
		shapes = append(shapes, ts)
		if err := g.Add("children", ts); err != nil {
			t.Fatal(err)
		}
	}
	if err := ctx.SetScene(g); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Draw(0); err != nil {
		t.Fatal(err)
	}
	if len(dev.DrawCalls) != 3 {
		t.Fatalf("draw calls = %d, want 3", len(dev.DrawCalls))
	}
	for i, ts := range shapes {
		want := ts.priv.(*texturedShape).call.Program
		if dev.DrawCalls[i].Program != want {
			t.Errorf("draw %d used program %d, want %d", i, dev.DrawCalls[i].Program, want)
		}
	}
}

// --- Camera ---

func TestCameraView(t *testing.T) {
	id := mustNode(t, ClassIdentity)
	cam := mustNode(t, ClassCamera, id)
	cam.Set("eye", 0, 0, 5)
	cam.Set("center", 0, 0, 0)
	drawOnce(t, cam, 0)
	assertVec3(t, "origin", id.LocalToView(mgl32.Vec3{}), mgl32.Vec3{0, 0, -5})
	if id.Projection != mgl32.Ident4() {
		t.Errorf("Projection = %v, want identity without perspective", id.Projection)
	}
}

func TestCameraPerspectiveUsesViewportAspect(t *testing.T) {
	id := mustNode(t, ClassIdentity)
	cam := mustNode(t, ClassCamera, id)
	cam.Set("perspective", 60, 0, 1, 10)

	ctx, _, _ := newTestContext(t)
	if err := ctx.SetViewport(0, 0, 200, 100); err != nil {
		t.Fatal(err)
	}
	if err := ctx.SetScene(cam); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Draw(0); err != nil {
		t.Fatal(err)
	}
	want := mgl32.Perspective(mgl32.DegToRad(60), 2, 1, 10)
	if !id.Projection.ApproxEqual(want) {
		t.Errorf("Projection = %v, want %v", id.Projection, want)
	}
}

func TestCameraEyeAnimated(t *testing.T) {
	id := mustNode(t, ClassIdentity)
	cam := mustNode(t, ClassCamera, id)
	cam.Set("center", 0, 0, 0)
	k0, _ := KeyFrame(0, mgl32.Vec3{0, 0, 2}, "")
	k1, _ := KeyFrame(1, mgl32.Vec3{0, 0, 6}, "")
	if err := cam.Add("eye_animkf", k0, k1); err != nil {
		t.Fatal(err)
	}
	drawOnce(t, cam, 0.5)
	assertVec3(t, "origin", id.LocalToView(mgl32.Vec3{}), mgl32.Vec3{0, 0, -4})
}

// --- UniformMat4 ---

func TestUniformMat4FollowsTransformChain(t *testing.T) {
	id := mustNode(t, ClassIdentity)
	r := mustNode(t, ClassRotate, id)
	r.Set("angle", 90)
	tr := mustNode(t, ClassTranslate, r)
	tr.Set("vector", 1, 2, 3)

	u := mustNode(t, ClassUniformMat4, "model")
	if err := u.Set("transform", tr); err != nil {
		t.Fatal(err)
	}
	drawOnce(t, u, 0)

	got := u.priv.(*uniform).matrix
	want := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(90)))
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("matrix = %v, want %v", got, want)
	}
}

func TestUniformMat4RejectsNonTransform(t *testing.T) {
	u := mustNode(t, ClassUniformMat4, "model")
	assertErrorIs(t, "Set transform", u.Set("transform", mustNode(t, ClassTexture)), ErrInvalidNodeType)
}
