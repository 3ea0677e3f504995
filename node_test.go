package nodegl

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/nodegl/gpu/headless"
)

// --- Test helpers ---

// counter is a test-only class counting its callbacks.
type counter struct {
	children []*Node
	inits    int
	updates  int
	draws    int
	uninits  int
	failInit error
	drawn    []mgl32.Mat4
}

var counterClass = &nodeClass{
	id:      numClasses,
	name:    "Counter",
	newPriv: func() any { return new(counter) },
	params: []Param{
		{Key: "children", Type: ParamNodeList,
			field: field(func(s *counter) *[]*Node { return &s.children })},
	},
	init: func(n *Node) error {
		s := n.priv.(*counter)
		s.inits++
		if s.failInit != nil {
			return s.failInit
		}
		return initChildren(s.children...)
	},
	update: func(n *Node, t float64) {
		s := n.priv.(*counter)
		s.updates++
		updateAll(s.children, t)
	},
	draw: func(n *Node) {
		s := n.priv.(*counter)
		s.draws++
		s.drawn = append(s.drawn, n.ModelView)
		for _, child := range s.children {
			n.drawChild(child, n.ModelView)
		}
	},
	uninit: func(n *Node) {
		n.priv.(*counter).uninits++
	},
}

func newCounter(t *testing.T, name string, children ...*Node) *Node {
	t.Helper()
	n, err := newNodeOfClass(counterClass, nil)
	if err != nil {
		t.Fatalf("newNodeOfClass: %v", err)
	}
	n.SetName(name)
	for _, c := range children {
		if err := n.Add("children", c); err != nil {
			t.Fatalf("Add(%s): %v", c.Name(), err)
		}
	}
	return n
}

func counterOf(n *Node) *counter {
	return n.priv.(*counter)
}

// logLine is one captured log message.
type logLine struct {
	level   LogLevel
	module  string
	message string
}

func newTestContext(t *testing.T) (*Context, *headless.Device, *[]logLine) {
	t.Helper()
	var lines []logLine
	cfg := DefaultConfig()
	cfg.LogLevel = LogDebug
	cfg.LogFunc = func(level LogLevel, module, message string) {
		lines = append(lines, logLine{level, module, message})
	}
	ctx := NewContext(&cfg)
	dev := headless.New()
	if err := ctx.SetDevice(dev); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}
	return ctx, dev, &lines
}

func mustNode(t *testing.T, id ClassID, args ...any) *Node {
	t.Helper()
	n, err := NewNode(id, args...)
	if err != nil {
		t.Fatalf("NewNode(%s): %v", id, err)
	}
	return n
}

func assertErrorIs(t *testing.T, what string, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Errorf("%s: err = %v, want %v", what, err, want)
	}
}

// --- Construction ---

func TestNewNodeDefaults(t *testing.T) {
	n := mustNode(t, ClassScale, mustNode(t, ClassIdentity))
	if n.ID() == 0 {
		t.Error("ID should be non-zero")
	}
	if n.Name() != "Scale" {
		t.Errorf("Name = %q, want %q", n.Name(), "Scale")
	}
	if n.Class() != ClassScale {
		t.Errorf("Class = %v, want %v", n.Class(), ClassScale)
	}
	if n.RefCount() != 1 {
		t.Errorf("RefCount = %d, want 1", n.RefCount())
	}
	if n.State() != StateConstructed {
		t.Errorf("State = %v, want %v", n.State(), StateConstructed)
	}
	v, _ := n.Get("factors")
	if v != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("factors = %v, want (1,1,1)", v)
	}
	if n.ModelView != mgl32.Ident4() {
		t.Errorf("ModelView = %v, want identity", n.ModelView)
	}
}

func TestUniqueIDs(t *testing.T) {
	seen := make(map[uint32]bool)
	for i := 0; i < 100; i++ {
		n := mustNode(t, ClassGroup)
		if seen[n.ID()] {
			t.Fatalf("duplicate ID %d", n.ID())
		}
		seen[n.ID()] = true
	}
}

func TestNewNodeUnknownClass(t *testing.T) {
	_, err := NewNode(numClasses)
	assertErrorIs(t, "NewNode", err, ErrInvalidArgument)
}

func TestNewNodeMissingConstructor(t *testing.T) {
	_, err := NewNode(ClassRotate)
	assertErrorIs(t, "NewNode(Rotate)", err, ErrInvalidArgument)
}

func TestNewNodeTooManyConstructors(t *testing.T) {
	id := mustNode(t, ClassIdentity)
	_, err := NewNode(ClassRotate, id, 3)
	assertErrorIs(t, "NewNode(Rotate, id, 3)", err, ErrInvalidArgument)
	if id.RefCount() != 1 {
		t.Errorf("child RefCount = %d, want 1 after failed construction", id.RefCount())
	}
}

func TestNewNodeWrongConstructorType(t *testing.T) {
	_, err := NewNode(ClassBufferFloat, "b", "three")
	assertErrorIs(t, "NewNode(BufferFloat)", err, ErrInvalidArgument)
}

func TestNewNodeNilConstructorNode(t *testing.T) {
	_, err := NewNode(ClassTranslate, nil)
	assertErrorIs(t, "NewNode(Translate, nil)", err, ErrInvalidArgument)
}

func TestMustNewNodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustNewNode(ClassCamera)
}

// --- Reference counting ---

func TestCreateUnrefNeverUninits(t *testing.T) {
	n := newCounter(t, "c")
	c := counterOf(n)
	n.Unref()
	if c.inits != 0 || c.uninits != 0 {
		t.Errorf("inits/uninits = %d/%d, want 0/0", c.inits, c.uninits)
	}
	if n.State() != StateDestroyed {
		t.Errorf("State = %v, want %v", n.State(), StateDestroyed)
	}
}

func TestUnrefReleasesChildren(t *testing.T) {
	child := newCounter(t, "child")
	parent := newCounter(t, "parent", child)
	if child.RefCount() != 2 {
		t.Fatalf("child RefCount = %d, want 2", child.RefCount())
	}
	child.Unref()
	if child.State() == StateDestroyed {
		t.Fatal("child released while still linked")
	}
	parent.Unref()
	if child.State() != StateDestroyed {
		t.Errorf("child State = %v, want %v", child.State(), StateDestroyed)
	}
}

func TestUnrefNilAndDestroyed(t *testing.T) {
	var n *Node
	n.Unref()
	if n.Ref() != nil {
		t.Error("Ref on nil should return nil")
	}
	g := mustNode(t, ClassGroup)
	g.Unref()
	g.Unref()
	if g.RefCount() != 0 {
		t.Errorf("RefCount = %d, want 0", g.RefCount())
	}
}

// --- Parameters ---

func TestSetAndGet(t *testing.T) {
	r := mustNode(t, ClassRotate, mustNode(t, ClassIdentity))
	if err := r.Set("angle", 45); err != nil {
		t.Fatalf("Set angle: %v", err)
	}
	if err := r.Set("axis", 1, 0, 0); err != nil {
		t.Fatalf("Set axis: %v", err)
	}
	if v, _ := r.Get("angle"); v != 45.0 {
		t.Errorf("angle = %v, want 45", v)
	}
	if v, _ := r.Get("axis"); v != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("axis = %v, want (1,0,0)", v)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
}

func TestSetErrors(t *testing.T) {
	r := mustNode(t, ClassRotate, mustNode(t, ClassIdentity))
	assertErrorIs(t, "unknown key", r.Set("spin", 1), ErrInvalidArgument)
	assertErrorIs(t, "constructor key", r.Set("child", mustNode(t, ClassIdentity)), ErrInvalidArgument)
	assertErrorIs(t, "wrong type", r.Set("angle", "fast"), ErrTypeMismatch)
	assertErrorIs(t, "wrong arity", r.Set("axis", 1, 0), ErrTypeMismatch)
	assertErrorIs(t, "zero axis", r.Set("axis", mgl32.Vec3{}), ErrInvalidArgument)
	if v, _ := r.Get("axis"); v != (mgl32.Vec3{0, 0, 1}) {
		t.Errorf("axis = %v, want unchanged (0,0,1)", v)
	}
}

func TestSetWrongNodeClassLeavesSlotUnset(t *testing.T) {
	color := mustNode(t, ClassTexture)
	r := mustNode(t, ClassRTT, mustNode(t, ClassGroup), color)
	sh := mustNode(t, ClassShader)

	assertErrorIs(t, "Set depth_texture", r.Set("depth_texture", sh), ErrInvalidNodeType)
	if v, _ := r.Get("depth_texture"); v.(*Node) != nil {
		t.Errorf("depth_texture = %v, want unset", v)
	}
	if sh.RefCount() != 1 {
		t.Errorf("rejected node RefCount = %d, want 1", sh.RefCount())
	}
}

func TestConstructorWrongNodeClass(t *testing.T) {
	tex := mustNode(t, ClassTexture)
	_, err := NewNode(ClassCompute, 1, 1, 1, tex)
	assertErrorIs(t, "NewNode(Compute, texture)", err, ErrInvalidNodeType)
	if tex.RefCount() != 1 {
		t.Errorf("texture RefCount = %d, want 1", tex.RefCount())
	}
}

func TestSetNodeReplacesReference(t *testing.T) {
	u := mustNode(t, ClassUniformMat4, "m")
	a := mustNode(t, ClassIdentity)
	b := mustNode(t, ClassIdentity)
	if err := u.Set("transform", a); err != nil {
		t.Fatal(err)
	}
	if err := u.Set("transform", a); err != nil {
		t.Fatal(err)
	}
	if a.RefCount() != 2 {
		t.Errorf("a RefCount = %d, want 2 after setting it twice", a.RefCount())
	}
	if err := u.Set("transform", b); err != nil {
		t.Fatal(err)
	}
	if a.RefCount() != 1 || b.RefCount() != 2 {
		t.Errorf("RefCounts a=%d b=%d, want 1 and 2", a.RefCount(), b.RefCount())
	}
	if err := u.Set("transform", nil); err != nil {
		t.Fatal(err)
	}
	if b.RefCount() != 1 {
		t.Errorf("b RefCount = %d, want 1 after clearing", b.RefCount())
	}
}

func TestAddLists(t *testing.T) {
	g := mustNode(t, ClassGroup)
	a, b := mustNode(t, ClassIdentity), mustNode(t, ClassIdentity)
	if err := g.Add("children", a, b); err != nil {
		t.Fatal(err)
	}
	v, _ := g.Get("children")
	if list := v.([]*Node); len(list) != 2 || list[0] != a || list[1] != b {
		t.Errorf("children = %v, want [a b]", list)
	}
	assertErrorIs(t, "Add non-node", g.Add("children", 3), ErrTypeMismatch)

	buf := mustNode(t, ClassBufferFloat, "b", 2)
	if err := buf.Add("values", 1, 2.5); err != nil {
		t.Fatal(err)
	}
	if v, _ := buf.Get("values"); len(v.([]float64)) != 2 || v.([]float64)[1] != 2.5 {
		t.Errorf("values = %v, want [1 2.5]", v)
	}
	assertErrorIs(t, "Set on list", buf.Set("values", 1.0), ErrTypeMismatch)
}

func TestAddWrongNodeClass(t *testing.T) {
	ts := mustNode(t, ClassTexturedShape, mustNode(t, ClassTriangle,
		mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}), mustNode(t, ClassShader))
	assertErrorIs(t, "Add texture to uniforms", ts.Add("uniforms", mustNode(t, ClassTexture)), ErrInvalidNodeType)
	if v, _ := ts.Get("uniforms"); len(v.([]*Node)) != 0 {
		t.Errorf("uniforms = %v, want empty", v)
	}
}

func TestParamsRegistry(t *testing.T) {
	for id := ClassID(0); id < numClasses; id++ {
		if classes[id] == nil || classes[id].id != id {
			t.Errorf("class %s not registered", id)
		}
	}
	if findParam(Params(ClassRotate), "angle") == nil {
		t.Error("Rotate has no angle param")
	}
	if Params(numClasses) != nil {
		t.Error("Params of an unknown class should be nil")
	}
}

// --- Attachment ---

func TestAttachDetachRestoresState(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	a, b := newCounter(t, "a"), newCounter(t, "b")
	root := newCounter(t, "root", a, b)

	if err := ctx.SetScene(root); err != nil {
		t.Fatalf("SetScene: %v", err)
	}
	for _, n := range []*Node{root, a, b} {
		if n.Context() != ctx || n.State() != StateAttached {
			t.Errorf("%s: State = %v, want attached", n.Name(), n.State())
		}
	}
	if len(ctx.nodes) != 3 {
		t.Errorf("attached nodes = %d, want 3", len(ctx.nodes))
	}
	if root.RefCount() != 2 {
		t.Errorf("root RefCount = %d, want 2", root.RefCount())
	}

	if err := ctx.SetScene(nil); err != nil {
		t.Fatal(err)
	}
	for _, n := range []*Node{root, a, b} {
		if n.IsAttached() || n.State() != StateConstructed {
			t.Errorf("%s: State = %v, want constructed", n.Name(), n.State())
		}
	}
	if root.RefCount() != 1 {
		t.Errorf("root RefCount = %d, want 1", root.RefCount())
	}
	root.detach()
	if len(ctx.nodes) != 0 {
		t.Errorf("attached nodes = %d, want 0", len(ctx.nodes))
	}
}

func TestAttachSharedDescendant(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	shared := newCounter(t, "shared")
	root := newCounter(t, "root", newCounter(t, "a", shared), newCounter(t, "b", shared))
	if err := ctx.SetScene(root); err != nil {
		t.Fatalf("SetScene: %v", err)
	}
	if len(ctx.nodes) != 4 {
		t.Errorf("attached nodes = %d, want 4", len(ctx.nodes))
	}
}

func TestAttachAlreadyAttached(t *testing.T) {
	ctx1, _, _ := newTestContext(t)
	ctx2, _, _ := newTestContext(t)
	x := newCounter(t, "x")
	if err := ctx1.SetScene(x); err != nil {
		t.Fatal(err)
	}

	fresh := newCounter(t, "fresh")
	root := newCounter(t, "root", fresh, x)
	assertErrorIs(t, "SetScene", ctx2.SetScene(root), ErrAlreadyAttached)
	if fresh.IsAttached() || root.IsAttached() {
		t.Error("failed attach should be rolled back")
	}
	if ctx2.Scene() != nil {
		t.Error("scene should not be set after a failed attach")
	}
	if x.Context() != ctx1 {
		t.Error("x should stay attached to its context")
	}
	assertErrorIs(t, "attach root", x.attach(ctx2), ErrAlreadyAttached)
}

func TestDebugCycleDetection(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	ctx.SetDebugMode(true)

	a := newCounter(t, "a")
	b := newCounter(t, "b", a)
	if err := ctx.SetScene(b); err != nil {
		t.Fatal(err)
	}
	assertErrorIs(t, "Add cycle", a.Add("children", b), ErrInvalidArgument)
	if len(counterOf(a).children) != 0 {
		t.Error("cycle edge should not be stored")
	}

	ctx2, _, _ := newTestContext(t)
	ctx2.SetDebugMode(true)
	c := newCounter(t, "c")
	d := newCounter(t, "d", c)
	if err := c.Add("children", d); err != nil {
		t.Fatal(err)
	}
	assertErrorIs(t, "SetScene cycle", ctx2.SetScene(d), ErrInvalidArgument)
	if c.IsAttached() || d.IsAttached() {
		t.Error("cyclic graph should not stay attached")
	}
}

func TestLinkAttachesNewChildren(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	root := newCounter(t, "root")
	if err := ctx.SetScene(root); err != nil {
		t.Fatal(err)
	}
	late := newCounter(t, "late")
	if err := root.Add("children", late); err != nil {
		t.Fatal(err)
	}
	if late.Context() != ctx {
		t.Error("child added after SetScene should be attached")
	}
}

func TestSetNodePrunesUnreachable(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	u := mustNode(t, ClassUniformMat4, "m")
	a := mustNode(t, ClassIdentity)
	b := mustNode(t, ClassIdentity)
	if err := u.Set("transform", a); err != nil {
		t.Fatal(err)
	}
	if err := ctx.SetScene(u); err != nil {
		t.Fatal(err)
	}
	if err := u.Set("transform", b); err != nil {
		t.Fatal(err)
	}
	if a.IsAttached() {
		t.Error("replaced node should be detached")
	}
	if !b.IsAttached() {
		t.Error("new node should be attached")
	}
}

func TestRelinkAfterInitRejected(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	u := mustNode(t, ClassUniformMat4, "m")
	if err := ctx.SetScene(u); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Draw(0); err != nil {
		t.Fatal(err)
	}
	assertErrorIs(t, "Set after init", u.Set("transform", mustNode(t, ClassIdentity)), ErrInvalidArgument)

	g := mustNode(t, ClassGroup)
	if err := ctx.SetScene(g); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Draw(0); err != nil {
		t.Fatal(err)
	}
	assertErrorIs(t, "Add after init", g.Add("children", mustNode(t, ClassIdentity)), ErrInvalidArgument)
}

// --- Lifecycle ---

func TestInitRequiresContext(t *testing.T) {
	n := newCounter(t, "n")
	assertErrorIs(t, "init", n.init(), ErrNotAttached)

	ctx := NewContext(&Config{LogFunc: func(LogLevel, string, string) {}})
	if err := ctx.SetScene(n); err != nil {
		t.Fatal(err)
	}
	assertErrorIs(t, "init without device", n.init(), ErrNotAttached)
}

func TestInitFailureLeavesUninitialized(t *testing.T) {
	ctx, _, lines := newTestContext(t)
	n := newCounter(t, "n")
	counterOf(n).failInit = errors.New("boom")
	if err := ctx.SetScene(n); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Draw(0); err == nil {
		t.Fatal("Draw should fail")
	}
	c := counterOf(n)
	if n.IsInitialized() {
		t.Error("node should stay uninitialized")
	}
	if c.uninits != 1 {
		t.Errorf("uninits = %d, want 1 (cleanup of the failed init)", c.uninits)
	}
	found := false
	for _, l := range *lines {
		if l.level == LogError && l.module == "Counter" {
			found = true
		}
	}
	if !found {
		t.Error("init failure should be logged at ERROR")
	}
}

func TestUpdateUninitializedLogsError(t *testing.T) {
	ctx, _, lines := newTestContext(t)
	n := newCounter(t, "n")
	if err := ctx.SetScene(n); err != nil {
		t.Fatal(err)
	}
	*lines = nil
	n.update(0)
	n.draw()
	if c := counterOf(n); c.updates != 0 || c.draws != 0 {
		t.Errorf("updates/draws = %d/%d, want 0/0", c.updates, c.draws)
	}
	errs := 0
	for _, l := range *lines {
		if l.level == LogError {
			errs++
		}
	}
	if errs != 2 {
		t.Errorf("ERROR lines = %d, want 2", errs)
	}
}

func TestInitIdempotent(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	n := newCounter(t, "n")
	if err := ctx.SetScene(n); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := n.init(); err != nil {
			t.Fatal(err)
		}
	}
	if c := counterOf(n); c.inits != 1 {
		t.Errorf("inits = %d, want 1", c.inits)
	}
	if n.State() != StateInitialized {
		t.Errorf("State = %v, want %v", n.State(), StateInitialized)
	}
}

func TestSharedNodeUpdatedOncePerFrame(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	shared := newCounter(t, "shared")
	root := newCounter(t, "root", newCounter(t, "a", shared), newCounter(t, "b", shared))
	if err := ctx.SetScene(root); err != nil {
		t.Fatal(err)
	}
	c := counterOf(shared)
	for frame := 1; frame <= 3; frame++ {
		if err := ctx.Draw(0.5); err != nil {
			t.Fatal(err)
		}
		if c.updates != frame {
			t.Errorf("frame %d: updates = %d, want %d", frame, c.updates, frame)
		}
	}
	if c.draws != 6 {
		t.Errorf("draws = %d, want 6 (drawn under both parents)", c.draws)
	}
	if c.inits != 1 {
		t.Errorf("inits = %d, want 1", c.inits)
	}
}

func TestSharedNodeUnderTwoTransforms(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	shared := newCounter(t, "shared")
	t1 := mustNode(t, ClassTranslate, shared)
	t2 := mustNode(t, ClassTranslate, shared)
	if err := t2.Set("vector", 5, 0, 0); err != nil {
		t.Fatal(err)
	}
	g := mustNode(t, ClassGroup)
	if err := g.Add("children", t1, t2); err != nil {
		t.Fatal(err)
	}
	if err := ctx.SetScene(g); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Draw(0); err != nil {
		t.Fatal(err)
	}
	c := counterOf(shared)
	if c.updates != 1 {
		t.Errorf("updates = %d, want 1", c.updates)
	}
	if len(c.drawn) != 2 {
		t.Fatalf("draws = %d, want 2", len(c.drawn))
	}
	if x := c.drawn[0].Col(3).X(); x != 0 {
		t.Errorf("draw 0 translation x = %v, want 0", x)
	}
	if x := c.drawn[1].Col(3).X(); x != 5 {
		t.Errorf("draw 1 translation x = %v, want 5", x)
	}
}
