package resolve_test

import (
	"testing"

	"crest/internal/ir"
	"crest/internal/resolve"
	"crest/internal/testkit"
	"crest/internal/types"
)

// findMoveTo returns the move statement assigning into a var with the given
// name, searching the block recursively.
func findMoveTo(mod *ir.Module, b *ir.Block, name string) (ir.MoveData, bool) {
	for i := range b.Stmts {
		switch data := b.Stmts[i].Data.(type) {
		case ir.MoveData:
			if v := mod.Var(data.Dst.VarOf()); v != nil && v.Name == name {
				return data, true
			}
		case ir.IfData:
			if m, ok := findMoveTo(mod, data.Then, name); ok {
				return m, ok
			}
			if data.Else != nil {
				if m, ok := findMoveTo(mod, data.Else, name); ok {
					return m, ok
				}
			}
		case ir.LoopData:
			if m, ok := findMoveTo(mod, data.Body, name); ok {
				return m, ok
			}
		}
	}
	return ir.MoveData{}, false
}

// setMembers collects (field, value var) pairs written into the receiver.
func setMembers(mod *ir.Module, b *ir.Block) map[string]ir.VarID {
	out := make(map[string]ir.VarID)
	ir.WalkExprs(b, func(e *ir.Expr) {
		data := e.AsCall()
		if data == nil || data.Callee.Prim != ir.PrimSetMember {
			return
		}
		if len(data.Args) == 2 {
			out[data.Field] = data.Args[1].VarOf()
		}
	})
	return out
}

// Scenario: record R { var x: int = 5; var y: int; } constructed as
// new R(y=7). The wrapper copy-constructs the default for x, writes the
// field, and forwards the same temp to the inner constructor — the field is
// then written a second time by the constructor itself. That double write is
// deliberate: array fields initialized by iterators read sibling fields
// before the constructor runs.
func TestDefaultConstructorFieldWiring(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	recType := f.Types.RegisterRecord("R", []types.Field{
		{Name: "x", Type: bt.Int},
		{Name: "y", Type: bt.Int},
	})
	ctor := f.DefineFunc("R", recType,
		testkit.FormalSpec{Name: "x", Type: bt.Int, Default: f.IntDefault(5)},
		testkit.FormalSpec{Name: "y", Type: bt.Int},
	)
	cf := f.Mod.Func(ctor)
	cf.Flags = cf.Flags.With(ir.FlagConstructor).With(ir.FlagDefaultConstructor)
	cf.This = ir.ToVar(f.Mod.NewVar("this", recType, spanless()))

	seven := f.Mod.NewIntLit(7, spanless())
	info, a2f := f.CallSite(ctor, testkit.ByName("y", seven))

	st := newState(f)
	wrapped, err := resolve.WrapCall(st, ctor, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	if wrapped == ctor {
		t.Fatalf("expected a default wrapper for the constructor")
	}

	w := f.Mod.Func(wrapped)
	if w.Flags.Has(ir.FlagCompilerGenerated) {
		t.Errorf("specialized constructor wrapper must drop the generated flag")
	}
	if !w.This.Var.IsValid() {
		t.Fatalf("constructor wrapper must own a receiver var")
	}

	// x_tmp := initCopy(5)
	move, ok := findMoveTo(f.Mod, w.Body, "default_arg_x")
	if !ok {
		t.Fatalf("no binding for the omitted field formal")
	}
	src := move.Src.AsCall()
	if src == nil || src.Callee.Name != "initCopy" {
		t.Fatalf("omitted constructor formal must copy-construct its default")
	}
	if lit := f.Mod.Var(src.Args[0].VarOf()); lit == nil || !lit.IsImmediate() || lit.Imm.Int != 5 {
		t.Fatalf("initCopy does not receive the declared default")
	}

	// set_member(this, "x", x_tmp) and set_member(this, "y", copy)
	members := setMembers(f.Mod, w.Body)
	xTemp, ok := members["x"]
	if !ok {
		t.Fatalf("field x not wired in the wrapper")
	}
	if f.Mod.Var(xTemp).Name != "default_arg_x" {
		t.Errorf("field x wired from %q, want the default temp", f.Mod.Var(xTemp).Name)
	}
	yTemp, ok := members["y"]
	if !ok {
		t.Fatalf("field y not wired in the wrapper")
	}
	if f.Mod.Var(yTemp).Name != "wrap_arg" {
		t.Errorf("field y wired from %q, want the auto-copy temp", f.Mod.Var(yTemp).Name)
	}

	// the inner constructor call receives the same temps (the double write)
	inner := callsTo(w.Body, ctor)
	if len(inner) != 1 {
		t.Fatalf("wrapper invokes the constructor %d times, want 1", len(inner))
	}
	args := inner[0].AsCall().Args
	if len(args) != 2 {
		t.Fatalf("inner constructor call carries %d actuals, want 2", len(args))
	}
	if args[0].VarOf() != xTemp {
		t.Errorf("inner actual x is not the field temp")
	}
	if args[1].VarOf() != yTemp {
		t.Errorf("inner actual y is not the field temp")
	}

	// the receiver's fields are default-initialized before any wiring
	foundInitFields := false
	ir.WalkExprs(w.Body, func(e *ir.Expr) {
		if data := e.AsCall(); data != nil && data.Callee.Prim == ir.PrimInitFields {
			foundInitFields = true
		}
	})
	if !foundInitFields {
		t.Errorf("constructor wrapper must default-initialize the receiver")
	}
}

// A class constructor whose trailing placeholder formal is omitted heap
// allocates the receiver.
func TestClassConstructorAllocatesReceiver(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	clsType := f.Types.RegisterClass("Counter", types.NoTypeID, []types.Field{
		{Name: "n", Type: bt.Int},
	})
	ctor := f.DefineFunc("Counter", clsType,
		testkit.FormalSpec{Name: "n", Type: bt.Int, Default: f.IntDefault(0)},
		testkit.FormalSpec{Name: "meme", Type: clsType, Flags: ir.FlagMeme},
	)
	cf := f.Mod.Func(ctor)
	cf.Flags = cf.Flags.With(ir.FlagConstructor).With(ir.FlagDefaultConstructor)
	cf.This = ir.ToVar(f.Mod.NewVar("this", clsType, spanless()))

	info, a2f := f.CallSite(ctor)

	st := newState(f)
	wrapped, err := resolve.WrapCall(st, ctor, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	w := f.Mod.Func(wrapped)

	foundAlloc := false
	ir.WalkExprs(w.Body, func(e *ir.Expr) {
		if data := e.AsCall(); data != nil && data.Callee.Name == "_heapAlloc" {
			foundAlloc = true
		}
	})
	if !foundAlloc {
		t.Fatalf("class receiver must be heap allocated")
	}

	// the omitted placeholder binds to the wrapper's receiver
	inner := callsTo(w.Body, ctor)
	if len(inner) != 1 {
		t.Fatalf("wrapper invokes the constructor %d times, want 1", len(inner))
	}
	args := inner[0].AsCall().Args
	if args[len(args)-1].VarOf() != w.This.Var {
		t.Errorf("placeholder formal must forward the receiver")
	}
}

// An omitted formal bound in the param map forwards its value with no temp.
func TestParamBoundFormalForwardsValue(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	fn := f.DefineFunc("stride", bt.Int,
		testkit.FormalSpec{Name: "a", Type: bt.Int},
		testkit.FormalSpec{Name: "step", Type: bt.Int, Intent: ir.IntentParam, Default: f.IntDefault(1)},
	)
	bound := f.Mod.NewIntLit(4, spanless())
	f.Mod.ParamMap[f.Mod.Func(fn).Formals[1]] = bound

	one := f.Mod.NewIntLit(1, spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(one))

	st := newState(f)
	wrapped, err := resolve.WrapCall(st, fn, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	w := f.Mod.Func(wrapped)
	inner := callsTo(w.Body, fn)
	if len(inner) != 1 {
		t.Fatalf("wrapper invokes origin %d times, want 1", len(inner))
	}
	args := inner[0].AsCall().Args
	if args[1].VarOf() != bound {
		t.Fatalf("param-bound formal must forward the bound value directly")
	}
}

// An out-intent formal ignores its default expression and takes the type's
// default value instead.
func TestOutIntentUsesTypeDefault(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	fn := f.DefineFunc("probe", bt.Int,
		testkit.FormalSpec{Name: "a", Type: bt.Int},
		testkit.FormalSpec{Name: "result", Type: bt.Int, Intent: ir.IntentOut, Default: f.IntDefault(99)},
	)
	one := f.Mod.NewIntLit(1, spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(one))

	st := newState(f)
	wrapped, err := resolve.WrapCall(st, fn, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	w := f.Mod.Func(wrapped)

	move, ok := findMoveTo(f.Mod, w.Body, "default_arg_result")
	if !ok {
		t.Fatalf("omitted out formal not bound")
	}
	src := move.Src.AsCall()
	if src == nil || src.Callee.Prim != ir.PrimInitDefault {
		t.Fatalf("out formal must take the type default, not its default expression")
	}
	temp := move.Dst.VarOf()
	if f.Mod.Var(temp).Flags.Has(ir.FlagExprTemp) {
		t.Errorf("out-intent temp must stay writable (no expression-temp marker)")
	}
}

// The "use the type's default" sentinel behaves like no default at all.
func TestTypeDefaultSentinel(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	sentinel := ir.NewBlock(spanless())
	sentinel.Append(ir.ExprStmt(f.Mod.VarRef(f.Mod.Globals.TypeDefault, spanless()), spanless()))

	fn := f.DefineFunc("fill", bt.Int,
		testkit.FormalSpec{Name: "a", Type: bt.Int},
		testkit.FormalSpec{Name: "b", Type: bt.Int, Default: sentinel},
	)
	one := f.Mod.NewIntLit(1, spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(one))

	st := newState(f)
	wrapped, err := resolve.WrapCall(st, fn, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	w := f.Mod.Func(wrapped)

	move, ok := findMoveTo(f.Mod, w.Body, "default_arg_b")
	if !ok {
		t.Fatalf("omitted formal not bound")
	}
	src := move.Src.AsCall()
	if src == nil || src.Callee.Prim != ir.PrimInitDefault {
		t.Fatalf("sentinel default must apply the type default")
	}
}
