package resolve_test

import (
	"testing"

	"crest/internal/ir"
	"crest/internal/resolve"
	"crest/internal/testkit"
)

func newState(f *testkit.Fixture) *resolve.State {
	return resolve.NewState(f.Mod, resolve.NewRuleOracle(f.Mod), nil, resolve.DefaultOptions())
}

// callsTo gathers calls targeting fn inside a block.
func callsTo(b *ir.Block, fn ir.FuncID) []*ir.Expr {
	var out []*ir.Expr
	for _, call := range ir.CollectCalls(b) {
		if data := call.AsCall(); data != nil && data.Callee.Fn == fn {
			out = append(out, call)
		}
	}
	return out
}

func TestWrapperInheritsFlagTable(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	fn := f.DefineFunc("accessor", bt.Int,
		testkit.FormalSpec{Name: "a", Type: bt.Int},
		testkit.FormalSpec{Name: "b", Type: bt.Int, Default: f.IntDefault(4)},
	)
	orig := f.Mod.Func(fn)
	orig.Flags = orig.Flags.
		With(ir.FlagInitCopyFn).
		With(ir.FlagAutoCopyFn).
		With(ir.FlagDonorFn).
		With(ir.FlagNoParens).
		With(ir.FlagFieldAccessor).
		With(ir.FlagRefToConst).
		With(ir.FlagMethod).
		With(ir.FlagMethodPrimary).
		With(ir.FlagAssignOp).
		With(ir.FlagLastResort).
		With(ir.FlagCompilerGenerated)
	orig.Throws = true
	orig.RetKind = ir.RetRef

	one := f.Mod.NewIntLit(1, spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(one))

	st := newState(f)
	wrapped, err := resolve.WrapCall(st, fn, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	if wrapped == fn {
		t.Fatalf("expected a default wrapper")
	}

	w := f.Mod.Func(wrapped)
	inherited := []ir.Flags{
		ir.FlagInitCopyFn, ir.FlagAutoCopyFn, ir.FlagDonorFn, ir.FlagNoParens,
		ir.FlagFieldAccessor, ir.FlagRefToConst, ir.FlagMethod,
		ir.FlagMethodPrimary, ir.FlagAssignOp, ir.FlagLastResort,
	}
	for _, flag := range inherited {
		if !w.Flags.Has(flag) {
			t.Errorf("wrapper lost inherited flag %s", flag)
		}
	}
	always := []ir.Flags{
		ir.FlagWrapper, ir.FlagInvisible, ir.FlagInline, ir.FlagCompilerGenerated,
	}
	for _, flag := range always {
		if !w.Flags.Has(flag) {
			t.Errorf("wrapper missing mandatory flag %s", flag)
		}
	}
	if !w.Flags.Has(ir.FlagWasCompilerGenerated) {
		t.Errorf("origin was compiler generated; wrapper must record it")
	}
	if !w.Throws {
		t.Errorf("throws bit not preserved")
	}
	if w.RetKind != ir.RetRef {
		t.Errorf("return kind = %s, want ref", w.RetKind)
	}
	if w.Name != orig.Name {
		t.Errorf("wrapper name = %q, want %q", w.Name, orig.Name)
	}
	if w.InstantiationScope != info.Scope {
		t.Errorf("instantiation point must be the call site's visibility block")
	}
}

func TestWrapperIteratorReturnsValueByDefault(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	fn := f.DefineFunc("pairs", bt.Int,
		testkit.FormalSpec{Name: "n", Type: bt.Int},
		testkit.FormalSpec{Name: "stride", Type: bt.Int, Default: f.IntDefault(1)},
	)
	orig := f.Mod.Func(fn)
	orig.Flags = orig.Flags.With(ir.FlagIterator)
	orig.RetKind = ir.RetRef

	one := f.Mod.NewIntLit(1, spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(one))

	st := newState(f)
	wrapped, err := resolve.WrapCall(st, fn, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	if got := f.Mod.Func(wrapped).RetKind; got != ir.RetValue {
		t.Fatalf("iterator wrapper return kind = %s, want value", got)
	}
}

func TestFormalCloneFlattensIntent(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	// Out and inout formals leave a writeback marker on the wrapper; ref
	// intents survive; in flattens to blank.
	fn := f.DefineFunc("mix", bt.Int,
		testkit.FormalSpec{Name: "a", Type: bt.Int, Intent: ir.IntentOut},
		testkit.FormalSpec{Name: "b", Type: bt.Int, Intent: ir.IntentInout},
		testkit.FormalSpec{Name: "c", Type: bt.Int, Intent: ir.IntentRef},
		testkit.FormalSpec{Name: "d", Type: bt.Int, Intent: ir.IntentConstRef},
		testkit.FormalSpec{Name: "e", Type: bt.Int, Intent: ir.IntentIn},
		testkit.FormalSpec{Name: "f", Type: bt.Int, Default: f.IntDefault(0)},
	)

	vars := make([]testkit.Actual, 0, 5)
	for i := 0; i < 5; i++ {
		vars = append(vars, testkit.Pos(f.Mod.NewIntLit(int64(i), spanless())))
	}
	info, a2f := f.CallSite(fn, vars...)

	st := newState(f)
	wrapped, err := resolve.WrapCall(st, fn, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}

	w := f.Mod.Func(wrapped)
	check := func(i int, wantIntent ir.Intent, wantWriteback bool) {
		t.Helper()
		formal := f.Mod.Formal(w.Formals[i])
		if formal.Intent != wantIntent {
			t.Errorf("formal %q intent = %s, want %s", formal.Name, formal.Intent, wantIntent)
		}
		if formal.Flags.Has(ir.FlagWrapWrittenFormal) != wantWriteback {
			t.Errorf("formal %q writeback marker = %v, want %v",
				formal.Name, formal.Flags.Has(ir.FlagWrapWrittenFormal), wantWriteback)
		}
	}
	check(0, ir.IntentBlank, true)
	check(1, ir.IntentBlank, true)
	check(2, ir.IntentRef, false)
	check(3, ir.IntentConstRef, false)
	check(4, ir.IntentBlank, false)
}
