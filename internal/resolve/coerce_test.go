package resolve_test

import (
	"strings"
	"testing"

	"crest/internal/diag"
	"crest/internal/ir"
	"crest/internal/resolve"
	"crest/internal/testkit"
)

// insertedBefore returns the statements the pass planted ahead of the call.
func insertedBefore(info *resolve.CallInfo, originalAnchor int) []ir.Stmt {
	return info.Block.Stmts[originalAnchor:info.Anchor]
}

// Scenario: g(x: real) with a ref(sync(int)) actual. Expected cast sequence:
// readFullEmpty, deref, int-to-real cast — three temps, final actual real.
func TestCoercionChainThroughRefSync(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	fn := f.DefineFunc("g", bt.Real,
		testkit.FormalSpec{Name: "x", Type: bt.Real},
	)
	refSyncInt := f.Types.MakeRef(f.Types.MakeSync(bt.Int))
	cell := f.Mod.NewVar("cell", refSyncInt, spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(cell))
	anchor := info.Anchor

	st := newState(f)
	wrapped, err := resolve.WrapCall(st, fn, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	if wrapped != fn {
		t.Fatalf("coercion alone must not synthesize a wrapper")
	}

	final := info.Actuals[0]
	if got := f.Mod.Var(final).Type; got != bt.Real {
		t.Fatalf("final actual typed %s, want real", f.Types.String(got))
	}
	if info.Args()[0].VarOf() != final {
		t.Fatalf("call actual and metadata disagree")
	}

	// def+move per step: readFullEmpty, deref, cast
	steps := insertedBefore(info, anchor)
	if len(steps) != 6 {
		t.Fatalf("inserted %d statements, want 6 (three def/move pairs)", len(steps))
	}
	var ops []string
	var temps []ir.VarID
	for _, s := range steps {
		move, ok := s.Data.(ir.MoveData)
		if !ok {
			continue
		}
		temps = append(temps, move.Dst.VarOf())
		data := move.Src.AsCall()
		switch {
		case data.Callee.Name != "":
			ops = append(ops, data.Callee.Name)
		default:
			ops = append(ops, data.Callee.Prim.String())
		}
	}
	want := []string{"readFullEmpty", "deref", "_cast"}
	if len(ops) != 3 {
		t.Fatalf("coercion took %d steps: %v, want 3", len(ops), ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("step %d = %s, want %s (chain %v)", i, ops[i], want[i], ops)
		}
	}
	for _, temp := range temps {
		if !f.Mod.Var(temp).Flags.Has(ir.FlagCoerceTemp) {
			t.Errorf("coercion temp lacks its marker flag")
		}
	}
	if temps[len(temps)-1] != final {
		t.Fatalf("last temp must be the final actual")
	}
}

// Scenario: c(s: c_string) with a string literal actual. The literal is
// replaced in place; no cast is synthesized.
func TestStringLiteralBecomesCString(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	fn := f.DefineFunc("c", bt.Int,
		testkit.FormalSpec{Name: "s", Type: bt.CString},
	)
	lit := f.Mod.NewStringLit("hi", spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(lit))
	anchor := info.Anchor

	st := newState(f)
	if _, err := resolve.WrapCall(st, fn, info, a2f); err != nil {
		t.Fatalf("WrapCall: %v", err)
	}

	if len(insertedBefore(info, anchor)) != 0 {
		t.Fatalf("literal swap must not insert statements")
	}
	swapped := f.Mod.Var(info.Actuals[0])
	if swapped.Type != bt.CString {
		t.Fatalf("swapped literal typed %s, want c_string", f.Types.String(swapped.Type))
	}
	if !swapped.IsImmediate() || swapped.Imm.Str != "hi" {
		t.Fatalf("swapped literal lost its value")
	}
	if info.Actuals[0] == lit {
		t.Fatalf("literal var must be replaced, not retyped")
	}
}

// Scenario: p(x: int) param. Coercion is a no-op even though types differ;
// the call folds away later and a sync read here would leave side effects.
func TestParamReturnSkipsCoercion(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	fn := f.DefineFunc("p", bt.Int,
		testkit.FormalSpec{Name: "x", Type: bt.Int},
	)
	f.Mod.Func(fn).RetKind = ir.RetParam

	cell := f.Mod.NewVar("cell", f.Types.MakeSync(bt.Int), spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(cell))
	anchor := info.Anchor

	st := newState(f)
	wrapped, err := resolve.WrapCall(st, fn, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	if wrapped != fn {
		t.Fatalf("param-return call must not be wrapped")
	}
	if len(insertedBefore(info, anchor)) != 0 {
		t.Fatalf("param-return call must not receive coercions")
	}
	if info.Actuals[0] != cell {
		t.Fatalf("actual replaced despite the skip")
	}
}

// A coercion chain that cannot converge within the cap is an internal error,
// surfaced as a diagnostic before the abort.
func TestCoercionCapAborts(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	fn := f.DefineFunc("g", bt.Real,
		testkit.FormalSpec{Name: "x", Type: bt.Real},
	)
	deep := bt.Int
	for i := 0; i < 8; i++ {
		deep = f.Types.MakeSync(deep)
	}
	cell := f.Mod.NewVar("cell", deep, spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(cell))

	bag := diag.NewBag(8)
	st := resolve.NewState(f.Mod, resolve.NewRuleOracle(f.Mod), diag.BagReporter{Bag: bag}, resolve.DefaultOptions())

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected an internal-compiler-error panic")
		}
		if !strings.Contains(err2str(r), "internal compiler error") {
			t.Fatalf("panic %v is not an internal compiler error", r)
		}
		found := false
		for _, d := range bag.Items() {
			if d.Code == diag.ResCoercionDepth {
				found = true
			}
		}
		if !found {
			t.Fatalf("cap abort must surface a diagnostic first")
		}
	}()
	_, _ = resolve.WrapCall(st, fn, info, a2f)
}

func err2str(r any) string {
	if e, ok := r.(error); ok {
		return e.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return ""
}

// A cast function that exists but fails to resolve produces a continuable
// error at the call site with a note at the cast target, then a stop.
func TestUnresolvedCastReportsAndStops(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	cast := f.DefineFunc("_cast", bt.Real,
		testkit.FormalSpec{Name: "t", Type: bt.Any, Intent: ir.IntentType},
		testkit.FormalSpec{Name: "v", Type: bt.Any},
	)
	fn := f.DefineFunc("g", bt.Real,
		testkit.FormalSpec{Name: "x", Type: bt.Real},
	)
	n := f.Mod.NewIntLit(4, spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(n))

	bag := diag.NewBag(8)
	oracle := resolve.NewRuleOracle(f.Mod)
	oracle.Broken[cast] = true
	st := resolve.NewState(f.Mod, oracle, diag.BagReporter{Bag: bag}, resolve.DefaultOptions())

	_, err := resolve.WrapCall(st, fn, info, a2f)
	if err == nil {
		t.Fatalf("broken cast target must stop the pass")
	}
	if !bag.HasErrors() {
		t.Fatalf("no continuable error reported")
	}
	var hit diag.Diagnostic
	for _, d := range bag.Items() {
		if d.Code == diag.ResCastUnresolved {
			hit = d
		}
	}
	if hit.Code != diag.ResCastUnresolved {
		t.Fatalf("missing unresolved-cast diagnostic")
	}
	if len(hit.Notes) == 0 {
		t.Fatalf("unresolved-cast diagnostic must point at the cast target")
	}
}
