package resolve_test

import (
	"testing"

	"crest/internal/ir"
	"crest/internal/resolve"
	"crest/internal/testkit"
	"crest/internal/types"
)

// countLoopInnerCalls walks loops in the body and counts calls to fn per
// loop body.
func countLoopInnerCalls(b *ir.Block, fn ir.FuncID) (loops, calls int) {
	for i := range b.Stmts {
		switch data := b.Stmts[i].Data.(type) {
		case ir.LoopData:
			loops++
			calls += len(callsTo(data.Body, fn))
		case ir.IfData:
			l1, c1 := countLoopInnerCalls(data.Then, fn)
			loops += l1
			calls += c1
			if data.Else != nil {
				l2, c2 := countLoopInnerCalls(data.Else, fn)
				loops += l2
				calls += c2
			}
		}
	}
	return loops, calls
}

// Scenario: h(x: int): int called as h(A) with A an int array. The promotion
// wrapper iterates A yielding h(element), and leader, follower and four
// fast-follower checks land in program scope.
func TestPromotionOverArray(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	fn := f.DefineFunc("h", bt.Int,
		testkit.FormalSpec{Name: "x", Type: bt.Int},
	)
	intArray := f.Types.MakeArray(bt.Int)
	data := f.Mod.NewVar("A", intArray, spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(data))

	st := newState(f)
	funcsBefore := f.Mod.NumFuncs()
	wrapped, err := resolve.WrapCall(st, fn, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	if wrapped == fn {
		t.Fatalf("expected a promotion wrapper")
	}

	w := f.Mod.Func(wrapped)
	if !w.Flags.Has(ir.FlagPromotionWrapper) {
		t.Errorf("wrapper not flagged as promotion wrapper")
	}
	if !w.Flags.Has(ir.FlagIterator) {
		t.Errorf("value-returning promotion must become an iterator")
	}
	if w.Flags.Has(ir.FlagInline) {
		t.Errorf("iterator wrapper must drop the inline flag")
	}
	if len(w.Formals) != 1 {
		t.Fatalf("wrapper formals = %d, want 1", len(w.Formals))
	}
	// The wrapper receives the collection (by reference), not the element.
	wantType := f.Types.MakeRef(intArray)
	if got := f.Mod.Formal(w.Formals[0]).Type; got != wantType {
		t.Fatalf("wrapper formal typed %s, want %s",
			f.Types.String(got), f.Types.String(wantType))
	}
	if !f.Types.IsIterRecord(w.RetType) {
		t.Errorf("promotion wrapper result must be an iterator record")
	}

	// transparency: exactly one inner call per loop iteration
	loops, calls := countLoopInnerCalls(w.Body, fn)
	if loops != 1 || calls != 1 {
		t.Fatalf("serial body has %d loops with %d inner calls, want 1/1", loops, calls)
	}

	// no unresolved index names survive the fixup sweep
	ir.WalkExprs(w.Body, func(e *ir.Expr) {
		if e.Kind == ir.ExprUnresolved {
			t.Errorf("unresolved symbol left in promotion wrapper")
		}
	})

	// leader and follower are registered and shaped as variants
	leader, ok := st.Leaders[wrapped]
	if !ok {
		t.Fatalf("leader variant not registered")
	}
	follower, ok := st.Followers[wrapped]
	if !ok {
		t.Fatalf("follower variant not registered")
	}

	lifn := f.Mod.Func(leader)
	if len(lifn.Formals) != 2 {
		t.Errorf("leader formals = %d, want promoted formal + tag", len(lifn.Formals))
	}
	if !lifn.Flags.Has(ir.FlagInlineIterator) || !lifn.Flags.Has(ir.FlagGeneric) {
		t.Errorf("leader flags = %s", lifn.Flags)
	}
	if lifn.Where == nil {
		t.Errorf("leader lacks its tag where-clause")
	}

	fifn := f.Mod.Func(follower)
	if len(fifn.Formals) != 4 {
		t.Errorf("follower formals = %d, want promoted + tag + followThis + fast", len(fifn.Formals))
	}
	fast := f.Mod.Formal(fifn.Formals[3])
	if fast.Name != "fast" || fast.Intent != ir.IntentParam || fast.Default == nil {
		t.Errorf("follower fast formal malformed")
	}
	if _, fcalls := countLoopInnerCalls(fifn.Body, fn); fcalls != 1 {
		t.Errorf("follower must invoke the origin once per index")
	}
	ir.WalkExprs(fifn.Body, func(e *ir.Expr) {
		if e.Kind == ir.ExprUnresolved {
			t.Errorf("unresolved symbol left in follower")
		}
	})

	// four fast-follower checks: (static, dynamic) x (lead, no lead)
	var static, dynamic int
	for id := ir.FuncID(funcsBefore + 1); int(id) <= f.Mod.NumFuncs(); id++ {
		switch f.Mod.Func(id).Name {
		case "staticFastFollowCheck":
			static++
			if f.Mod.Func(id).RetKind != ir.RetParam {
				t.Errorf("static check must be param-returning")
			}
		case "dynamicFastFollowCheck":
			dynamic++
			if f.Mod.Func(id).RetKind != ir.RetValue {
				t.Errorf("dynamic check must be value-returning")
			}
		}
	}
	if static != 2 || dynamic != 2 {
		t.Fatalf("fast-follower checks static=%d dynamic=%d, want 2/2", static, dynamic)
	}

	// wrapper definition precedes its origin
	posWrapper, posFn := -1, -1
	for i, def := range f.Mod.Defs {
		switch def {
		case wrapped:
			posWrapper = i
		case fn:
			posFn = i
		}
	}
	if posWrapper == -1 || posWrapper != posFn-1 {
		t.Errorf("promotion wrapper not defined immediately before its origin")
	}
}

func TestPromotionCacheIdempotence(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	fn := f.DefineFunc("h", bt.Int,
		testkit.FormalSpec{Name: "x", Type: bt.Int},
	)
	intArray := f.Types.MakeArray(bt.Int)
	a := f.Mod.NewVar("A", intArray, spanless())
	b := f.Mod.NewVar("B", intArray, spanless())

	st := newState(f)

	infoA, mapA := f.CallSite(fn, testkit.Pos(a))
	first, err := resolve.WrapCall(st, fn, infoA, mapA)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	funcsAfterFirst := f.Mod.NumFuncs()

	infoB, mapB := f.CallSite(fn, testkit.Pos(b))
	second, err := resolve.WrapCall(st, fn, infoB, mapB)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}

	if first != second {
		t.Fatalf("identical promoted substitutions produced distinct wrappers")
	}
	if got := f.Mod.NumFuncs(); got != funcsAfterFirst+1 {
		t.Fatalf("cache hit rebuilt the wrapper family (funcs %d -> %d)", funcsAfterFirst, got)
	}
	if st.Promotions.Len() != 1 {
		t.Fatalf("promotions cache holds %d entries, want 1", st.Promotions.Len())
	}
}

// A void callee promotes to a parallel loop, not an iterator; no variants
// are needed.
func TestPromotionOfVoidCallee(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	fn := f.DefineFunc("emit", types.NoTypeID,
		testkit.FormalSpec{Name: "x", Type: bt.Int},
	)
	intArray := f.Types.MakeArray(bt.Int)
	data := f.Mod.NewVar("A", intArray, spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(data))

	st := newState(f)
	wrapped, err := resolve.WrapCall(st, fn, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	w := f.Mod.Func(wrapped)
	if w.Flags.Has(ir.FlagIterator) {
		t.Fatalf("void promotion must not become an iterator")
	}
	if len(w.Body.Stmts) != 1 || w.Body.Stmts[0].Kind != ir.StmtForall {
		t.Fatalf("void promotion body must be a single forall")
	}
	if _, ok := st.Leaders[wrapped]; ok {
		t.Fatalf("void promotion needs no leader")
	}
	ir.WalkExprs(w.Body, func(e *ir.Expr) {
		if e.Kind == ir.ExprUnresolved {
			t.Errorf("unresolved symbol left in forall body")
		}
	})
}

// Assignment never promotes.
func TestAssignmentSkipsPromotion(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	fn := f.DefineFunc("=", types.NoTypeID,
		testkit.FormalSpec{Name: "lhs", Type: bt.Int, Intent: ir.IntentRef},
		testkit.FormalSpec{Name: "rhs", Type: bt.Int},
	)
	intArray := f.Types.MakeArray(bt.Int)
	lhs := f.Mod.NewVar("L", f.Types.MakeRef(bt.Int), spanless())
	rhs := f.Mod.NewVar("R", intArray, spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(lhs), testkit.Pos(rhs))

	st := newState(f)
	funcsBefore := f.Mod.NumFuncs()
	wrapped, err := resolve.WrapCall(st, fn, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	if wrapped != fn {
		t.Fatalf("assignment was promotion-wrapped")
	}
	if f.Mod.NumFuncs() != funcsBefore {
		t.Fatalf("assignment promotion synthesized functions")
	}
}

// Two promoted actuals iterate zippered, with one index per collection.
func TestZipperedPromotion(t *testing.T) {
	f := testkit.NewFixture()
	bt := f.Types.Builtins()

	fn := f.DefineFunc("add", bt.Int,
		testkit.FormalSpec{Name: "x", Type: bt.Int},
		testkit.FormalSpec{Name: "y", Type: bt.Int},
	)
	intArray := f.Types.MakeArray(bt.Int)
	a := f.Mod.NewVar("A", intArray, spanless())
	b := f.Mod.NewVar("B", intArray, spanless())
	info, a2f := f.CallSite(fn, testkit.Pos(a), testkit.Pos(b))

	st := newState(f)
	wrapped, err := resolve.WrapCall(st, fn, info, a2f)
	if err != nil {
		t.Fatalf("WrapCall: %v", err)
	}
	w := f.Mod.Func(wrapped)

	var loop *ir.Stmt
	for i := range w.Body.Stmts {
		if w.Body.Stmts[i].Kind == ir.StmtFor {
			loop = &w.Body.Stmts[i]
		}
	}
	if loop == nil {
		t.Fatalf("serial iterator loop missing")
	}
	data := loop.Data.(ir.LoopData)
	if !data.Zippered {
		t.Fatalf("two promoted formals must iterate zippered")
	}
	iterTuple, ok := data.Iter.Data.(ir.TupleData)
	if !ok || len(iterTuple.Elems) != 2 {
		t.Fatalf("zippered iterator list must be a 2-tuple")
	}
	inner := callsTo(data.Body, fn)
	if len(inner) != 1 {
		t.Fatalf("inner call count = %d, want 1", len(inner))
	}
	args := inner[0].AsCall().Args
	if args[0].VarOf() == args[1].VarOf() {
		t.Fatalf("each promoted formal needs its own index symbol")
	}
}
