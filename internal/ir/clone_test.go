package ir

import (
	"testing"

	"crest/internal/source"
	"crest/internal/types"
)

func testModule() *Module {
	return NewModule(source.NewFileSet(), types.NewInterner())
}

func TestCloneExprSubstitutesFormals(t *testing.T) {
	m := testModule()
	bt := m.Types.Builtins()
	fn := m.NewFunc("f", source.Span{})
	a := m.NewFormal(fn, "a", bt.Int, IntentBlank, source.Span{})
	temp := m.NewTemp("t", bt.Int, source.Span{})

	call := NewCallFn(fn, source.Span{}, m.FormalRef(a, source.Span{}))

	subst := NewSubst()
	subst.PutFormal(a, ToVar(temp))
	clone := m.CloneExpr(call, subst)

	if clone.AsCall().Args[0].VarOf() != temp {
		t.Fatalf("substitution not applied during clone")
	}
	if call.AsCall().Args[0].FormalOf() != a {
		t.Fatalf("clone mutated the original")
	}
}

func TestUpdateSymbolsRewritesInPlace(t *testing.T) {
	m := testModule()
	bt := m.Types.Builtins()
	fn := m.NewFunc("f", source.Span{})
	a := m.NewFormal(fn, "a", bt.Int, IntentBlank, source.Span{})
	b := m.NewFormalDetached("b", bt.Int, IntentBlank, source.Span{})

	body := NewBlock(source.Span{})
	body.Append(MoveStmt(
		m.FormalRef(a, source.Span{}),
		NewCallFn(fn, source.Span{}, m.FormalRef(a, source.Span{})),
		source.Span{},
	))

	subst := NewSubst()
	subst.PutFormal(a, ToFormal(b))
	m.UpdateSymbols(body, subst)

	move := body.Stmts[0].Data.(MoveData)
	if move.Dst.FormalOf() != b {
		t.Fatalf("destination not rewritten")
	}
	if move.Src.AsCall().Args[0].FormalOf() != b {
		t.Fatalf("nested call argument not rewritten")
	}
}

func TestBlockInsertBefore(t *testing.T) {
	m := testModule()
	bt := m.Types.Builtins()
	v1 := m.NewTemp("a", bt.Int, source.Span{})
	v2 := m.NewTemp("b", bt.Int, source.Span{})
	v3 := m.NewTemp("c", bt.Int, source.Span{})

	b := NewBlock(source.Span{})
	b.Append(DefStmt(v1, source.Span{}), DefStmt(v3, source.Span{}))
	b.InsertBefore(1, DefStmt(v2, source.Span{}))

	want := []VarID{v1, v2, v3}
	for i, stmt := range b.Stmts {
		if stmt.Data.(DefData).Var != want[i] {
			t.Fatalf("statement %d out of order", i)
		}
	}
}

func TestInsertFuncOrdering(t *testing.T) {
	m := testModule()
	f1 := m.NewFunc("one", source.Span{})
	f2 := m.NewFunc("two", source.Span{})
	before := m.NewFuncDetached("before", source.Span{})
	after := m.NewFuncDetached("after", source.Span{})

	m.InsertFuncBefore(f2, before)
	m.InsertFuncAfter(f1, after)

	want := []FuncID{f1, after, before, f2}
	if len(m.Defs) != len(want) {
		t.Fatalf("defs length = %d, want %d", len(m.Defs), len(want))
	}
	for i := range want {
		if m.Defs[i] != want[i] {
			t.Fatalf("defs[%d] = %v, want %v", i, m.Defs[i], want[i])
		}
	}
}

func TestCollectDefsIncludesNestedLoops(t *testing.T) {
	m := testModule()
	bt := m.Types.Builtins()
	outer := m.NewTemp("outer", bt.Int, source.Span{})
	inner := m.NewTemp("inner", bt.Int, source.Span{})

	loopBody := NewBlock(source.Span{})
	loopBody.Append(DefStmt(inner, source.Span{}))
	body := NewBlock(source.Span{})
	body.Append(DefStmt(outer, source.Span{}))
	body.Append(ForStmt(m.VarRef(outer, source.Span{}), m.VarRef(outer, source.Span{}), loopBody, false, source.Span{}))

	defs := CollectDefs(body)
	if len(defs) != 2 {
		t.Fatalf("collected %d defs, want 2", len(defs))
	}
}

func TestLiteralVarsCarryImmediates(t *testing.T) {
	m := testModule()
	lit := m.NewStringLit("hi", source.Span{})
	v := m.Var(lit)
	if !v.IsImmediate() || v.Imm.Str != "hi" {
		t.Fatalf("string literal payload lost")
	}
	if v.Type != m.Types.Builtins().String {
		t.Fatalf("string literal mistyped")
	}
	c := m.NewCStringLit("hi", source.Span{})
	if m.Var(c).Type != m.Types.Builtins().CString {
		t.Fatalf("c-string literal mistyped")
	}
}
