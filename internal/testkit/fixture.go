// Package testkit assembles small IR modules for tests and the demo command.
package testkit

import (
	"crest/internal/ir"
	"crest/internal/resolve"
	"crest/internal/source"
	"crest/internal/types"
)

// FormalSpec declares one formal for DefineFunc.
type FormalSpec struct {
	Name     string
	Type     types.TypeID
	Intent   ir.Intent
	Flags    ir.Flags
	Default  *ir.Block
	TypeExpr *ir.Block
}

// Fixture bundles a module under construction.
type Fixture struct {
	Files *source.FileSet
	Types *types.Interner
	Mod   *ir.Module
}

// NewFixture returns an empty module with builtins seeded.
func NewFixture() *Fixture {
	files := source.NewFileSet()
	in := types.NewInterner()
	return &Fixture{
		Files: files,
		Types: in,
		Mod:   ir.NewModule(files, in),
	}
}

// DefineFunc adds a function with the given result type and formals.
func (f *Fixture) DefineFunc(name string, ret types.TypeID, formals ...FormalSpec) ir.FuncID {
	fnID := f.Mod.NewFunc(name, source.Span{})
	fn := f.Mod.Func(fnID)
	fn.RetType = ret
	for _, spec := range formals {
		fid := f.Mod.NewFormal(fnID, spec.Name, spec.Type, spec.Intent, source.Span{})
		formal := f.Mod.Formal(fid)
		formal.Flags = spec.Flags
		formal.Default = spec.Default
		formal.TypeExpr = spec.TypeExpr
	}
	return fnID
}

// IntDefault builds a default-expression block producing an int literal.
func (f *Fixture) IntDefault(v int64) *ir.Block {
	lit := f.Mod.NewIntLit(v, source.Span{})
	b := ir.NewBlock(source.Span{})
	b.Append(ir.ExprStmt(f.Mod.VarRef(lit, source.Span{}), source.Span{}))
	return b
}

// Actual pairs a call argument with an optional label.
type Actual struct {
	Sym  ir.VarID
	Name string
}

// ByName labels an actual.
func ByName(name string, sym ir.VarID) Actual { return Actual{Sym: sym, Name: name} }

// Pos is a positional actual.
func Pos(sym ir.VarID) Actual { return Actual{Sym: sym} }

// CallSite builds a host function containing one call to fn with the given
// actuals and returns the ready CallInfo plus the actual-to-formal pairing
// the overload resolver would have produced: named actuals bind by name,
// positional ones fill the remaining formals in declaration order.
func (f *Fixture) CallSite(fnID ir.FuncID, actuals ...Actual) (*resolve.CallInfo, []ir.FormalID) {
	mod := f.Mod
	fn := mod.Func(fnID)
	span := source.Span{}

	host := mod.NewFunc("test_host_"+fn.Name, span)
	body := mod.Func(host).Body

	args := make([]*ir.Expr, len(actuals))
	syms := make([]ir.VarID, len(actuals))
	names := make([]string, len(actuals))
	for i, a := range actuals {
		args[i] = mod.VarRef(a.Sym, span)
		syms[i] = a.Sym
		names[i] = a.Name
	}

	call := ir.NewCallFn(fnID, span, args...)
	callNames := make([]string, len(names))
	copy(callNames, names)
	call.AsCall().ArgNames = callNames
	call.Type = fn.RetType
	body.Append(ir.ExprStmt(call, span))

	info := &resolve.CallInfo{
		Call:        call,
		Span:        span,
		Scope:       mod.Globals.ProgramScope,
		Block:       body,
		Anchor:      len(body.Stmts) - 1,
		Actuals:     syms,
		ActualNames: names,
	}
	return info, BindActuals(mod, fnID, actuals)
}

// BindActuals reproduces the overload resolver's actual-to-formal pairing.
func BindActuals(mod *ir.Module, fnID ir.FuncID, actuals []Actual) []ir.FormalID {
	fn := mod.Func(fnID)
	out := make([]ir.FormalID, len(actuals))
	taken := make(map[ir.FormalID]bool)

	for i, a := range actuals {
		if a.Name == "" {
			continue
		}
		for _, fid := range fn.Formals {
			if mod.Formal(fid).Name == a.Name {
				out[i] = fid
				taken[fid] = true
				break
			}
		}
	}
	next := 0
	for i, a := range actuals {
		if a.Name != "" {
			continue
		}
		for next < len(fn.Formals) && taken[fn.Formals[next]] {
			next++
		}
		if next < len(fn.Formals) {
			out[i] = fn.Formals[next]
			taken[fn.Formals[next]] = true
		}
	}
	return out
}
