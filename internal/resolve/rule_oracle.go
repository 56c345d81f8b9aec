package resolve

import (
	"crest/internal/ir"
	"crest/internal/types"
)

// RuleOracle is the built-in Oracle over a module: structural coercion rules,
// parent-walk dispatch, and name-table call binding. The full compiler
// substitutes its own resolver; tests and the standalone driver use this one.
type RuleOracle struct {
	Mod *ir.Module

	// Broken marks functions whose bodies fail to resolve; casts landing on
	// them produce the user-visible unresolved-cast error.
	Broken map[ir.FuncID]bool

	byName map[string]ir.FuncID
}

// NewRuleOracle indexes the module's functions by name.
func NewRuleOracle(mod *ir.Module) *RuleOracle {
	o := &RuleOracle{
		Mod:    mod,
		Broken: make(map[ir.FuncID]bool),
		byName: make(map[string]ir.FuncID),
	}
	for _, id := range mod.Defs {
		if fn := mod.Func(id); fn != nil {
			if _, dup := o.byName[fn.Name]; !dup {
				o.byName[fn.Name] = id
			}
		}
	}
	return o
}

// CanCoerce implements the structural widening rules: sync/single strip to
// their element, references strip to their value, int widens to real, bool
// widens to int, and string literals reach c_string.
func (o *RuleOracle) CanCoerce(src types.TypeID, srcSym ir.VarID, dst types.TypeID, fn ir.FuncID) bool {
	in := o.Mod.Types
	tt, ok := in.Lookup(src)
	if !ok {
		return false
	}
	switch tt.Kind {
	case types.KindSync, types.KindSingle, types.KindRef:
		return tt.Elem == dst || o.CanCoerce(tt.Elem, ir.NoVarID, dst, fn)
	}
	bt := in.Builtins()
	switch {
	case src == bt.Int && dst == bt.Real:
		return true
	case src == bt.Bool && dst == bt.Int:
		return true
	case src == bt.String && dst == bt.CString:
		return o.Mod.Var(srcSym).IsImmediate()
	}
	return false
}

// IsDispatchParent walks the class parent chain of src looking for dst.
func (o *RuleOracle) IsDispatchParent(src, dst types.TypeID) bool {
	in := o.Mod.Types
	for p := in.Parent(in.ValType(src)); p != types.NoTypeID; p = in.Parent(p) {
		if p == in.ValType(dst) {
			return true
		}
	}
	return false
}

// CanDispatch binds directly when the types match, coerce or dispatch; when
// the actual is a collection whose element binds, it reports promotion.
func (o *RuleOracle) CanDispatch(src types.TypeID, srcSym ir.VarID, dst types.TypeID, fn ir.FuncID) (bool, bool) {
	in := o.Mod.Types
	val := in.ValType(src)
	if val == dst || src == dst {
		return true, false
	}
	if dst == in.Builtins().Any {
		return true, false
	}
	if o.CanCoerce(src, srcSym, dst, fn) {
		return true, false
	}
	if o.IsDispatchParent(src, dst) {
		return true, false
	}
	if elem := o.promotionElem(val); elem != types.NoTypeID {
		if ok, promotes := o.CanDispatch(elem, ir.NoVarID, dst, fn); ok && !promotes {
			return true, true
		}
	}
	return false, false
}

// promotionElem is the per-element type a collection yields, or NoTypeID.
func (o *RuleOracle) promotionElem(t types.TypeID) types.TypeID {
	in := o.Mod.Types
	tt, ok := in.Lookup(t)
	if !ok {
		return types.NoTypeID
	}
	switch tt.Kind {
	case types.KindArray:
		return tt.Elem
	case types.KindDomain:
		// Domains yield their indices.
		return in.Builtins().Int
	}
	return types.NoTypeID
}

// ConcreteIntent folds blank and const intents by the formal's type.
func (o *RuleOracle) ConcreteIntent(formal *ir.Formal) ir.Intent {
	switch formal.Intent {
	case ir.IntentBlank:
		return o.BlankIntentForType(formal.Type)
	case ir.IntentConst:
		if o.BlankIntentForType(formal.Type) == ir.IntentConstRef {
			return ir.IntentConstRef
		}
		return ir.IntentConst
	}
	return formal.Intent
}

// BlankIntentForType: aggregates and synchronization types bind by const
// reference, everything else by value.
func (o *RuleOracle) BlankIntentForType(t types.TypeID) ir.Intent {
	in := o.Mod.Types
	if in.IsAggregate(t) || in.IsSync(t) || in.IsSingle(t) {
		return ir.IntentConstRef
	}
	return ir.IntentIn
}

// ResolveFormals marks generic formals. Wrapper formals are cloned from
// already-resolved originals, so there is nothing further to compute here.
func (o *RuleOracle) ResolveFormals(fn ir.FuncID) {
	f := o.Mod.Func(fn)
	if f == nil {
		return
	}
	for _, fid := range f.Formals {
		formal := o.Mod.Formal(fid)
		if formal.Type == types.NoTypeID && formal.TypeExpr == nil {
			formal.Flags = formal.Flags.With(ir.FlagTypeVariable)
		}
	}
}

// ResolveCall binds a named callee against the module's function table and
// deduces the call's result type.
func (o *RuleOracle) ResolveCall(call *ir.Expr) {
	data := call.AsCall()
	if data == nil {
		return
	}
	if data.Callee.Prim != ir.PrimNone {
		o.resolvePrim(call, data)
		return
	}
	if !data.Callee.Fn.IsValid() && data.Callee.Name != "" {
		if target, ok := o.byName[data.Callee.Name]; ok {
			data.Callee.Fn = target
		}
	}
	if data.Callee.Fn.IsValid() {
		call.Type = o.Mod.Func(data.Callee.Fn).RetType
	}
}

func (o *RuleOracle) resolvePrim(call *ir.Expr, data *ir.CallData) {
	in := o.Mod.Types
	switch data.Callee.Prim {
	case ir.PrimAddrOf:
		if len(data.Args) == 1 {
			call.Type = in.MakeRef(data.Args[0].Type)
		}
	case ir.PrimDeref:
		if len(data.Args) == 1 {
			call.Type = in.ValType(data.Args[0].Type)
		}
	case ir.PrimInitDefault:
		if len(data.Args) == 1 {
			if tr, ok := data.Args[0].Data.(ir.TypeRefData); ok {
				call.Type = tr.Ref
			} else {
				call.Type = data.Args[0].Type
			}
		}
	case ir.PrimCast:
		// the cast's result type is pinned by the coercion stage
	case ir.PrimTypeof:
		// type-level; left to instantiation
	}
}

// ResolveCallAndCallee resolves the call, then the callee's body. A callee in
// the Broken set stays unresolved, which the coercion stage reports.
func (o *RuleOracle) ResolveCallAndCallee(call *ir.Expr, inherited bool) ir.FuncID {
	o.ResolveCall(call)
	data := call.AsCall()
	if data == nil || !data.Callee.Fn.IsValid() {
		return ir.NoFuncID
	}
	target := data.Callee.Fn
	if !o.Broken[target] {
		fn := o.Mod.Func(target)
		fn.Flags = fn.Flags.With(ir.FlagResolved)
	}
	return target
}

// Normalize materializes loop index variables: symbolic index names in loop
// headers become defined vars at the head of the loop body, typed by the
// iterated expression where that is known.
func (o *RuleOracle) Normalize(fn ir.FuncID) {
	f := o.Mod.Func(fn)
	if f == nil || f.Body == nil {
		return
	}
	o.normalizeBlock(f.Body)
}

func (o *RuleOracle) normalizeBlock(b *ir.Block) {
	if b == nil {
		return
	}
	for i := range b.Stmts {
		switch data := b.Stmts[i].Data.(type) {
		case ir.IfData:
			o.normalizeBlock(data.Then)
			o.normalizeBlock(data.Else)
		case ir.LoopData:
			o.destructureIndices(&b.Stmts[i], data)
			o.normalizeBlock(data.Body)
		}
	}
}

func (o *RuleOracle) destructureIndices(s *ir.Stmt, data ir.LoopData) {
	if data.Index == nil || data.Iter == nil {
		return
	}
	indices := []*ir.Expr{data.Index}
	iters := []*ir.Expr{data.Iter}
	if tup, ok := data.Index.Data.(ir.TupleData); ok {
		indices = tup.Elems
		if itup, ok := data.Iter.Data.(ir.TupleData); ok {
			iters = itup.Elems
		}
	}
	var defs []ir.Stmt
	for i, index := range indices {
		un, ok := index.Data.(ir.UnresolvedData)
		if !ok {
			continue
		}
		elem := types.NoTypeID
		if i < len(iters) && iters[i] != nil {
			elem = o.iteratedElem(iters[i].Type)
		}
		v := o.Mod.NewTemp(un.Name, elem, index.Span)
		defs = append(defs, ir.DefStmt(v, index.Span))
		*index = *ir.NewVarRef(v, elem, index.Span)
	}
	if len(defs) > 0 && data.Body != nil {
		data.Body.Stmts = append(defs, data.Body.Stmts...)
	}
	s.Data = data
}

// iteratedElem is the element type produced by iterating a value of type t.
func (o *RuleOracle) iteratedElem(t types.TypeID) types.TypeID {
	in := o.Mod.Types
	val := in.ValType(t)
	if elem := o.promotionElem(val); elem != types.NoTypeID {
		return elem
	}
	if in.IsIterRecord(val) {
		return in.Elem(val)
	}
	return types.NoTypeID
}
