package resolve

import (
	"crest/internal/ir"
	"crest/internal/types"
)

// tupleConstructorName is the compiler-built tuple constructor; its fields
// are positional and never wired by name.
const tupleConstructorName = "_construct_tuple"

// wrapDefaultedFormals handles a call with fewer actuals than the callee has
// formals: it finds or builds a wrapper taking exactly the supplied formals
// and providing defaults for the rest, then retargets actualToFormal at the
// wrapper's formals.
func wrapDefaultedFormals(st *State, fnID ir.FuncID, info *CallInfo, actualToFormal []ir.FormalID) ir.FuncID {
	fn := st.Mod.Func(fnID)

	used := make(map[ir.FormalID]bool, len(actualToFormal))
	for _, f := range actualToFormal {
		used[f] = true
	}
	var omitted []ir.FormalID
	for _, f := range fn.Formals {
		if !used[f] {
			omitted = append(omitted, f)
		}
	}

	sig := defaultsKey(omitted)
	wrapper := st.Defaults.Lookup(fnID, sig)
	if !wrapper.IsValid() {
		wrapper = buildWrapperForDefaultedFormals(st, fnID, info, omitted)
		st.Oracle.ResolveFormals(wrapper)
		st.Defaults.Add(fnID, sig, wrapper)
	}

	// Retarget actualToFormal for the reorder stage: supplied formals appear
	// on the wrapper in declaration order.
	wfn := st.Mod.Func(wrapper)
	j := 0
	for _, f := range fn.Formals {
		for i := range actualToFormal {
			if actualToFormal[i] == f {
				actualToFormal[i] = wfn.Formals[j]
				j++
			}
		}
	}

	return wrapper
}

func buildWrapperForDefaultedFormals(st *State, fnID ir.FuncID, info *CallInfo, omitted []ir.FormalID) ir.FuncID {
	mod := st.Mod
	fn := mod.Func(fnID)
	span := fn.Span

	wID := buildEmptyWrapper(st, fnID, info)
	w := mod.Func(wID)

	// Prevent name clashes in generated code and hint at the origin.
	w.CName = "_default_wrap_" + fn.CName

	if !fn.IsIterator() {
		w.RetType = fn.RetType
	}

	copyMap := ir.NewSubst()

	specializeCtor := isSpecializedCtor(st, fn)
	if specializeCtor {
		w.Flags = w.Flags.Without(ir.FlagCompilerGenerated)
		thisType := mod.RefType(fn.This)
		thisVar := mod.NewVar("this", thisType, span)
		w.This = ir.ToVar(thisVar)
		if fn.This.Var.IsValid() {
			copyMap.PutVar(fn.This.Var, thisVar)
		}
		w.Body.Append(ir.DefStmt(thisVar, span))

		// A trailing meme placeholder means the receiver is constructed
		// here; class receivers are heap allocated first.
		if len(omitted) > 0 && mod.Formal(omitted[len(omitted)-1]).Flags.Has(ir.FlagMeme) {
			if tt, ok := mod.Types.Lookup(thisType); ok && tt.Kind == types.KindClass {
				alloc := ir.NewCallNamed("_heapAlloc", span, ir.NewTypeRef(thisType, span))
				alloc.Type = thisType
				w.Body.Append(ir.MoveStmt(mod.VarRef(thisVar, span), alloc, span))
				w.Body.Append(ir.ExprStmt(ir.NewCallNamed("_setClassId", span, mod.VarRef(thisVar, span)), span))
			}
		}

		w.Body.Append(ir.ExprStmt(ir.NewCallPrim(ir.PrimInitFields, span, mod.VarRef(thisVar, span)), span))
	}

	call := ir.NewCallFn(fnID, span)
	call.AsCall().Square = info.Call.AsCall().Square

	omittedSet := make(map[ir.FormalID]bool, len(omitted))
	for _, f := range omitted {
		omittedSet[f] = true
	}

	for _, formalID := range fn.Formals {
		formal := mod.Formal(formalID)
		switch {
		case !omittedSet[formalID]:
			formalIsNotDefaulted(st, fnID, formalID, call, wID, copyMap)

		case mod.ParamMap[formalID].IsValid():
			// instantiated param formals forward their bound value
			appendArg(call, mod.VarRef(mod.ParamMap[formalID], span))

		case formal.Flags.Has(ir.FlagMeme):
			formal.Type = mod.RefType(w.This)
			appendArg(call, mod.RefExpr(w.This, span))

		default:
			formalIsDefaulted(st, fnID, formalID, call, wID, copyMap)
		}
	}

	mod.UpdateSymbols(w.Body, copyMap)

	insertWrappedCall(st, fnID, wID, call)

	st.Oracle.Normalize(wID)

	return wID
}

func isSpecializedCtor(st *State, fn *ir.Func) bool {
	if !fn.Flags.Has(ir.FlagDefaultConstructor) || !fn.This.IsValid() {
		return false
	}
	return !st.Mod.Types.IsRef(st.Mod.RefType(fn.This))
}

func appendArg(call *ir.Expr, arg *ir.Expr) {
	data := call.AsCall()
	data.Args = append(data.Args, arg)
}

// formalIsNotDefaulted handles a formal the call supplies: the wrapper
// accepts the actual and passes it through to the origin.
func formalIsNotDefaulted(st *State, fnID ir.FuncID, formalID ir.FormalID, call *ir.Expr, wID ir.FuncID, copyMap *ir.Subst) {
	mod := st.Mod
	fn := mod.Func(fnID)
	w := mod.Func(wID)
	formal := mod.Formal(formalID)
	span := formal.Span

	wfID := copyFormalForWrapper(st, formalID)
	mod.AttachFormal(wID, wfID)
	wf := mod.Formal(wfID)

	// An instantiated param formal keeps its binding on the wrapper formal.
	if value := mod.ParamMap[formalID]; value.IsValid() {
		mod.ParamMap[wfID] = value
	}

	if fn.This.Formal == formalID {
		w.This = ir.ToFormal(wfID)
	}

	if formal.Flags.Has(ir.FlagMeme) && w.This.IsValid() {
		insertAfterThisDef(w.Body, w.This.Var,
			ir.MoveStmt(mod.RefExpr(w.This, span), mod.FormalRef(wfID, span), span))
	}

	switch {
	case mod.Types.IsRef(formal.Type):
		// Reference formals are re-materialized so the inner call sees an
		// addressable value.
		temp := mod.NewTemp("wrap_ref_arg", formal.Type, span)
		mod.Var(temp).Flags = mod.Var(temp).Flags.With(ir.FlagMaybeParam)
		addrOf := ir.NewCallPrim(ir.PrimAddrOf, span, mod.FormalRef(wfID, span))
		addrOf.Type = formal.Type
		w.Body.Append(ir.DefStmt(temp, span))
		w.Body.Append(ir.MoveStmt(mod.VarRef(temp, span), addrOf, span))
		updateWrapCall(st, fnID, formalID, call, wID, ir.ToVar(temp), copyMap)

	case isSpecializedCtor(st, fn) && wf.TypeExpr != nil && mod.Types.IsRecordWrapped(wf.Type):
		// The formal carries a type expression and is an array/domain/dist:
		// evaluate the type, default-initialize a temp of it, then assign
		// the supplied value so user-defined assignment runs. Plain
		// forwarding would skip the array-domain initialization.
		temp := mod.NewTemp("wrap_type_arg", wf.Type, span)
		thisType := mod.RefType(w.This)
		if _, ok := mod.Types.FieldNamed(thisType, formal.Name); ok {
			mod.Var(temp).Flags = mod.Var(temp).Flags.With(ir.FlagInsertAutoDestroy)
		}
		w.Body.Append(ir.DefStmt(temp, span))
		typeValue := spliceBlockValue(mod, w.Body, mod.CloneBlock(wf.TypeExpr, nil))
		initExpr := ir.NewCallPrim(ir.PrimInitDefault, span, typeValue)
		initExpr.Type = wf.Type
		w.Body.Append(ir.MoveStmt(mod.VarRef(temp, span), initExpr, span))
		w.Body.Append(ir.ExprStmt(ir.NewCallNamed("=", span, mod.VarRef(temp, span), mod.FormalRef(wfID, span)), span))
		updateWrapCall(st, fnID, formalID, call, wID, ir.ToVar(temp), copyMap)

	default:
		updateWrapCall(st, fnID, formalID, call, wID, ir.ToFormal(wfID), copyMap)
	}
}

// updateWrapCall forwards temp to the inner call and, for default
// constructors, wires the corresponding field of the receiver: the value is
// auto-copied, stored into the field, and the copy replaces the forwarded
// actual so field and inner-call argument share one value.
func updateWrapCall(st *State, fnID ir.FuncID, formalID ir.FormalID, call *ir.Expr, wID ir.FuncID, temp ir.Ref, copyMap *ir.Subst) {
	mod := st.Mod
	fn := mod.Func(fnID)
	w := mod.Func(wID)
	formal := mod.Formal(formalID)
	span := formal.Span

	copyMap.PutFormal(formalID, temp)
	appendArg(call, mod.RefExpr(temp, span))

	if !isSpecializedCtor(st, fn) ||
		fn.Name == tupleConstructorName ||
		formal.Flags.Has(ir.FlagTypeVariable) ||
		mod.ParamMap[formalID].IsValid() ||
		formal.Type == mod.Types.Builtins().MethodToken {
		return
	}

	thisType := mod.RefType(w.This)
	if _, ok := mod.Types.FieldNamed(thisType, formal.Name); !ok {
		return
	}

	tmp := mod.NewTemp("wrap_arg", formal.Type, span)
	autoCopy := ir.NewCallNamed("autoCopy", span, mod.RefExpr(temp, span))
	autoCopy.Type = formal.Type

	w.Body.Append(ir.DefStmt(tmp, span))
	w.Body.Append(ir.MoveStmt(mod.VarRef(tmp, span), autoCopy, span))

	setMember := ir.NewCallPrim(ir.PrimSetMember, span, mod.RefExpr(w.This, span), mod.VarRef(tmp, span))
	setMember.AsCall().Field = formal.Name
	w.Body.Append(ir.ExprStmt(setMember, span))

	copyMap.PutFormal(formalID, ir.ToVar(tmp))

	args := call.AsCall().Args
	args[len(args)-1] = mod.VarRef(tmp, span)
}

// formalIsDefaulted materializes an omitted formal's value in the wrapper
// body and passes the temp to the origin.
func formalIsDefaulted(st *State, fnID ir.FuncID, formalID ir.FormalID, call *ir.Expr, wID ir.FuncID, copyMap *ir.Subst) {
	mod := st.Mod
	fn := mod.Func(fnID)
	w := mod.Func(wID)
	formal := mod.Formal(formalID)
	span := formal.Span
	bt := mod.Types.Builtins()

	temp := mod.NewTemp("default_arg_"+formal.Name, formal.Type, span)
	tv := mod.Var(temp)
	intent := formal.Intent
	specializeCtor := isSpecializedCtor(st, fn)

	if formal.Type != bt.TypeDefaultToken &&
		formal.Type != bt.MethodToken &&
		intent == ir.IntentBlank {
		intent = st.Oracle.BlankIntentForType(formal.Type)
	}

	if intent != ir.IntentInout && intent != ir.IntentOut {
		tv.Flags = tv.Flags.With(ir.FlagMaybeParam).With(ir.FlagExprTemp)
	}
	if formal.Flags.Has(ir.FlagTypeVariable) {
		tv.Flags = tv.Flags.With(ir.FlagTypeVariable)
	}

	copyMap.PutFormal(formalID, ir.ToVar(temp))

	w.Body.Append(ir.DefStmt(temp, span))

	if intent == ir.IntentOut || formal.Default == nil || isTypeDefaultSentinel(st, formal.Default) {
		applyDefaultForType(st, formalID, wID, temp)
	} else {
		value := spliceBlockValue(mod, w.Body, mod.CloneBlock(formal.Default, nil))

		if specializeCtor {
			// Copy-construct from the default value. Normalization sometimes
			// planted the initCopy already; add one only when it did not.
			// The called constructor cannot include the copy itself without
			// breaking the array-domain link between sibling fields.
			needsInitCopy := true
			if data := value.AsCall(); data != nil {
				switch {
				case data.Callee.Name == "initCopy" || data.Callee.Name == "createFieldDefault":
					needsInitCopy = false
				case data.Callee.Fn.IsValid() && mod.Func(data.Callee.Fn).Flags.Has(ir.FlagInitCopyFn):
					needsInitCopy = false
				}
			}
			if needsInitCopy {
				wrapped := ir.NewCallNamed("initCopy", span, value)
				wrapped.Type = value.Type
				value = wrapped
			}
			w.Body.Append(ir.MoveStmt(mod.VarRef(temp, span), value, span))
		} else if intent.IsRef() {
			addrOf := ir.NewCallPrim(ir.PrimAddrOf, span, value)
			addrOf.Type = mod.Types.MakeRef(value.Type)
			w.Body.Append(ir.MoveStmt(mod.VarRef(temp, span), addrOf, span))
		} else {
			w.Body.Append(ir.MoveStmt(mod.VarRef(temp, span), value, span))
		}

		if formal.Intent == ir.IntentInout {
			assert(!tv.Flags.Has(ir.FlagExprTemp), "inout default temp flagged as expression temp")
			tv.Flags = tv.Flags.Without(ir.FlagMaybeParam)
		}
	}

	appendArg(call, mod.VarRef(temp, span))

	// Assigning to fields the constructor call will set again looks odd but
	// is load-bearing: an iterator initializing an array field may read
	// sibling fields before the constructor runs.
	if specializeCtor && fn.Name != tupleConstructorName {
		if !formal.Flags.Has(ir.FlagTypeVariable) {
			thisType := mod.RefType(w.This)
			if _, ok := mod.Types.FieldNamed(thisType, formal.Name); ok {
				setMember := ir.NewCallPrim(ir.PrimSetMember, span, mod.RefExpr(w.This, span), mod.VarRef(temp, span))
				setMember.AsCall().Field = formal.Name
				w.Body.Append(ir.ExprStmt(setMember, span))
			}
		}
	}
}

// applyDefaultForType initializes temp with the type's default value: the
// evaluated type expression when the formal has one, the declared type
// otherwise. Type-variable formals receive the type itself.
func applyDefaultForType(st *State, formalID ir.FormalID, wID ir.FuncID, temp ir.VarID) {
	mod := st.Mod
	w := mod.Func(wID)
	formal := mod.Formal(formalID)
	span := formal.Span

	if formal.TypeExpr != nil {
		cloned := mod.CloneBlock(formal.TypeExpr, nil)
		if formal.Flags.Has(ir.FlagTypeVariable) {
			value := spliceBlockValue(mod, w.Body, cloned)
			w.Body.Append(ir.MoveStmt(mod.VarRef(temp, span), value, span))
			return
		}
		value := spliceBlockValue(mod, w.Body, cloned)
		initExpr := ir.NewCallPrim(ir.PrimInitDefault, span, value)
		initExpr.Type = formal.Type
		w.Body.Append(ir.MoveStmt(mod.VarRef(temp, span), initExpr, span))
		return
	}

	if formal.Flags.Has(ir.FlagTypeVariable) {
		w.Body.Append(ir.MoveStmt(mod.VarRef(temp, span), ir.NewTypeRef(formal.Type, span), span))
		return
	}
	initExpr := ir.NewCallPrim(ir.PrimInitDefault, span, ir.NewTypeRef(formal.Type, span))
	initExpr.Type = formal.Type
	w.Body.Append(ir.MoveStmt(mod.VarRef(temp, span), initExpr, span))
}

// insertWrappedCall finishes the wrapper body: the inner call, a return temp
// when the origin produces a value, and the wrapper's definition next to the
// origin's.
func insertWrappedCall(st *State, fnID, wID ir.FuncID, call *ir.Expr) {
	mod := st.Mod
	fn := mod.Func(fnID)
	w := mod.Func(wID)
	span := fn.Span

	call.Type = fn.RetType

	if mod.Types.IsVoid(fn.RetType) {
		w.Body.Append(ir.ExprStmt(call, span))
	} else {
		tmp := mod.NewTemp("wrap_call_tmp", fn.RetType, span)
		mod.Var(tmp).Flags = mod.Var(tmp).Flags.
			With(ir.FlagExprTemp).
			With(ir.FlagMaybeParam).
			With(ir.FlagMaybeType)
		w.Body.Append(ir.DefStmt(tmp, span))
		w.Body.Append(ir.MoveStmt(mod.VarRef(tmp, span), call, span))
		w.Body.Append(ir.ReturnStmt(mod.VarRef(tmp, span), span))
	}

	mod.InsertFuncAfter(fnID, wID)
}

// isTypeDefaultSentinel recognizes a default expression that is exactly the
// "use the type's default" marker.
func isTypeDefaultSentinel(st *State, def *ir.Block) bool {
	if def == nil || len(def.Stmts) != 1 {
		return false
	}
	data, ok := def.Stmts[0].Data.(ir.ExprStmtData)
	if !ok {
		return false
	}
	return data.Expr.VarOf() == st.Mod.Globals.TypeDefault
}

// spliceBlockValue appends src's statements to dst and extracts the value the
// block produces: the tail expression statement, or — when normalization left
// a trailing move — the move's destination.
func spliceBlockValue(mod *ir.Module, dst *ir.Block, src *ir.Block) *ir.Expr {
	if src == nil || len(src.Stmts) == 0 {
		ice("splicing an empty initializer block")
	}
	dst.Append(src.Stmts...)
	tail := dst.Tail()
	switch data := tail.Data.(type) {
	case ir.ExprStmtData:
		dst.RemoveTail()
		return data.Expr
	case ir.MoveData:
		return mod.CloneExpr(data.Dst, nil)
	}
	ice("initializer block ends in %s, want an expression", tail.Kind)
	return nil
}

// insertAfterThisDef places stmt right after the receiver's declaration.
func insertAfterThisDef(body *ir.Block, thisVar ir.VarID, stmt ir.Stmt) {
	for i := range body.Stmts {
		if data, ok := body.Stmts[i].Data.(ir.DefData); ok && data.Var == thisVar {
			body.InsertBefore(i+1, stmt)
			return
		}
	}
	body.Append(stmt)
}
