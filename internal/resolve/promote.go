package resolve

import (
	"fmt"

	"crest/internal/diag"
	"crest/internal/ir"
	"crest/internal/types"
)

// assignOpName is the assignment operator; promoting it is skipped because
// assignment carries special semantics elsewhere in resolution.
const assignOpName = "="

// isPromotionRequired reports whether some actual is a collection whose
// elements dispatch to the formal's scalar type.
func isPromotionRequired(st *State, fnID ir.FuncID, info *CallInfo) bool {
	mod := st.Mod
	fn := mod.Func(fnID)

	if fn.Name == assignOpName || fn.Flags.Has(ir.FlagTypeConstructor) {
		return false
	}

	for j, formalID := range fn.Formals {
		if j >= len(info.Actuals) {
			break
		}
		actualSym := info.Actuals[j]
		actualType := mod.Var(actualSym).Type
		if mod.Types.IsRecordWrapped(actualType) {
			actualType = mod.Types.MakeRef(actualType)
		}
		if ok, promotes := st.Oracle.CanDispatch(actualType, actualSym, mod.Formal(formalID).Type, fnID); ok && promotes {
			return true
		}
	}
	return false
}

// promotionWrap lifts the scalar callee over its collection actuals: the
// wrapper exposes the call as an iterator yielding one inner-call result per
// element, plus leader/follower variants for parallel execution.
func promotionWrap(st *State, fnID ir.FuncID, info *CallInfo) ir.FuncID {
	mod := st.Mod
	fn := mod.Func(fnID)

	if fn.Name == assignOpName {
		return fnID
	}
	if fn.Flags.Has(ir.FlagTypeConstructor) {
		return fnID
	}

	promoted := make(map[ir.FormalID]types.TypeID)
	var order []ir.FormalID

	for j, formalID := range fn.Formals {
		if j >= len(info.Actuals) {
			break
		}
		actualSym := info.Actuals[j]
		actualType := mod.Var(actualSym).Type
		if mod.Types.IsRecordWrapped(actualType) {
			actualType = mod.Types.MakeRef(actualType)
		}
		if ok, promotes := st.Oracle.CanDispatch(actualType, actualSym, mod.Formal(formalID).Type, fnID); ok && promotes {
			promoted[formalID] = actualType
			order = append(order, formalID)
		}
	}

	if len(promoted) == 0 {
		return fnID
	}

	if st.Opts.ReportPromotion {
		diag.ReportWarning(st.Reporter, diag.ResPromotionNote, info.Span,
			"promotion on "+st.callSummary(fnID, info)).Emit()
	}

	sig := promotionsKey(order, promoted)
	wrapper := st.Promotions.Lookup(fnID, sig)
	if !wrapper.IsValid() {
		wrapper = buildPromotionWrapper(st, fnID, info, promoted)
		st.Promotions.Add(fnID, sig, wrapper)
	}

	st.Oracle.ResolveFormals(wrapper)

	return wrapper
}

func buildPromotionWrapper(st *State, fnID ir.FuncID, info *CallInfo, promoted map[ir.FormalID]types.TypeID) ir.FuncID {
	mod := st.Mod
	fn := mod.Func(fnID)
	span := info.Span

	wID := buildEmptyWrapper(st, fnID, info)
	w := mod.Func(wID)

	w.Flags = w.Flags.With(ir.FlagPromotionWrapper)

	// Promoting a default constructor yields an iterator over constructed
	// values, not another constructor.
	w.Flags = w.Flags.Without(ir.FlagDefaultConstructor)

	w.CName = "_promotion_wrap_" + fn.CName

	requiresPromotion := make(map[ir.FormalID]bool)
	var indicesElems, iteratorElems, innerArgs []*ir.Expr

	i := 1
	for _, formalID := range fn.Formals {
		formal := mod.Formal(formalID)
		nfID := copyFormalForWrapper(st, formalID)

		if value := mod.ParamMap[formalID]; value.IsValid() {
			mod.ParamMap[nfID] = value
		}
		if fn.This.Formal == formalID {
			w.This = ir.ToFormal(nfID)
		}

		if sub, ok := promoted[formalID]; ok {
			requiresPromotion[nfID] = true
			mod.Formal(nfID).Type = sub
			mod.AttachFormal(wID, nfID)
			iteratorElems = append(iteratorElems, mod.FormalRef(nfID, formal.Span))

			// Normalization materializes a def for these index names inside
			// the loop body, so they live in the loop's scope.
			name := fmt.Sprintf("p_i_%d", i)
			indicesElems = append(indicesElems, ir.NewUnresolved(name, formal.Span))
			innerArgs = append(innerArgs, ir.NewUnresolved(name, formal.Span))
		} else {
			mod.AttachFormal(wID, nfID)
			innerArgs = append(innerArgs, mod.FormalRef(nfID, formal.Span))
		}
		i++
	}

	// 1-tuples collapse to their only element; longer lists iterate in
	// lockstep.
	zippered := true
	var indices, iterator *ir.Expr
	if len(indicesElems) == 1 {
		indices = indicesElems[0]
		iterator = iteratorElems[0]
		zippered = false
	} else {
		indices = ir.NewTuple(span, indicesElems...)
		iterator = ir.NewTuple(span, iteratorElems...)
	}

	actualCall := ir.NewCallFn(fnID, span, innerArgs...)
	actualCall.Type = fn.RetType

	if mod.Types.IsVoid(fn.RetType) {
		body := ir.NewBlock(span)
		body.Append(ir.ExprStmt(actualCall, span))
		w.Body.Append(ir.ForallStmt(indices, iterator, body, zippered, span))
	} else {
		w.Flags = w.Flags.With(ir.FlagIterator).Without(ir.FlagInline)
		w.RetType = st.nextIterRecord(fn.RetType)

		buildPromotionLeader(st, wID, info, iterator, zippered)
		fifn := buildPromotionFollower(st, wID, info, indices, iterator, actualCall, zippered)
		fixUnresolvedIndexRefs(st, fifn, fnID)

		if st.Opts.FastFollowerChecks {
			// static (param) checks, then dynamic, each with and without a
			// leader argument
			buildPromotionFastFollowerCheck(st, true, false, info, wID, requiresPromotion)
			buildPromotionFastFollowerCheck(st, true, true, info, wID, requiresPromotion)
			buildPromotionFastFollowerCheck(st, false, false, info, wID, requiresPromotion)
			buildPromotionFastFollowerCheck(st, false, true, info, wID, requiresPromotion)
		}

		// Finish the serial iterator; it stopped mid-way so the signature
		// could be cloned for the leader and follower.
		yieldTmp := mod.NewTemp("p_yield", fn.RetType, span)
		mod.Var(yieldTmp).Flags = mod.Var(yieldTmp).Flags.With(ir.FlagExprTemp)
		yieldBlock := ir.NewBlock(span)
		yieldBlock.Append(ir.DefStmt(yieldTmp, span))
		yieldBlock.Append(ir.MoveStmt(mod.VarRef(yieldTmp, span), actualCall, span))
		yieldBlock.Append(ir.YieldStmt(mod.VarRef(yieldTmp, span), span))
		w.Body.Append(ir.ForStmt(indices, iterator, yieldBlock, zippered, span))
	}

	mod.InsertFuncBefore(fnID, wID)

	st.Oracle.Normalize(wID)

	fixUnresolvedIndexRefs(st, wID, fnID)

	return wID
}

// copyFuncSig clones a function's signature — formals as-is, flags, receiver
// — with an empty body, returning the clone and the formal substitution.
func copyFuncSig(st *State, srcID ir.FuncID) (ir.FuncID, *ir.Subst) {
	mod := st.Mod
	src := mod.Func(srcID)

	dstID := mod.NewFuncDetached(src.Name, src.Span)
	dst := mod.Func(dstID)
	dst.CName = src.CName
	dst.Flags = src.Flags
	dst.RetType = src.RetType
	dst.RetKind = src.RetKind
	dst.Throws = src.Throws
	dst.InstantiationScope = src.InstantiationScope

	subst := ir.NewSubst()
	for _, fid := range src.Formals {
		formal := mod.Formal(fid)
		cloneID := mod.NewFormalDetached(formal.Name, formal.Type, formal.Intent, formal.Span)
		clone := mod.Formal(cloneID)
		clone.Flags = formal.Flags
		clone.Default = mod.CloneBlock(formal.Default, nil)
		clone.TypeExpr = mod.CloneBlock(formal.TypeExpr, nil)
		mod.AttachFormal(dstID, cloneID)
		subst.PutFormal(fid, ir.ToFormal(cloneID))

		if value := mod.ParamMap[fid]; value.IsValid() {
			mod.ParamMap[cloneID] = value
		}
	}
	if src.This.Formal.IsValid() {
		if target, ok := subst.Formals[src.This.Formal]; ok {
			dst.This = target
		}
	}
	return dstID, subst
}

// buildPromotionLeader emits the leader variant: a clone of the wrapper with
// a leader tag formal whose body yields indices from the leader iterator.
func buildPromotionLeader(st *State, wID ir.FuncID, info *CallInfo, iterator *ir.Expr, zippered bool) ir.FuncID {
	mod := st.Mod
	span := info.Span
	bt := mod.Types.Builtins()

	lifnID, leaderMap := copyFuncSig(st, wID)
	lifn := mod.Func(lifnID)

	assert(!lifn.Flags.Has(ir.FlagResolved), "promotion leader cloned from a resolved wrapper")

	st.Leaders[wID] = lifnID

	// Leader iterators are always inlined.
	lifn.Flags = lifn.Flags.With(ir.FlagInlineIterator)

	tagID := mod.NewFormalDetached("tag", bt.IterTag, ir.IntentParam, span)
	mod.AttachFormal(lifnID, tagID)

	lifn.Where = ir.NewCallNamed("==", span,
		mod.FormalRef(tagID, span), mod.VarRef(mod.Globals.LeaderTag, span))

	leaderIndex := mod.NewTemp("p_leaderIndex", types.NoTypeID, span)
	leaderIterator := mod.NewTemp("p_leaderIterator", types.NoTypeID, span)
	mod.Var(leaderIterator).Flags = mod.Var(leaderIterator).Flags.With(ir.FlagExprTemp)

	lifn.Body.Append(ir.DefStmt(leaderIterator, span))

	toLeader := "toLeader"
	if zippered {
		toLeader = "toLeaderZip"
	}
	lifn.Body.Append(ir.MoveStmt(mod.VarRef(leaderIterator, span),
		ir.NewCallNamed(toLeader, span, mod.CloneExpr(iterator, leaderMap)), span))

	// indices are not used in the leader; it only partitions
	loopBody := ir.NewBlock(span)
	loopBody.Append(ir.DefStmt(leaderIndex, span))
	loopBody.Append(ir.YieldStmt(mod.VarRef(leaderIndex, span), span))
	lifn.Body.Append(ir.ForStmt(mod.VarRef(leaderIndex, span),
		mod.VarRef(leaderIterator, span), loopBody, zippered, span))

	mod.AppendFunc(lifnID)

	st.Oracle.Normalize(lifnID)

	lifn.Flags = lifn.Flags.With(ir.FlagGeneric)
	lifn.InstantiationScope = info.Scope

	return lifnID
}

// buildPromotionFollower emits the follower variant: a clone with follower
// tag, followThis and fast formals, choosing the fast follower when the
// runtime check allowed it, and yielding one inner-call result per follower
// index.
func buildPromotionFollower(st *State, wID ir.FuncID, info *CallInfo, indices, iterator, actualCall *ir.Expr, zippered bool) ir.FuncID {
	mod := st.Mod
	span := info.Span
	bt := mod.Types.Builtins()

	fifnID, followerMap := copyFuncSig(st, wID)
	fifn := mod.Func(fifnID)

	assert(!fifn.Flags.Has(ir.FlagResolved), "promotion follower cloned from a resolved wrapper")

	st.Followers[wID] = fifnID

	tagID := mod.NewFormalDetached("tag", bt.IterTag, ir.IntentParam, span)
	mod.AttachFormal(fifnID, tagID)

	followerID := mod.NewFormalDetached("followThis", bt.Any, ir.IntentBlank, span)
	mod.AttachFormal(fifnID, followerID)

	fastID := mod.NewFormalDetached("fast", bt.Bool, ir.IntentParam, span)
	fastDefault := ir.NewBlock(span)
	fastDefault.Append(ir.ExprStmt(mod.VarRef(mod.Globals.False, span), span))
	mod.Formal(fastID).Default = fastDefault
	mod.AttachFormal(fifnID, fastID)

	fifn.Where = ir.NewCallNamed("==", span,
		mod.FormalRef(tagID, span), mod.VarRef(mod.Globals.FollowerTag, span))

	followerIterator := mod.NewTemp("p_followerIterator", types.NoTypeID, span)
	mod.Var(followerIterator).Flags = mod.Var(followerIterator).Flags.With(ir.FlagExprTemp)
	fifn.Body.Append(ir.DefStmt(followerIterator, span))

	toFollower, toFastFollower := "toFollower", "toFastFollower"
	if zippered {
		toFollower, toFastFollower = "toFollowerZip", "toFastFollowerZip"
	}

	fastBranch := ir.NewBlock(span)
	fastBranch.Append(ir.MoveStmt(mod.VarRef(followerIterator, span),
		ir.NewCallNamed(toFastFollower, span,
			mod.CloneExpr(iterator, followerMap), mod.FormalRef(followerID, span)), span))
	slowBranch := ir.NewBlock(span)
	slowBranch.Append(ir.MoveStmt(mod.VarRef(followerIterator, span),
		ir.NewCallNamed(toFollower, span,
			mod.CloneExpr(iterator, followerMap), mod.FormalRef(followerID, span)), span))
	fifn.Body.Append(ir.IfStmt(mod.FormalRef(fastID, span), fastBranch, slowBranch, span))

	yieldTmp := mod.NewTemp("p_yield", actualCall.Type, span)
	mod.Var(yieldTmp).Flags = mod.Var(yieldTmp).Flags.With(ir.FlagExprTemp)
	followerBlock := ir.NewBlock(span)
	followerBlock.Append(ir.DefStmt(yieldTmp, span))
	followerBlock.Append(ir.MoveStmt(mod.VarRef(yieldTmp, span),
		mod.CloneExpr(actualCall, followerMap), span))
	followerBlock.Append(ir.YieldStmt(mod.VarRef(yieldTmp, span), span))

	fifn.Body.Append(ir.ForStmt(mod.CloneExpr(indices, followerMap),
		mod.VarRef(followerIterator, span), followerBlock, zippered, span))

	mod.AppendFunc(fifnID)

	st.Oracle.Normalize(fifnID)

	fifn.Flags = fifn.Flags.With(ir.FlagGeneric)
	fifn.InstantiationScope = info.Scope

	return fifnID
}

// fixUnresolvedIndexRefs resolves the symbolic index names planted in inner
// calls against the loop-body defs normalization materialized. Finding each
// one is an invariant; a leftover name is a compiler bug.
func fixUnresolvedIndexRefs(st *State, wID, fnID ir.FuncID) {
	w := st.Mod.Func(wID)
	fixIndexRefsInBlock(st, w.Body, fnID, nil)
}

func fixIndexRefsInBlock(st *State, b *ir.Block, fnID ir.FuncID, defs []ir.VarID) {
	if b == nil {
		return
	}
	for i := range b.Stmts {
		switch data := b.Stmts[i].Data.(type) {
		case ir.IfData:
			fixIndexRefsInExpr(st, data.Cond, fnID, defs)
			fixIndexRefsInBlock(st, data.Then, fnID, defs)
			fixIndexRefsInBlock(st, data.Else, fnID, defs)
		case ir.LoopData:
			loopDefs := ir.CollectDefs(data.Body)
			fixIndexRefsInBlock(st, data.Body, fnID, loopDefs)
		case ir.MoveData:
			fixIndexRefsInExpr(st, data.Dst, fnID, defs)
			fixIndexRefsInExpr(st, data.Src, fnID, defs)
		case ir.ExprStmtData:
			fixIndexRefsInExpr(st, data.Expr, fnID, defs)
		case ir.ReturnData:
			fixIndexRefsInExpr(st, data.Value, fnID, defs)
		case ir.YieldData:
			fixIndexRefsInExpr(st, data.Value, fnID, defs)
		}
	}
}

func fixIndexRefsInExpr(st *State, e *ir.Expr, fnID ir.FuncID, defs []ir.VarID) {
	data := e.AsCall()
	if data == nil {
		if e != nil {
			if tup, ok := e.Data.(ir.TupleData); ok {
				for _, elem := range tup.Elems {
					fixIndexRefsInExpr(st, elem, fnID, defs)
				}
			}
		}
		return
	}
	for _, arg := range data.Args {
		fixIndexRefsInExpr(st, arg, fnID, defs)
	}
	if data.Callee.Fn != fnID {
		return
	}
	for i, arg := range data.Args {
		un, ok := arg.Data.(ir.UnresolvedData)
		if !ok {
			continue
		}
		found := false
		for _, def := range defs {
			v := st.Mod.Var(def)
			if v.Name == un.Name {
				data.Args[i] = st.Mod.VarRef(def, arg.Span)
				found = true
				break
			}
		}
		if !found {
			ice("promotion index %q has no definition in the enclosing loop", un.Name)
		}
	}
}

// buildPromotionFastFollowerCheck emits one of the four check functions: the
// static (param) and dynamic variants, with and without a leader argument.
// Each extracts the promoting fields of this call site's iterator record into
// a tuple and forwards to the zip check.
func buildPromotionFastFollowerCheck(st *State, isStatic, addLead bool, info *CallInfo, wID ir.FuncID, requiresPromotion map[ir.FormalID]bool) ir.FuncID {
	mod := st.Mod
	span := info.Span
	bt := mod.Types.Builtins()
	w := mod.Func(wID)

	name := "dynamicFastFollowCheck"
	if isStatic {
		name = "staticFastFollowCheck"
	}
	forwardName := name + "Zip"

	checkID := mod.NewFuncDetached(name, span)
	check := mod.Func(checkID)
	if isStatic {
		check.RetKind = ir.RetParam
	} else {
		check.RetKind = ir.RetValue
	}
	check.RetType = bt.Bool

	xID := mod.NewFormalDetached("x", bt.IterRecord, ir.IntentBlank, span)
	mod.AttachFormal(checkID, xID)

	leadID := ir.NoFormalID
	if addLead {
		leadID = mod.NewFormalDetached("lead", bt.Any, ir.IntentBlank, span)
		mod.AttachFormal(checkID, leadID)
	}

	buildTuple := ir.NewCallNamed("buildTupleAlwaysAllowRef", span)

	for _, wf := range w.Formals {
		if !requiresPromotion[wf] {
			continue
		}
		formal := mod.Formal(wf)
		field := mod.NewVar(formal.Name, formal.Type, span)
		check.Body.Append(ir.DefStmt(field, span))
		extract := ir.NewCallPrim(ir.PrimIterRecFieldByFormal, span,
			mod.FormalRef(xID, span), mod.FormalRef(wf, span))
		extract.Type = formal.Type
		check.Body.Append(ir.MoveStmt(mod.VarRef(field, span), extract, span))
		appendArg(buildTuple, mod.VarRef(field, span))
	}

	// Only applicable to the iterator record this call site produces.
	check.Where = ir.NewCallNamed("==", span,
		ir.NewCallPrim(ir.PrimTypeof, span, mod.FormalRef(xID, span)),
		ir.NewCallPrim(ir.PrimTypeof, span, mod.CloneExpr(info.Call, nil)))

	pTup := mod.NewTemp("p_tup", types.NoTypeID, span)
	check.Body.Append(ir.DefStmt(pTup, span))
	check.Body.Append(ir.MoveStmt(mod.VarRef(pTup, span), buildTuple, span))

	ret := mod.NewTemp("p_ret", bt.Bool, span)
	mod.Var(ret).Flags = mod.Var(ret).Flags.With(ir.FlagExprTemp).With(ir.FlagMaybeParam)
	check.Body.Append(ir.DefStmt(ret, span))

	forward := ir.NewCallNamed(forwardName, span, mod.VarRef(pTup, span))
	if addLead {
		appendArg(forward, mod.FormalRef(leadID, span))
	}
	forward.Type = bt.Bool
	check.Body.Append(ir.MoveStmt(mod.VarRef(ret, span), forward, span))
	check.Body.Append(ir.ReturnStmt(mod.VarRef(ret, span), span))

	mod.AppendFunc(checkID)

	st.Oracle.Normalize(checkID)

	check.Flags = check.Flags.With(ir.FlagGeneric)
	check.InstantiationScope = info.Scope

	return checkID
}
