package resolve

import (
	"crest/internal/ir"
)

// WrapCall rewrites one resolved call site. actualToFormal pairs each actual
// (by position) with the formal it binds; a formal with a default may be
// absent. The stages run leaves-first: defaults, reorder, coercion,
// promotion — each on the possibly-wrapped callee the previous stage chose.
//
// The returned function is the callee the call must target; the call node's
// actual list has been mutated to be positional, typed and arity-matched
// against it. On a user-visible type error the call site is left mid-rewrite
// and the error propagates; nothing partial is cached.
func WrapCall(st *State, fnID ir.FuncID, info *CallInfo, actualToFormal []ir.FormalID) (ir.FuncID, error) {
	fn := st.Mod.Func(fnID)
	if fn == nil {
		ice("wrapping a call to an unknown function")
	}

	retval := fnID

	if len(actualToFormal) < fn.NumFormals() {
		retval = wrapDefaultedFormals(st, retval, info, actualToFormal)
	}

	// Map actuals to formals by position.
	if len(actualToFormal) > 1 {
		reorderActuals(st, retval, info, actualToFormal)
	}

	// Positions now match formal order; labels have no further meaning.
	dropArgNames(info)

	if len(info.Actuals) > 0 {
		if err := coerceActuals(st, retval, info); err != nil {
			return ir.NoFuncID, err
		}
	}

	if isPromotionRequired(st, retval, info) {
		retval = promotionWrap(st, retval, info)
	}

	return retval, nil
}

// dropArgNames clears actual labels from the call node once positions agree
// with formal order.
func dropArgNames(info *CallInfo) {
	data := info.Call.AsCall()
	data.ArgNames = nil
}

// RetargetCall points the call at the callee WrapCall chose and types the
// call expression accordingly.
func RetargetCall(st *State, info *CallInfo, fnID ir.FuncID) {
	data := info.Call.AsCall()
	data.Callee = ir.Callee{Fn: fnID}
	info.Call.Type = st.Mod.Func(fnID).RetType
}
